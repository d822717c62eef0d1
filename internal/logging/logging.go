package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the process logger.
type Options struct {
	Level string // debug, info, warn, error; empty means info
	File  string // optional file duplicating console output
}

// New builds the process logger: console output on stderr, optionally
// duplicated to an append-mode log file. The returned closer owns the log
// file and is nil when no file is configured.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("could not parse log level %q: %w", opts.Level, err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	writer := io.Writer(console)

	var closer io.Closer
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("could not open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", "dcmextract").
		Logger()

	return logger, closer, nil
}
