package batch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chenqz-hub/DCM-information/internal/extractor"
)

// WorkerOptions carries the hidden flags of a scan-case child process.
type WorkerOptions struct {
	CasePath    string
	CaseName    string
	ProjectID   int
	ScratchPath string
	OutDir      string
	OnlyMerged  bool
	Desensitize bool
	ExportJSON  bool
	Logger      zerolog.Logger
}

// RunWorker scans a single case on behalf of a parent batch process,
// writes the per-case artifacts, and leaves the resulting table at the
// scratch path for the parent to collect.
func RunWorker(opts WorkerOptions) error {
	if opts.CaseName == "" {
		opts.CaseName = filepath.Base(opts.CasePath)
	}
	cfg := Config{
		OutDir:      opts.OutDir,
		OnlyMerged:  opts.OnlyMerged,
		Desensitize: opts.Desensitize,
		ExportJSON:  opts.ExportJSON,
		Logger:      opts.Logger,
	}

	table, err := scanCaseToFiles(&cfg, opts.CasePath, opts.CaseName, opts.ProjectID)
	if err != nil {
		return err
	}
	if opts.ScratchPath != "" {
		if err := table.WriteFile(opts.ScratchPath); err != nil {
			return fmt.Errorf("could not write scratch table: %w", err)
		}
	}
	return nil
}

// executeCase is the default case runner: in-process when no deadline is
// set, otherwise a child process that the context can kill when the
// budget elapses.
func executeCase(ctx context.Context, cfg *Config, task caseTask) (*extractor.Table, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return scanCaseToFiles(cfg, task.path, task.name, task.projectID)
	}
	return runCaseSubprocess(ctx, cfg, task)
}

// scanCaseToFiles scans one case and writes its per-case artifacts.
func scanCaseToFiles(cfg *Config, casePath, caseName string, projectID int) (*extractor.Table, error) {
	log := cfg.Logger

	table, stats, err := extractor.ScanCase(casePath, projectID, log)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("case", caseName).
		Int("files", stats.Files).
		Int("records", stats.Records).
		Int("archives", stats.Archives).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("scan finished")

	if !cfg.OnlyMerged {
		base := filepath.Join(cfg.OutDir, caseName)
		if err := table.WriteFile(base + ".csv"); err != nil {
			return nil, err
		}
		if cfg.Desensitize {
			if err := table.Desensitized().WriteFile(base + ".desensitized.csv"); err != nil {
				return nil, err
			}
		}
		if cfg.ExportJSON {
			if err := table.WriteJSON(base + ".json"); err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}

// runCaseSubprocess re-executes the current binary against one case. The
// child writes its table to a scratch file with a rename at the end, so a
// kill mid-scan leaves nothing for the parent to pick up; the scratch file
// is removed in every outcome.
func runCaseSubprocess(ctx context.Context, cfg *Config, task caseTask) (*extractor.Table, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("could not locate executable: %w", err)
	}

	scratch := filepath.Join(cfg.OutDir, fmt.Sprintf(".case_%d_%s.csv", task.projectID, uuid.NewString()))
	defer os.Remove(scratch)

	args := []string{
		"--scan-case", task.path,
		"--scan-name", task.name,
		"--scan-id", strconv.Itoa(task.projectID),
		"--scan-out", scratch,
		"--out", cfg.OutDir,
	}
	if cfg.OnlyMerged {
		args = append(args, "--only-merged")
	}
	if !cfg.Desensitize {
		args = append(args, "--desensitize=false")
	}
	if cfg.ExportJSON {
		args = append(args, "--export-json")
	}
	if cfg.LogLevel != "" {
		args = append(args, "--log-level", cfg.LogLevel)
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("case terminated: %w", ctx.Err())
		}
		return nil, fmt.Errorf("case worker failed: %w", err)
	}

	table, err := extractor.ReadTableFile(scratch)
	if err != nil {
		return nil, fmt.Errorf("could not read worker output: %w", err)
	}
	return table, nil
}
