package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
)

// MoveTopLevelArchives moves archives sitting directly under the data root
// into per-case folders named after the archive stem, so they enumerate as
// cases. An existing folder of the same name is never reused; the new
// folder gets a _1, _2, ... suffix instead. Individual move failures are
// logged and skipped.
func MoveTopLevelArchives(root string, log zerolog.Logger) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("could not list data root: %w", err)
	}

	moved := 0
	for _, entry := range entries {
		if entry.IsDir() || !dcm.IsArchive(entry.Name()) {
			continue
		}

		src := filepath.Join(root, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		caseDir := filepath.Join(root, stem)
		for n := 1; ; n++ {
			if _, err := os.Stat(caseDir); os.IsNotExist(err) {
				break
			}
			caseDir = filepath.Join(root, fmt.Sprintf("%s_%d", stem, n))
		}

		if err := os.Mkdir(caseDir, 0o755); err != nil {
			log.Warn().Str("archive", entry.Name()).Err(err).Msg("could not create case folder")
			continue
		}
		if err := os.Rename(src, filepath.Join(caseDir, entry.Name())); err != nil {
			log.Warn().Str("archive", entry.Name()).Err(err).Msg("could not move archive")
			continue
		}
		log.Info().Str("archive", entry.Name()).Str("case", filepath.Base(caseDir)).Msg("moved top-level archive")
		moved++
	}

	if moved > 0 {
		log.Info().Int("moved", moved).Msg("top-level archives relocated")
	}
	return nil
}
