package extractor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
)

// ScanStats counts per-case scan outcomes.
type ScanStats struct {
	Files    int // entries visited
	Records  int // rows produced
	Archives int // archives aggregated
	Skipped  int // junk entries and archives with no readable contents
	Failed   int // unreadable files and corrupt archives
}

// ScanCase walks one case directory and collects one record per readable
// file plus one aggregate record per archive, each stamped with projectID.
// A non-positive projectID leaves the identifier column null. The path may
// also be a bare archive standing in for a case, which yields a single
// aggregate row. Unreadable entries are logged and counted, never fatal;
// only an unwalkable case path returns an error.
func ScanCase(path string, projectID int, log zerolog.Logger) (*Table, ScanStats, error) {
	var stats ScanStats
	table := NewTable()

	info, err := os.Stat(path)
	if err != nil {
		return nil, stats, fmt.Errorf("could not stat case path: %w", err)
	}

	if !info.IsDir() {
		if !dcm.IsArchive(path) {
			return nil, stats, fmt.Errorf("case path %s is neither a directory nor an archive", path)
		}
		stats.Files = 1
		scanArchive(path, projectID, table, &stats, log)
		return table, stats, nil
	}

	files, err := listCaseFiles(path)
	if err != nil {
		return nil, stats, fmt.Errorf("could not walk case directory: %w", err)
	}

	for _, file := range files {
		stats.Files++
		switch {
		case dcm.IsExcluded(file):
			stats.Skipped++
			log.Debug().Str("file", filepath.Base(file)).Msg("skipping non-DICOM entry")
		case dcm.IsArchive(file):
			scanArchive(file, projectID, table, &stats, log)
		default:
			rec, err := ReadFileRecord(file)
			if err != nil {
				stats.Failed++
				log.Warn().Str("file", filepath.Base(file)).Err(err).Msg("skipping unreadable file")
				continue
			}
			stampProjectID(rec, projectID)
			table.Append(*rec)
			stats.Records++
		}
	}

	return table, stats, nil
}

func scanArchive(path string, projectID int, table *Table, stats *ScanStats, log zerolog.Logger) {
	rec, err := ReadArchiveRecord(path, log)
	if err != nil {
		stats.Failed++
		log.Warn().Str("archive", filepath.Base(path)).Err(err).Msg("skipping unreadable archive")
		return
	}
	if rec == nil {
		stats.Skipped++
		return
	}
	stampProjectID(rec, projectID)
	table.Append(*rec)
	stats.Records++
	stats.Archives++
}

func stampProjectID(rec *Record, projectID int) {
	if projectID > 0 {
		id := projectID
		rec.ProjectID = &id
	}
}

// listCaseFiles walks the case directory, pruning excluded directories,
// and returns every file in sorted order. Unreadable subtrees are skipped.
func listCaseFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if dcm.ExcludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
