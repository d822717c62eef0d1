package extractor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mholt/archiver/v3"
	"github.com/rs/zerolog"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
)

// ReadArchiveRecord expands a compressed archive into a private temporary
// workspace, reads the metadata of every contained file, and folds the
// results into one aggregate record for the whole archive. The first
// non-null value seen per field wins; ImageCount is the number of contained
// files that decoded, SeriesCount the number of distinct series observed.
// Returns (nil, nil) when nothing inside decodes. The workspace is removed
// in every outcome.
func ReadArchiveRecord(path string, log zerolog.Logger) (*Record, error) {
	tmp, err := os.MkdirTemp("", "dcmextract-archive-")
	if err != nil {
		return nil, fmt.Errorf("could not create temp workspace: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := archiver.Unarchive(path, tmp); err != nil {
		return nil, fmt.Errorf("could not expand archive: %w", err)
	}

	contained, err := listFilesSorted(tmp)
	if err != nil {
		return nil, fmt.Errorf("could not walk archive contents: %w", err)
	}

	agg := &Record{FileName: filepath.Base(path)}
	imageCount := 0
	series := make(map[string]bool)

	for _, inner := range contained {
		// nested archives are not re-expanded
		if dcm.IsExcluded(inner) || dcm.IsArchive(inner) {
			continue
		}
		rec, err := ReadFileRecord(inner)
		if err != nil {
			log.Debug().Str("entry", filepath.Base(inner)).Err(err).Msg("unreadable archive entry")
			continue
		}
		imageCount++
		if rec.SeriesInstanceUID != "" {
			series[rec.SeriesInstanceUID] = true
		}
		agg.mergeFrom(rec)
	}

	if imageCount == 0 {
		log.Info().Str("archive", filepath.Base(path)).Msg("no readable DICOM files in archive")
		return nil, nil
	}

	seriesCount := len(series)
	agg.ImageCount = &imageCount
	agg.SeriesCount = &seriesCount
	return agg, nil
}

// listFilesSorted walks root and returns every regular file in sorted
// order, so first-wins folding is deterministic.
func listFilesSorted(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
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
