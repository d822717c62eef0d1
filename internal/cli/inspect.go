package cli

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/chenqz-hub/DCM-information/internal/extractor"
)

// inspectDuplicates reports duplicate (ProjectID, FileName) groups in a
// merged CSV.
func inspectDuplicates(path string) error {
	table, err := extractor.ReadTableFile(path)
	if err != nil {
		return err
	}

	groups := table.Duplicates()
	if len(groups) == 0 {
		fmt.Printf("No duplicate (ProjectID, FileName) rows in %s (%d rows)\n", path, table.Len())
		return nil
	}

	fmt.Printf("%d duplicate groups in %s (%d rows):\n", len(groups), path, table.Len())
	for _, g := range groups {
		id := "null"
		if g.ProjectID != nil {
			id = strconv.Itoa(*g.ProjectID)
		}
		fmt.Printf("  ProjectID=%s  FileName=%s  rows=%d\n", id, g.FileName, len(g.Rows))
	}
	return nil
}

// debugCase scans one case directory in-process and prints the table.
func debugCase(dir string, logger zerolog.Logger) error {
	table, stats, err := extractor.ScanCase(dir, 0, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Case: %s\n", dir)
	fmt.Printf("Files: %d  Records: %d  Archives: %d  Skipped: %d  Failed: %d\n",
		stats.Files, stats.Records, stats.Archives, stats.Skipped, stats.Failed)
	fmt.Println()
	fmt.Print(table.String())
	return nil
}
