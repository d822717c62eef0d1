package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chenqz-hub/DCM-information/internal/cli"
)

func main() {
	// Define flags
	dataRoot := flag.String("data-root", "", "Root directory containing one subdirectory per case")
	dataRootShort := flag.String("d", "", "Data root (shorthand)")

	outDir := flag.String("out", "", "Output directory")
	outDirShort := flag.String("o", "", "Output directory (shorthand)")

	idmap := flag.String("idmap", "", "Identity map file path")
	idmapShort := flag.String("m", "", "Identity map (shorthand)")

	logFile := flag.String("log", "", "Also append log output to a file")
	logFileShort := flag.String("l", "", "Log file (shorthand)")

	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	timeout := flag.Int("timeout", 300, "Per-case time budget in seconds; 0 disables process isolation")
	timeoutShort := flag.Int("t", 300, "Timeout (shorthand)")

	parallel := flag.Int("parallel", 1, "Case worker pool size; 0 uses all CPUs")
	parallelShort := flag.Int("p", 1, "Parallelism (shorthand)")

	mergeAll := flag.Bool("merge-all", false, "Also write the two merged artifacts")
	onlyMerged := flag.Bool("only-merged", false, "Skip per-case files, write only the merged artifacts")
	desensitize := flag.Bool("desensitize", true, "Write desensitized variants")
	exportJSON := flag.Bool("export-json", false, "Also write per-case JSON tables")
	moveZips := flag.Bool("move-top-level-zips", false, "Move stray top-level archives into per-case folders first")
	resume := flag.Bool("resume", false, "Skip cases whose per-case CSV already exists")
	rebuild := flag.Bool("rebuild", false, "Rebuild the merged artifacts from the identity map")
	backup := flag.Bool("backup", false, "Back up merged artifacts before overwriting")

	dryRun := flag.Bool("dry-run", false, "Report what would be processed without writing")
	dryRunShort := flag.Bool("n", false, "Dry run (shorthand)")

	caseDir := flag.String("case", "", "Scan a single case directory and print the table")
	inspect := flag.String("inspect", "", "Report duplicate (ProjectID, FileName) rows in a CSV")

	// Worker flags used when the orchestrator re-executes this binary for
	// one case; not part of the documented surface.
	scanCase := flag.String("scan-case", "", "")
	scanName := flag.String("scan-name", "", "")
	scanID := flag.Int("scan-id", 0, "")
	scanOut := flag.String("scan-out", "", "")

	help := flag.Bool("help", false, "Show help message")
	helpShort := flag.Bool("h", false, "Help (shorthand)")

	// Custom usage message
	flag.Usage = func() {
		cli.PrintUsage()
	}

	flag.Parse()

	// Handle help flag
	if *help || *helpShort {
		cli.PrintUsage()
		return
	}

	// Merge short and long flags (prefer long if both specified)
	root := *dataRoot
	if root == "" {
		root = *dataRootShort
	}

	out := *outDir
	if out == "" {
		out = *outDirShort
	}

	idmapPath := *idmap
	if idmapPath == "" {
		idmapPath = *idmapShort
	}

	logPath := *logFile
	if logPath == "" {
		logPath = *logFileShort
	}

	timeoutSec := *timeout
	if timeoutSec == 300 && *timeoutShort != 300 {
		timeoutSec = *timeoutShort
	}

	workers := *parallel
	if workers == 1 && *parallelShort != 1 {
		workers = *parallelShort
	}

	isDryRun := *dryRun || *dryRunShort

	opts := cli.Options{
		DataRoot:    root,
		OutDir:      out,
		IDMapPath:   idmapPath,
		LogFile:     logPath,
		LogLevel:    *logLevel,
		TimeoutSec:  timeoutSec,
		Parallel:    workers,
		MergeAll:    *mergeAll,
		OnlyMerged:  *onlyMerged,
		Desensitize: *desensitize,
		ExportJSON:  *exportJSON,
		MoveZips:    *moveZips,
		Resume:      *resume,
		Rebuild:     *rebuild,
		Backup:      *backup,
		DryRun:      isDryRun,
		CaseDir:     *caseDir,
		InspectPath: *inspect,
		ScanCase:    *scanCase,
		ScanName:    *scanName,
		ScanID:      *scanID,
		ScanOut:     *scanOut,
	}

	if err := cli.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
