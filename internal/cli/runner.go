package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chenqz-hub/DCM-information/internal/batch"
	"github.com/chenqz-hub/DCM-information/internal/logging"
	"github.com/chenqz-hub/DCM-information/internal/progress"
)

// Options holds CLI configuration options
type Options struct {
	DataRoot    string
	OutDir      string
	IDMapPath   string
	LogFile     string
	LogLevel    string
	TimeoutSec  int
	Parallel    int
	MergeAll    bool
	OnlyMerged  bool
	Desensitize bool
	ExportJSON  bool
	MoveZips    bool
	Resume      bool
	Rebuild     bool
	Backup      bool
	DryRun      bool
	CaseDir     string
	InspectPath string

	// hidden worker flags used by the batch orchestrator
	ScanCase string
	ScanName string
	ScanID   int
	ScanOut  string
}

// Run executes the command described by opts.
func Run(opts Options) error {
	logger, logCloser, err := logging.New(logging.Options{Level: opts.LogLevel, File: opts.LogFile})
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	// child mode spawned by the batch orchestrator
	if opts.ScanCase != "" {
		return batch.RunWorker(batch.WorkerOptions{
			CasePath:    opts.ScanCase,
			CaseName:    opts.ScanName,
			ProjectID:   opts.ScanID,
			ScratchPath: opts.ScanOut,
			OutDir:      opts.OutDir,
			OnlyMerged:  opts.OnlyMerged,
			Desensitize: opts.Desensitize,
			ExportJSON:  opts.ExportJSON,
			Logger:      logger,
		})
	}

	if opts.InspectPath != "" {
		return inspectDuplicates(opts.InspectPath)
	}
	if opts.CaseDir != "" {
		return debugCase(opts.CaseDir, logger)
	}

	if opts.DataRoot == "" {
		return fmt.Errorf("data root is required")
	}
	info, err := os.Stat(opts.DataRoot)
	if err != nil {
		return fmt.Errorf("data root does not exist: %s", opts.DataRoot)
	}
	if !info.IsDir() {
		return fmt.Errorf("data root is not a directory: %s", opts.DataRoot)
	}

	applyDefaults(&opts)
	printHeader(opts)

	cfg := batch.Config{
		DataRoot:     opts.DataRoot,
		OutDir:       opts.OutDir,
		IDMapPath:    opts.IDMapPath,
		Timeout:      time.Duration(opts.TimeoutSec) * time.Second,
		Workers:      opts.Parallel,
		MergeAll:     opts.MergeAll,
		OnlyMerged:   opts.OnlyMerged,
		Desensitize:  opts.Desensitize,
		ExportJSON:   opts.ExportJSON,
		MoveArchives: opts.MoveZips,
		Resume:       opts.Resume,
		Backup:       opts.Backup,
		DryRun:       opts.DryRun,
		LogLevel:     opts.LogLevel,
		Logger:       logger,
	}

	pb := newProgressBar(50)
	if !opts.DryRun {
		cfg.Progress = func(done, total int, name string, status progress.Status) {
			pb.update(done, total)
		}
	}

	if opts.DryRun {
		fmt.Println("\n[DRY RUN MODE]")
	}
	fmt.Println()

	var summary *progress.Summary
	if opts.Rebuild {
		summary, err = batch.RebuildMaster(cfg)
	} else {
		summary, err = batch.Run(cfg)
	}
	if err != nil {
		return err
	}

	if !opts.DryRun && len(summary.Cases) > 0 {
		fmt.Println()
	}
	printSummary(summary, opts)

	return nil
}

func applyDefaults(opts *Options) {
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(opts.DataRoot, "output_csv")
	}
	if opts.IDMapPath == "" {
		opts.IDMapPath = filepath.Join(opts.OutDir, batch.IdentityMapName)
	}
}

// PrintUsage prints CLI usage information
func PrintUsage() {
	fmt.Println(`DICOM Metadata Extractor

Walks a root of per-case DICOM folders, extracts a fixed set of metadata
fields from every readable file and archive, and writes per-case and
merged CSV tables. Patient names in the desensitized variants are replaced
by stable "hash:" pseudonyms.

USAGE:
  dcmextract -d <data-root> [flags]

FLAGS:
  -d, --data-root <path>   Root directory containing one subdirectory per case (required)
  -o, --out <path>         Output directory (default: {data-root}/output_csv)
  -t, --timeout <sec>      Per-case time budget in seconds; 0 disables
                           process isolation (default: 300)
  -p, --parallel <n>       Case worker pool size; 0 uses all CPUs (default: 1)
  -m, --idmap <path>       Identity map file (default: {out}/case_projectid_map.json)
  -l, --log <path>         Also append log output to a file
      --log-level <level>  Log level: debug, info, warn, error (default: info)
      --merge-all          Also write the two merged artifacts
      --only-merged        Skip per-case files, write only the merged artifacts
      --desensitize        Write desensitized variants (default: true)
      --export-json        Also write per-case JSON tables
      --move-top-level-zips
                           Move archives sitting directly under the data root
                           into per-case folders before scanning
      --resume             Skip cases whose per-case CSV already exists
      --rebuild            Rebuild the merged artifacts from the identity map
                           (the map file is required in this mode)
      --backup             Back up merged artifacts before overwriting
      --dry-run            Report what would be processed without writing
      --case <path>        Scan a single case directory and print the table
      --inspect <path>     Report duplicate (ProjectID, FileName) rows in a CSV
  -h, --help               Show this help message

EXAMPLES:
  # Extract every case and write the merged tables
  ./dcmextract -d /data/dicom_cases --merge-all

  # Merged artifacts only, eight cases at a time, two-minute budget
  ./dcmextract -d /data/dicom_cases --only-merged -p 8 -t 120

  # Preview without writing anything
  ./dcmextract -d /data/dicom_cases --dry-run

  # Rebuild the merged artifacts, keeping backups of the old ones
  ./dcmextract -d /data/dicom_cases --rebuild --backup

OUTPUT:
  Per-case tables:  {out}/{case}.csv (+ .desensitized.csv, .json)
  Merged tables:    {out}/all_cases_original.csv
                    {out}/all_cases_desensitized.csv
  Identity map:     {out}/case_projectid_map.json
  Run summary:      {out}/batch_summary.json

The identity map assigns each case a stable ProjectID. Keep it with the
outputs and reuse it across runs so previously seen cases keep their IDs.`)
}

// printHeader prints the CLI header with configuration
func printHeader(opts Options) {
	fmt.Println("DICOM Metadata Extractor")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Data root:  %s\n", opts.DataRoot)
	fmt.Printf("Output:     %s\n", opts.OutDir)
	fmt.Printf("Identity:   %s\n", opts.IDMapPath)
	if opts.TimeoutSec > 0 {
		fmt.Printf("Timeout:    %ds per case\n", opts.TimeoutSec)
	} else {
		fmt.Println("Timeout:    disabled (in-process scan)")
	}
	workers := "all CPUs"
	if opts.Parallel > 0 {
		workers = strconv.Itoa(opts.Parallel)
	}
	fmt.Printf("Workers:    %s\n", workers)

	var options []string
	if opts.Rebuild {
		options = append(options, "Rebuild")
	}
	if opts.MergeAll {
		options = append(options, "Merge all")
	}
	if opts.OnlyMerged {
		options = append(options, "Only merged")
	}
	if !opts.Desensitize {
		options = append(options, "No desensitized output")
	}
	if opts.ExportJSON {
		options = append(options, "JSON export")
	}
	if opts.MoveZips {
		options = append(options, "Move top-level archives")
	}
	if opts.Resume {
		options = append(options, "Resume")
	}
	if opts.Backup {
		options = append(options, "Backup")
	}
	if opts.DryRun {
		options = append(options, "Dry run")
	}
	if len(options) > 0 {
		fmt.Printf("Options:    %s\n", strings.Join(options, ", "))
	}
}

// printSummary prints the batch summary
func printSummary(s *progress.Summary, opts Options) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))

	if opts.DryRun {
		fmt.Printf("Dry run: %d cases would be processed\n", len(s.Cases))
		return
	}

	fmt.Printf("Complete! %d succeeded, %d failed, %d timed out\n",
		s.CountByStatus(progress.StatusCompleted),
		s.CountByStatus(progress.StatusFailed),
		s.CountByStatus(progress.StatusTimedOut))
	if n := s.CountByStatus(progress.StatusSkipped); n > 0 {
		fmt.Printf("Skipped:    %d (already extracted)\n", n)
	}
	if names := s.NamesByStatus(progress.StatusFailed); len(names) > 0 {
		fmt.Printf("Failed:     %s\n", strings.Join(names, ", "))
	}
	if names := s.NamesByStatus(progress.StatusTimedOut); len(names) > 0 {
		fmt.Printf("Timed out:  %s\n", strings.Join(names, ", "))
	}
	if names := s.NamesByStatus(progress.StatusMissing); len(names) > 0 {
		fmt.Printf("Missing:    %s\n", strings.Join(names, ", "))
	}
	fmt.Printf("Output:     %s\n", opts.OutDir)
	fmt.Printf("Elapsed:    %s\n", s.TotalElapsed().Round(time.Millisecond))
}

// progressBar represents a terminal progress bar
type progressBar struct {
	width int
}

// newProgressBar creates a new progress bar with specified width
func newProgressBar(width int) *progressBar {
	return &progressBar{width: width}
}

// update updates the progress bar display
func (pb *progressBar) update(current, total int) {
	if total == 0 {
		return
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(pb.width))
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Repeat("#", filled) + strings.Repeat("-", pb.width-filled)
	fmt.Printf("\r[%s] %3.0f%%  (%d/%d)", bar, percent*100, current, total)
}
