package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/chenqz-hub/DCM-information/internal/extractor"
	"github.com/chenqz-hub/DCM-information/internal/progress"
)

// Artifact names under the output directory.
const (
	MergedOriginalName     = "all_cases_original.csv"
	MergedDesensitizedName = "all_cases_desensitized.csv"
	IdentityMapName        = "case_projectid_map.json"
	SummaryName            = "batch_summary.json"
)

// Config drives one batch run.
type Config struct {
	DataRoot  string
	OutDir    string
	IDMapPath string

	Timeout time.Duration // per-case budget; 0 disables process isolation
	Workers int           // worker pool size; 0 or less means all CPUs

	MergeAll     bool // write the merged artifacts after per-case files
	OnlyMerged   bool // skip per-case files, implies merging
	Desensitize  bool // write desensitized variants
	ExportJSON   bool // write per-case JSON tables
	MoveArchives bool // relocate stray top-level archives first
	Resume       bool // skip cases whose per-case table already exists
	Backup       bool // back up merged artifacts before overwrite
	DryRun       bool // enumerate and report without writing

	LogLevel string // forwarded to case worker processes
	Logger   zerolog.Logger

	// Progress, when set, is called once per resolved case.
	Progress func(done, total int, name string, status progress.Status)

	// runCase overrides the case runner; nil selects the default
	// subprocess-or-in-process runner.
	runCase caseRunner
}

type caseRunner func(ctx context.Context, cfg *Config, task caseTask) (*extractor.Table, error)

type caseTask struct {
	name      string
	path      string
	projectID int
}

type caseOutcome struct {
	task    caseTask
	status  progress.Status
	table   *extractor.Table
	elapsed time.Duration
	err     error
}

func (c *Config) validate() error {
	info, err := os.Stat(c.DataRoot)
	if err != nil {
		return fmt.Errorf("could not access data root %s: %w", c.DataRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data root %s is not a directory", c.DataRoot)
	}
	if c.OutDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if !c.DryRun {
		if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}
	if c.runCase == nil {
		c.runCase = executeCase
	}
	return nil
}

func (c *Config) mergeEnabled() bool {
	return c.MergeAll || c.OnlyMerged
}
