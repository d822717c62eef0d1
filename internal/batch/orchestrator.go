package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
	"github.com/chenqz-hub/DCM-information/internal/extractor"
	"github.com/chenqz-hub/DCM-information/internal/identity"
	"github.com/chenqz-hub/DCM-information/internal/progress"
)

// Run executes one batch over every case directory under the data root:
// assign identifiers, scan each case under the time budget, then merge.
// Per-case failures and timeouts are recorded in the summary and excluded
// from the merge; only setup failures return an error.
func Run(cfg Config) (*progress.Summary, error) {
	log := cfg.Logger
	summary := progress.NewSummary(uuid.NewString())

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.MoveArchives && !cfg.DryRun {
		if err := MoveTopLevelArchives(cfg.DataRoot, log); err != nil {
			return nil, err
		}
	}

	names, err := listCaseDirs(cfg.DataRoot, cfg.OutDir)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("run_id", summary.RunID).
		Str("root", cfg.DataRoot).
		Int("cases", len(names)).
		Msg("starting batch")

	idmap := identity.Load(cfg.IDMapPath)
	tasks := make([]caseTask, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, caseTask{
			name:      name,
			path:      filepath.Join(cfg.DataRoot, name),
			projectID: idmap.GetOrCreate(name),
		})
	}

	if cfg.DryRun {
		for _, task := range tasks {
			log.Info().Str("case", task.name).Int("project_id", task.projectID).Msg("would process")
			summary.Record(progress.CaseResult{
				Name:      task.name,
				ProjectID: task.projectID,
				Status:    progress.StatusPending,
			})
		}
		return summary, nil
	}

	outcomes := runPool(&cfg, tasks)

	var caseTables []*extractor.Table
	for _, outcome := range outcomes {
		summary.Record(progress.CaseResult{
			Name:      outcome.task.name,
			ProjectID: outcome.task.projectID,
			Status:    outcome.status,
			Rows:      tableLen(outcome.table),
			Error:     errText(outcome.err),
			Elapsed:   outcome.elapsed.Seconds(),
		})
		if outcome.table != nil &&
			(outcome.status == progress.StatusCompleted || outcome.status == progress.StatusSkipped) {
			caseTables = append(caseTables, outcome.table)
		}
	}

	if cfg.mergeEnabled() {
		if err := writeMerged(&cfg, extractor.Merge(caseTables...)); err != nil {
			return summary, err
		}
	}

	if err := idmap.Save(); err != nil {
		return summary, fmt.Errorf("could not save identity map: %w", err)
	}

	if err := summary.WriteFile(filepath.Join(cfg.OutDir, SummaryName)); err != nil {
		log.Warn().Err(err).Msg("could not write batch summary")
	}

	log.Info().
		Int("completed", summary.CountByStatus(progress.StatusCompleted)).
		Int("skipped", summary.CountByStatus(progress.StatusSkipped)).
		Int("failed", summary.CountByStatus(progress.StatusFailed)).
		Int("timed_out", summary.CountByStatus(progress.StatusTimedOut)).
		Msg("batch finished")
	return summary, nil
}

// runPool dispatches tasks to a bounded worker pool and collects outcomes
// in completion order.
func runPool(cfg *Config, tasks []caseTask) []caseOutcome {
	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	taskChan := make(chan caseTask, len(tasks))
	resultChan := make(chan caseOutcome, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				resultChan <- dispatchCase(cfg, task)
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]caseOutcome, 0, len(tasks))
	for outcome := range resultChan {
		outcomes = append(outcomes, outcome)
		if cfg.Progress != nil {
			cfg.Progress(len(outcomes), len(tasks), outcome.task.name, outcome.status)
		}
	}
	return outcomes
}

// dispatchCase runs one case through the state machine: resume check,
// then the runner under the configured time budget, then classification
// of the result as completed, timed out, or failed.
func dispatchCase(cfg *Config, task caseTask) caseOutcome {
	log := cfg.Logger

	if cfg.Resume && !cfg.OnlyMerged {
		existing := filepath.Join(cfg.OutDir, task.name+".csv")
		if _, err := os.Stat(existing); err == nil {
			table, err := extractor.ReadTableFile(existing)
			if err != nil {
				log.Warn().Str("case", task.name).Err(err).Msg("could not re-read existing table")
				table = nil
			}
			log.Info().Str("case", task.name).Msg("resume: per-case table exists")
			return caseOutcome{task: task, status: progress.StatusSkipped, table: table}
		}
	}

	log.Debug().Str("case", task.name).Int("project_id", task.projectID).Msg("case running")
	start := time.Now()

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	table, err := cfg.runCase(ctx, cfg, task)
	elapsed := time.Since(start)

	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Error().Str("case", task.name).Dur("budget", cfg.Timeout).Msg("case timed out")
		return caseOutcome{task: task, status: progress.StatusTimedOut, elapsed: elapsed, err: err}
	case err != nil:
		log.Error().Str("case", task.name).Err(err).Msg("case failed")
		return caseOutcome{task: task, status: progress.StatusFailed, elapsed: elapsed, err: err}
	default:
		log.Info().Str("case", task.name).Int("rows", table.Len()).Dur("elapsed", elapsed).Msg("case completed")
		return caseOutcome{task: task, status: progress.StatusCompleted, table: table, elapsed: elapsed}
	}
}

// writeMerged sorts and writes the merged artifacts, backing up existing
// ones first when configured.
func writeMerged(cfg *Config, merged *extractor.Table) error {
	log := cfg.Logger
	merged.SortByProjectID()

	original := filepath.Join(cfg.OutDir, MergedOriginalName)
	if cfg.Backup {
		backupFile(original, log)
	}
	if err := merged.WriteFile(original); err != nil {
		return fmt.Errorf("could not write merged table: %w", err)
	}
	log.Info().Str("path", original).Int("rows", merged.Len()).Msg("merged table written")

	if cfg.Desensitize {
		desensitized := filepath.Join(cfg.OutDir, MergedDesensitizedName)
		if cfg.Backup {
			backupFile(desensitized, log)
		}
		if err := merged.Desensitized().WriteFile(desensitized); err != nil {
			return fmt.Errorf("could not write desensitized merged table: %w", err)
		}
		log.Info().Str("path", desensitized).Msg("desensitized merged table written")
	}
	return nil
}

// backupFile copies an existing artifact to a timestamped .bak sibling.
func backupFile(path string, log zerolog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	backup := fmt.Sprintf("%s.bak.%d", path, time.Now().Unix())
	if err := copyFile(path, backup); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("could not back up artifact")
		return
	}
	log.Info().Str("backup", backup).Msg("artifact backed up")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// listCaseDirs returns the sorted case subdirectory names under root,
// skipping hidden directories and the output directory itself.
func listCaseDirs(root, outDir string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("could not list data root: %w", err)
	}

	outAbs, err := filepath.Abs(outDir)
	if err != nil {
		outAbs = outDir
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || dcm.ExcludedDirs[name] {
			continue
		}
		caseAbs, err := filepath.Abs(filepath.Join(root, name))
		if err == nil && caseAbs == outAbs {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func tableLen(t *extractor.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
