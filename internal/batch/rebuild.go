package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
	"github.com/chenqz-hub/DCM-information/internal/extractor"
	"github.com/chenqz-hub/DCM-information/internal/identity"
	"github.com/chenqz-hub/DCM-information/internal/progress"
)

// RebuildMaster regenerates the merged artifacts from the identity map
// alone: every mapped case is located under the data root and re-scanned.
// The map is required; a missing or malformed map is a setup failure.
// Cases whose path cannot be resolved are recorded as missing and the
// rebuild continues. Per-case files are not rewritten.
func RebuildMaster(cfg Config) (*progress.Summary, error) {
	log := cfg.Logger
	summary := progress.NewSummary(uuid.NewString())

	idmap, err := identity.LoadStrict(cfg.IDMapPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.OnlyMerged = true

	byID := idmap.ByID()
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	log.Info().
		Str("run_id", summary.RunID).
		Int("cases", len(ids)).
		Str("idmap", cfg.IDMapPath).
		Msg("rebuilding merged artifacts from identity map")

	var tasks []caseTask
	for _, id := range ids {
		name := byID[id]
		path, found := FindCasePath(cfg.DataRoot, name)
		if !found {
			log.Warn().Str("case", name).Int("project_id", id).Msg("case path not found")
			summary.Record(progress.CaseResult{
				Name:      name,
				ProjectID: id,
				Status:    progress.StatusMissing,
			})
			continue
		}
		tasks = append(tasks, caseTask{name: name, path: path, projectID: id})
	}

	if cfg.DryRun {
		for _, task := range tasks {
			log.Info().Str("case", task.name).Str("path", task.path).Int("project_id", task.projectID).Msg("would rebuild")
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
		if outcome.status == progress.StatusCompleted && outcome.table != nil {
			caseTables = append(caseTables, outcome.table)
		}
	}

	if err := writeMerged(&cfg, extractor.Merge(caseTables...)); err != nil {
		return summary, err
	}

	if err := summary.WriteFile(filepath.Join(cfg.OutDir, SummaryName)); err != nil {
		log.Warn().Err(err).Msg("could not write batch summary")
	}

	log.Info().
		Int("completed", summary.CountByStatus(progress.StatusCompleted)).
		Int("missing", summary.CountByStatus(progress.StatusMissing)).
		Int("failed", summary.CountByStatus(progress.StatusFailed)).
		Msg("rebuild finished")
	return summary, nil
}

// FindCasePath resolves a mapped case name to a directory or archive under
// the data root: exact candidates first, then the first directory entry
// containing the name.
func FindCasePath(root, name string) (string, bool) {
	candidates := []string{
		filepath.Join(root, name),
		filepath.Join(root, name+".dir"),
		filepath.Join(root, name+".zip"),
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() || dcm.IsArchive(candidate) {
			return candidate, true
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if !strings.Contains(entry.Name(), name) {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if entry.IsDir() || dcm.IsArchive(path) {
			return path, true
		}
	}
	return "", false
}
