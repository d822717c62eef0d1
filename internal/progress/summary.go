package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Status represents a case's position in the batch state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimedOut  Status = "timed_out"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusMissing   Status = "missing"
)

// CaseResult is the final outcome of one case.
type CaseResult struct {
	Name      string  `json:"name"`
	ProjectID int     `json:"project_id"`
	Status    Status  `json:"status"`
	Rows      int     `json:"rows"`
	Error     string  `json:"error,omitempty"`
	Elapsed   float64 `json:"elapsed_seconds"`
}

// Summary collects per-case outcomes for one batch run.
type Summary struct {
	RunID   string       `json:"run_id"`
	Started string       `json:"started"`
	Elapsed float64      `json:"elapsed_seconds"`
	Cases   []CaseResult `json:"cases"`
	Counts  struct {
		Completed int `json:"completed"`
		Skipped   int `json:"skipped"`
		Failed    int `json:"failed"`
		TimedOut  int `json:"timed_out"`
		Missing   int `json:"missing"`
		Total     int `json:"total"`
	} `json:"counts"`

	started time.Time
}

// NewSummary starts an empty summary for one run.
func NewSummary(runID string) *Summary {
	now := time.Now()
	return &Summary{
		RunID:   runID,
		Started: now.Format(time.RFC3339),
		started: now,
	}
}

// Record appends one case outcome.
func (s *Summary) Record(result CaseResult) {
	s.Cases = append(s.Cases, result)
}

// CountByStatus returns the number of cases with the given final status.
func (s *Summary) CountByStatus(status Status) int {
	count := 0
	for _, c := range s.Cases {
		if c.Status == status {
			count++
		}
	}
	return count
}

// NamesByStatus returns the sorted case names with the given final status.
func (s *Summary) NamesByStatus(status Status) []string {
	var names []string
	for _, c := range s.Cases {
		if c.Status == status {
			names = append(names, c.Name)
		}
	}
	sort.Strings(names)
	return names
}

// TotalElapsed returns the wall time since the run started.
func (s *Summary) TotalElapsed() time.Duration {
	return time.Since(s.started)
}

// WriteFile persists the summary as indented JSON, refreshing the elapsed
// time and the aggregate counts first.
func (s *Summary) WriteFile(path string) error {
	s.Elapsed = time.Since(s.started).Seconds()
	s.Counts.Completed = s.CountByStatus(StatusCompleted)
	s.Counts.Skipped = s.CountByStatus(StatusSkipped)
	s.Counts.Failed = s.CountByStatus(StatusFailed)
	s.Counts.TimedOut = s.CountByStatus(StatusTimedOut)
	s.Counts.Missing = s.CountByStatus(StatusMissing)
	s.Counts.Total = len(s.Cases)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write summary: %w", err)
	}
	return nil
}
