package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCountByStatus(t *testing.T) {
	s := NewSummary("run-1")
	s.Record(CaseResult{Name: "Case_A", Status: StatusCompleted})
	s.Record(CaseResult{Name: "Case_B", Status: StatusCompleted})
	s.Record(CaseResult{Name: "Case_C", Status: StatusFailed})
	s.Record(CaseResult{Name: "Case_D", Status: StatusTimedOut})

	if got := s.CountByStatus(StatusCompleted); got != 2 {
		t.Errorf("CountByStatus(completed) = %d, want 2", got)
	}
	if got := s.CountByStatus(StatusFailed); got != 1 {
		t.Errorf("CountByStatus(failed) = %d, want 1", got)
	}
	if got := s.CountByStatus(StatusMissing); got != 0 {
		t.Errorf("CountByStatus(missing) = %d, want 0", got)
	}
}

func TestNamesByStatusSorted(t *testing.T) {
	s := NewSummary("run-1")
	s.Record(CaseResult{Name: "zulu", Status: StatusFailed})
	s.Record(CaseResult{Name: "alpha", Status: StatusFailed})
	s.Record(CaseResult{Name: "mike", Status: StatusCompleted})

	got := s.NamesByStatus(StatusFailed)
	want := []string{"alpha", "zulu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NamesByStatus(failed) = %v, want %v", got, want)
	}
}

func TestWriteFile(t *testing.T) {
	s := NewSummary("run-42")
	s.Record(CaseResult{Name: "Case_A", ProjectID: 1, Status: StatusCompleted, Rows: 3, Elapsed: 0.5})
	s.Record(CaseResult{Name: "Case_B", ProjectID: 2, Status: StatusFailed, Error: "boom"})

	path := filepath.Join(t.TempDir(), "batch_summary.json")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read summary: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not parse summary: %v", err)
	}

	if decoded.RunID != "run-42" {
		t.Errorf("run_id = %q, want run-42", decoded.RunID)
	}
	if len(decoded.Cases) != 2 {
		t.Fatalf("summary has %d cases, want 2", len(decoded.Cases))
	}
	if decoded.Cases[0].Name != "Case_A" || decoded.Cases[0].Rows != 3 {
		t.Errorf("Cases[0] = %+v, want Case_A with 3 rows", decoded.Cases[0])
	}
	if decoded.Cases[1].Error != "boom" {
		t.Errorf("Cases[1].Error = %q, want boom", decoded.Cases[1].Error)
	}
	if decoded.Counts.Completed != 1 || decoded.Counts.Failed != 1 || decoded.Counts.Total != 2 {
		t.Errorf("counts = %+v, want 1 completed, 1 failed, 2 total", decoded.Counts)
	}
	if decoded.Started == "" {
		t.Error("started timestamp should be set")
	}
}
