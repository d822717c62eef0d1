package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetOrCreateAssignsAboveMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte(`{"Case_A": 1, "Case_B": 2}`), 0o644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}

	m := Load(path)
	if got := m.GetOrCreate("Case_C"); got != 3 {
		t.Errorf("GetOrCreate(Case_C) = %d, want 3", got)
	}
	if got := m.GetOrCreate("Case_A"); got != 1 {
		t.Errorf("GetOrCreate(Case_A) = %d, want the existing 1", got)
	}
	if got := m.GetOrCreate("Case_C"); got != 3 {
		t.Errorf("GetOrCreate(Case_C) again = %d, want the stable 3", got)
	}
}

func TestGetOrCreateStartsAtOne(t *testing.T) {
	m := Load(filepath.Join(t.TempDir(), "map.json"))
	if got := m.GetOrCreate("first"); got != 1 {
		t.Errorf("GetOrCreate(first) = %d, want 1", got)
	}
	if got := m.GetOrCreate("second"); got != 2 {
		t.Errorf("GetOrCreate(second) = %d, want 2", got)
	}
}

func TestGetOrCreateSkipsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte(`{"old": 10}`), 0o644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}

	m := Load(path)
	if got := m.GetOrCreate("new"); got != 11 {
		t.Errorf("GetOrCreate(new) = %d, want 11 (gaps below the max are never refilled)", got)
	}
}

func TestLoadTolerant(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		m := Load(filepath.Join(t.TempDir(), "absent.json"))
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "map.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("could not write fixture: %v", err)
		}
		m := Load(path)
		if m.Len() != 0 {
			t.Errorf("Len() = %d, want 0", m.Len())
		}
	})
}

func TestLoadStrict(t *testing.T) {
	if _, err := LoadStrict(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadStrict() on a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "map.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	if _, err := LoadStrict(path); err == nil {
		t.Error("LoadStrict() on a malformed file should fail")
	}

	if err := os.WriteFile(path, []byte(`{"Case_A": 1}`), 0o644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	m, err := LoadStrict(path)
	if err != nil {
		t.Fatalf("LoadStrict() error = %v", err)
	}
	if id, ok := m.Get("Case_A"); !ok || id != 1 {
		t.Errorf("Get(Case_A) = (%d, %v), want (1, true)", id, ok)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "map.json")

	m := Load(path)
	m.GetOrCreate("Case_A")
	m.GetOrCreate("Case_B")
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded := Load(path)
	if id, ok := reloaded.Get("Case_A"); !ok || id != 1 {
		t.Errorf("reloaded Get(Case_A) = (%d, %v), want (1, true)", id, ok)
	}
	if id, ok := reloaded.Get("Case_B"); !ok || id != 2 {
		t.Errorf("reloaded Get(Case_B) = (%d, %v), want (2, true)", id, ok)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("could not list map directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "map.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("map directory contains %v, want only map.json", names)
	}
}

func TestByID(t *testing.T) {
	m := Load(filepath.Join(t.TempDir(), "map.json"))
	m.GetOrCreate("Case_A")
	m.GetOrCreate("Case_B")

	byID := m.ByID()
	if len(byID) != 2 {
		t.Fatalf("ByID() has %d entries, want 2", len(byID))
	}
	if byID[1] != "Case_A" || byID[2] != "Case_B" {
		t.Errorf("ByID() = %v, want {1:Case_A 2:Case_B}", byID)
	}
}
