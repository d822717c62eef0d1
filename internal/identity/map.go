package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Map assigns stable positive integer project identifiers to case names,
// persisted as a human-readable JSON document. Identifiers are never
// reused or reassigned once persisted.
type Map struct {
	path  string
	cases map[string]int
}

// Load reads the map at path, starting empty when the file is missing or
// unreadable.
func Load(path string) *Map {
	m := &Map{path: path, cases: make(map[string]int)}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, &m.cases); err != nil {
		m.cases = make(map[string]int)
	}
	return m
}

// LoadStrict reads the map at path, failing when the file is missing or
// malformed. Rebuild mode requires an existing map.
func LoadStrict(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read identity map: %w", err)
	}
	cases := make(map[string]int)
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("could not parse identity map: %w", err)
	}
	return &Map{path: path, cases: cases}, nil
}

// GetOrCreate returns the identifier for caseName, assigning the next
// integer above the current maximum (starting at 1) on first sight.
func (m *Map) GetOrCreate(caseName string) int {
	if id, ok := m.cases[caseName]; ok {
		return id
	}
	next := 1
	for _, id := range m.cases {
		if id >= next {
			next = id + 1
		}
	}
	m.cases[caseName] = next
	return next
}

// Get returns the identifier for caseName, if assigned.
func (m *Map) Get(caseName string) (int, bool) {
	id, ok := m.cases[caseName]
	return id, ok
}

// Len returns the number of assigned cases.
func (m *Map) Len() int {
	return len(m.cases)
}

// ByID returns the identifier-to-case inversion, for rebuild iteration.
func (m *Map) ByID() map[int]string {
	out := make(map[int]string, len(m.cases))
	for name, id := range m.cases {
		out[id] = name
	}
	return out
}

// Save persists the map atomically (write temp, rename).
func (m *Map) Save() error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create map directory: %w", err)
	}

	data, err := json.MarshalIndent(m.cases, "", "  ")
	if err != nil {
		return fmt.Errorf("could not serialize identity map: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".idmap-")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write identity map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("could not move identity map into place: %w", err)
	}
	return nil
}
