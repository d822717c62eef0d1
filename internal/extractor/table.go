package extractor

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chenqz-hub/DCM-information/internal/identity"
)

// Table is an ordered collection of records for one case or one merged
// run. Records are immutable once appended.
type Table struct {
	Records []Record
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Append adds one record.
func (t *Table) Append(r Record) {
	t.Records = append(t.Records, r)
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// WriteCSV writes the table with exactly the fixed columns in the fixed
// order, identifier first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FixedColumns); err != nil {
		return err
	}
	for i := range t.Records {
		if err := cw.Write(t.Records[i].csvRow()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table as CSV via a temp file and rename, so a
// killed writer never leaves a partial table behind.
func (t *Table) WriteFile(path string) error {
	return writeAtomic(path, t.WriteCSV)
}

// WriteJSON writes the table as a JSON array of records with null for
// absent fields.
func (t *Table) WriteJSON(path string) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Records)
	})
}

// ReadTableFile loads a CSV written by this tool. Heterogeneous headers
// are tolerated: unknown columns are dropped, missing columns stay null.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read table: %w", err)
	}

	table := NewTable()
	if len(rows) == 0 {
		return table, nil
	}
	header := rows[0]
	for _, row := range rows[1:] {
		table.Append(recordFromRow(header, row))
	}
	return table, nil
}

// Merge concatenates tables in input order into a new table.
func Merge(tables ...*Table) *Table {
	merged := NewTable()
	for _, t := range tables {
		if t == nil {
			continue
		}
		merged.Records = append(merged.Records, t.Records...)
	}
	return merged
}

// SortByProjectID orders records by identifier ascending with nulls last.
// The sort is stable, so rows sharing an identifier keep their input order.
func (t *Table) SortByProjectID() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		a, b := t.Records[i].ProjectID, t.Records[j].ProjectID
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// Desensitized returns a copy of the table with the patient-name column
// pseudonymized. Row count and order are preserved.
func (t *Table) Desensitized() *Table {
	out := NewTable()
	out.Records = make([]Record, len(t.Records))
	for i, r := range t.Records {
		r.PatientName = identity.DesensitizeName(r.PatientName)
		out.Records[i] = r
	}
	return out
}

// Dedupe returns a copy keeping the first row for each
// (ProjectID, FileName) pair.
func (t *Table) Dedupe() *Table {
	seen := make(map[string]bool)
	out := NewTable()
	for _, r := range t.Records {
		key := dupKey(&r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Append(r)
	}
	return out
}

// DuplicateGroup describes rows sharing a (ProjectID, FileName) pair.
type DuplicateGroup struct {
	ProjectID *int
	FileName  string
	Rows      []int // record indexes in first-seen order
}

// Duplicates returns the groups with more than one row, in first-seen
// order.
func (t *Table) Duplicates() []DuplicateGroup {
	index := make(map[string][]int)
	var order []string
	for i := range t.Records {
		key := dupKey(&t.Records[i])
		if _, ok := index[key]; !ok {
			order = append(order, key)
		}
		index[key] = append(index[key], i)
	}

	var groups []DuplicateGroup
	for _, key := range order {
		rows := index[key]
		if len(rows) < 2 {
			continue
		}
		first := t.Records[rows[0]]
		groups = append(groups, DuplicateGroup{
			ProjectID: first.ProjectID,
			FileName:  first.FileName,
			Rows:      rows,
		})
	}
	return groups
}

// String renders the table for terminal display.
func (t *Table) String() string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(FixedColumns, "\t"))
	for i := range t.Records {
		fmt.Fprintln(tw, strings.Join(t.Records[i].csvRow(), "\t"))
	}
	tw.Flush()
	return buf.String()
}

func dupKey(r *Record) string {
	if r.ProjectID == nil {
		return "|" + r.FileName
	}
	return strconv.Itoa(*r.ProjectID) + "|" + r.FileName
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return fmt.Errorf("could not create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
