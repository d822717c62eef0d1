package extractor

import (
	"encoding/json"
	"testing"
)

func TestCSVRowFixedOrder(t *testing.T) {
	rec := Record{
		ProjectID:         iptr(7),
		FileName:          "scan.dcm",
		PatientName:       "Doe^Jane",
		PatientID:         "P001",
		StudyDate:         "20210101",
		PatientBirthDate:  "19800101",
		PatientAge:        iptr(41),
		PatientSex:        "F",
		StudyInstanceUID:  "1.2.3",
		SeriesInstanceUID: "1.2.3.4",
		Modality:          "CT",
		Manufacturer:      "SIEMENS",
		Rows:              iptr(512),
		Columns:           iptr(512),
	}

	row := rec.csvRow()
	if len(row) != len(FixedColumns) {
		t.Fatalf("csvRow() has %d fields, want %d", len(row), len(FixedColumns))
	}

	want := []string{
		"7", "scan.dcm", "Doe^Jane", "P001", "20210101", "19800101",
		"41", "F", "1.2.3", "1.2.3.4", "CT", "SIEMENS", "512", "512", "", "",
	}
	for i, field := range want {
		if row[i] != field {
			t.Errorf("csvRow()[%d] (%s) = %q, want %q", i, FixedColumns[i], row[i], field)
		}
	}
}

func TestCSVRowNullRendering(t *testing.T) {
	var rec Record
	for i, field := range rec.csvRow() {
		if field != "" {
			t.Errorf("csvRow()[%d] (%s) = %q, want empty", i, FixedColumns[i], field)
		}
	}
}

func TestRecordFromRow(t *testing.T) {
	t.Run("full header", func(t *testing.T) {
		rec := recordFromRow(FixedColumns, []string{
			"3", "a.zip", "Doe^Jane", "P001", "20210101", "", "0", "F",
			"1.2.3", "1.2.3.4", "MR", "", "256", "256", "12", "2",
		})
		if rec.ProjectID == nil || *rec.ProjectID != 3 {
			t.Errorf("ProjectID = %v, want 3", rec.ProjectID)
		}
		if rec.PatientAge == nil || *rec.PatientAge != 0 {
			t.Errorf("PatientAge = %v, want 0", rec.PatientAge)
		}
		if rec.ImageCount == nil || *rec.ImageCount != 12 {
			t.Errorf("ImageCount = %v, want 12", rec.ImageCount)
		}
		if rec.SeriesCount == nil || *rec.SeriesCount != 2 {
			t.Errorf("SeriesCount = %v, want 2", rec.SeriesCount)
		}
		if rec.Manufacturer != "" {
			t.Errorf("Manufacturer = %q, want empty", rec.Manufacturer)
		}
	})

	t.Run("unknown columns dropped, missing null", func(t *testing.T) {
		rec := recordFromRow(
			[]string{"Bogus", "FileName", "PatientName"},
			[]string{"zzz", "scan.dcm", "Doe^Jane"},
		)
		if rec.FileName != "scan.dcm" || rec.PatientName != "Doe^Jane" {
			t.Errorf("got FileName=%q PatientName=%q", rec.FileName, rec.PatientName)
		}
		if rec.ProjectID != nil || rec.Rows != nil {
			t.Errorf("missing columns should stay null, got ProjectID=%v Rows=%v", rec.ProjectID, rec.Rows)
		}
	})

	t.Run("float formatted integers", func(t *testing.T) {
		rec := recordFromRow([]string{"ProjectID", "Rows"}, []string{"5.0", "512.0"})
		if rec.ProjectID == nil || *rec.ProjectID != 5 {
			t.Errorf("ProjectID = %v, want 5", rec.ProjectID)
		}
		if rec.Rows == nil || *rec.Rows != 512 {
			t.Errorf("Rows = %v, want 512", rec.Rows)
		}
	})

	t.Run("short row tolerated", func(t *testing.T) {
		rec := recordFromRow(FixedColumns, []string{"1", "a.dcm"})
		if rec.ProjectID == nil || *rec.ProjectID != 1 || rec.FileName != "a.dcm" {
			t.Errorf("got ProjectID=%v FileName=%q", rec.ProjectID, rec.FileName)
		}
	})
}

func TestMergeFromFirstNonNullWins(t *testing.T) {
	agg := Record{FileName: "bundle.zip", PatientName: "Doe^Jane", PatientAge: iptr(0)}
	agg.mergeFrom(&Record{
		FileName:    "inner.dcm",
		PatientName: "Other^Name",
		PatientID:   "P002",
		PatientAge:  iptr(55),
		Rows:        iptr(128),
	})

	if agg.FileName != "bundle.zip" {
		t.Errorf("FileName = %q, want bundle.zip (never merged)", agg.FileName)
	}
	if agg.PatientName != "Doe^Jane" {
		t.Errorf("PatientName = %q, first value should win", agg.PatientName)
	}
	if agg.PatientAge == nil || *agg.PatientAge != 0 {
		t.Errorf("PatientAge = %v, want 0 (zero is present, not absent)", agg.PatientAge)
	}
	if agg.PatientID != "P002" {
		t.Errorf("PatientID = %q, want filled from other", agg.PatientID)
	}
	if agg.Rows == nil || *agg.Rows != 128 {
		t.Errorf("Rows = %v, want filled from other", agg.Rows)
	}
}

func TestRecordJSONNulls(t *testing.T) {
	rec := Record{FileName: "scan.dcm", PatientAge: iptr(0)}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["FileName"] != "scan.dcm" {
		t.Errorf("FileName = %v, want scan.dcm", decoded["FileName"])
	}
	if decoded["PatientName"] != nil {
		t.Errorf("PatientName = %v, want null", decoded["PatientName"])
	}
	if decoded["Rows"] != nil {
		t.Errorf("Rows = %v, want null", decoded["Rows"])
	}
	if age, ok := decoded["PatientAge"].(float64); !ok || age != 0 {
		t.Errorf("PatientAge = %v, want 0", decoded["PatientAge"])
	}
	if len(decoded) != len(FixedColumns) {
		t.Errorf("JSON has %d keys, want %d", len(decoded), len(FixedColumns))
	}
}
