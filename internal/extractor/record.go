package extractor

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FixedColumns is the authoritative output column order. Every table this
// package writes has exactly these columns, identifier first.
var FixedColumns = []string{
	"ProjectID",
	"FileName",
	"PatientName",
	"PatientID",
	"StudyDate",
	"PatientBirthDate",
	"PatientAge",
	"PatientSex",
	"StudyInstanceUID",
	"SeriesInstanceUID",
	"Modality",
	"Manufacturer",
	"Rows",
	"Columns",
	"ImageCount",
	"SeriesCount",
}

// Record is one output row. Nil integer fields and empty string fields
// both render as null; 0 is a valid age.
type Record struct {
	ProjectID         *int
	FileName          string
	PatientName       string
	PatientID         string
	StudyDate         string
	PatientBirthDate  string
	PatientAge        *int
	PatientSex        string
	StudyInstanceUID  string
	SeriesInstanceUID string
	Modality          string
	Manufacturer      string
	Rows              *int
	Columns           *int
	ImageCount        *int
	SeriesCount       *int
}

// csvRow renders the record in the fixed column order.
func (r *Record) csvRow() []string {
	return []string{
		formatInt(r.ProjectID),
		r.FileName,
		r.PatientName,
		r.PatientID,
		r.StudyDate,
		r.PatientBirthDate,
		formatInt(r.PatientAge),
		r.PatientSex,
		r.StudyInstanceUID,
		r.SeriesInstanceUID,
		r.Modality,
		r.Manufacturer,
		formatInt(r.Rows),
		formatInt(r.Columns),
		formatInt(r.ImageCount),
		formatInt(r.SeriesCount),
	}
}

// recordFromRow rebuilds a record from a CSV row under the given header.
// Unknown columns are dropped, missing columns stay null.
func recordFromRow(header, row []string) Record {
	var r Record
	for i, column := range header {
		if i >= len(row) {
			break
		}
		value := row[i]
		switch column {
		case "ProjectID":
			r.ProjectID = parseInt(value)
		case "FileName":
			r.FileName = value
		case "PatientName":
			r.PatientName = value
		case "PatientID":
			r.PatientID = value
		case "StudyDate":
			r.StudyDate = value
		case "PatientBirthDate":
			r.PatientBirthDate = value
		case "PatientAge":
			r.PatientAge = parseInt(value)
		case "PatientSex":
			r.PatientSex = value
		case "StudyInstanceUID":
			r.StudyInstanceUID = value
		case "SeriesInstanceUID":
			r.SeriesInstanceUID = value
		case "Modality":
			r.Modality = value
		case "Manufacturer":
			r.Manufacturer = value
		case "Rows":
			r.Rows = parseInt(value)
		case "Columns":
			r.Columns = parseInt(value)
		case "ImageCount":
			r.ImageCount = parseInt(value)
		case "SeriesCount":
			r.SeriesCount = parseInt(value)
		}
	}
	return r
}

// mergeFrom fills null fields from other; the first non-null value seen
// wins. FileName and ProjectID are never merged: the aggregate keeps its
// own name and the scanner stamps the identifier.
func (r *Record) mergeFrom(other *Record) {
	if r.PatientName == "" {
		r.PatientName = other.PatientName
	}
	if r.PatientID == "" {
		r.PatientID = other.PatientID
	}
	if r.StudyDate == "" {
		r.StudyDate = other.StudyDate
	}
	if r.PatientBirthDate == "" {
		r.PatientBirthDate = other.PatientBirthDate
	}
	if r.PatientAge == nil {
		r.PatientAge = other.PatientAge
	}
	if r.PatientSex == "" {
		r.PatientSex = other.PatientSex
	}
	if r.StudyInstanceUID == "" {
		r.StudyInstanceUID = other.StudyInstanceUID
	}
	if r.SeriesInstanceUID == "" {
		r.SeriesInstanceUID = other.SeriesInstanceUID
	}
	if r.Modality == "" {
		r.Modality = other.Modality
	}
	if r.Manufacturer == "" {
		r.Manufacturer = other.Manufacturer
	}
	if r.Rows == nil {
		r.Rows = other.Rows
	}
	if r.Columns == nil {
		r.Columns = other.Columns
	}
}

// MarshalJSON renders null for absent fields, both integer and string.
func (r Record) MarshalJSON() ([]byte, error) {
	type jsonRecord struct {
		ProjectID         *int    `json:"ProjectID"`
		FileName          *string `json:"FileName"`
		PatientName       *string `json:"PatientName"`
		PatientID         *string `json:"PatientID"`
		StudyDate         *string `json:"StudyDate"`
		PatientBirthDate  *string `json:"PatientBirthDate"`
		PatientAge        *int    `json:"PatientAge"`
		PatientSex        *string `json:"PatientSex"`
		StudyInstanceUID  *string `json:"StudyInstanceUID"`
		SeriesInstanceUID *string `json:"SeriesInstanceUID"`
		Modality          *string `json:"Modality"`
		Manufacturer      *string `json:"Manufacturer"`
		Rows              *int    `json:"Rows"`
		Columns           *int    `json:"Columns"`
		ImageCount        *int    `json:"ImageCount"`
		SeriesCount       *int    `json:"SeriesCount"`
	}
	return json.Marshal(jsonRecord{
		ProjectID:         r.ProjectID,
		FileName:          nullable(r.FileName),
		PatientName:       nullable(r.PatientName),
		PatientID:         nullable(r.PatientID),
		StudyDate:         nullable(r.StudyDate),
		PatientBirthDate:  nullable(r.PatientBirthDate),
		PatientAge:        r.PatientAge,
		PatientSex:        nullable(r.PatientSex),
		StudyInstanceUID:  nullable(r.StudyInstanceUID),
		SeriesInstanceUID: nullable(r.SeriesInstanceUID),
		Modality:          nullable(r.Modality),
		Manufacturer:      nullable(r.Manufacturer),
		Rows:              r.Rows,
		Columns:           r.Columns,
		ImageCount:        r.ImageCount,
		SeriesCount:       r.SeriesCount,
	})
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// parseInt tolerates float-formatted integers found in older exports.
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
