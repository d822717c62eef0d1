package extractor

import (
	"path/filepath"

	"github.com/suyashkumar/dicom/pkg/tag"

	dcm "github.com/chenqz-hub/DCM-information/internal/dicom"
)

// ReadFileRecord extracts the fixed metadata fields from one DICOM file.
// Fields absent from the file stay null; a decode failure is returned as
// an error for the caller to log and count.
func ReadFileRecord(path string) (*Record, error) {
	ds, err := dcm.ReadMetadataOnly(path)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		FileName:          filepath.Base(path),
		PatientName:       ds.GetString(tag.PatientName),
		PatientID:         ds.GetString(tag.PatientID),
		StudyDate:         ds.GetString(tag.StudyDate),
		PatientBirthDate:  ds.GetString(tag.PatientBirthDate),
		PatientSex:        ds.GetString(tag.PatientSex),
		StudyInstanceUID:  ds.GetString(tag.StudyInstanceUID),
		SeriesInstanceUID: ds.GetString(tag.SeriesInstanceUID),
		Modality:          ds.GetString(tag.Modality),
		Manufacturer:      ds.GetString(tag.Manufacturer),
		Rows:              ds.GetInt(tag.Rows),
		Columns:           ds.GetInt(tag.Columns),
	}
	rec.PatientAge = NormalizeAge(ds.GetString(tag.PatientAge), rec.PatientBirthDate, rec.StudyDate)

	return rec, nil
}
