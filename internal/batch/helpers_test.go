package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// writeCaseFile drops a minimal DICOM file with the given patient fields
// into dir, creating dir first.
func writeCaseFile(t *testing.T, dir, name, patientName, patientID, studyDate string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("could not create case dir: %v", err)
	}

	elements := []*dicom.Element{
		mustElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
		mustElement(t, tag.PatientName, []string{patientName}),
		mustElement(t, tag.PatientID, []string{patientID}),
		mustElement(t, tag.StudyDate, []string{studyDate}),
	}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, dicom.Dataset{Elements: elements}); err != nil {
		t.Fatalf("could not encode DICOM: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("could not write %s: %v", name, err)
	}
}

func mustElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	t.Helper()
	elem, err := dicom.NewElement(tg, value)
	if err != nil {
		t.Fatalf("could not create element %v: %v", tg, err)
	}
	return elem
}
