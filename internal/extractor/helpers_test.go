package extractor

import (
	"archive/zip"
	"bytes"
	"os"
	"sort"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustElement(t *testing.T, tg tag.Tag, value interface{}) *dicom.Element {
	t.Helper()
	elem, err := dicom.NewElement(tg, value)
	if err != nil {
		t.Fatalf("could not create element %v: %v", tg, err)
	}
	return elem
}

// dicomBytes encodes a minimal DICOM file in memory.
func dicomBytes(t *testing.T, elements ...*dicom.Element) []byte {
	t.Helper()
	all := []*dicom.Element{
		mustElement(t, tag.TransferSyntaxUID, []string{"1.2.840.10008.1.2.1"}),
	}
	all = append(all, elements...)

	var buf bytes.Buffer
	if err := dicom.Write(&buf, dicom.Dataset{Elements: all}); err != nil {
		t.Fatalf("could not encode DICOM: %v", err)
	}
	return buf.Bytes()
}

func writeDicomFile(t *testing.T, path string, elements ...*dicom.Element) {
	t.Helper()
	if err := os.WriteFile(path, dicomBytes(t, elements...), 0o644); err != nil {
		t.Fatalf("could not write %s: %v", path, err)
	}
}

// writeZip creates a zip archive with the given entries, names sorted for
// a stable layout.
func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create %s: %v", path, err)
	}
	defer f.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("could not add %s: %v", name, err)
		}
		if _, err := w.Write(entries[name]); err != nil {
			t.Fatalf("could not write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("could not close zip: %v", err)
	}
}

func iptr(n int) *int {
	return &n
}
