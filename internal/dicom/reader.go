package dicom

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Dataset wraps a parsed DICOM dataset for tag access
type Dataset struct {
	Data     dicom.Dataset
	FilePath string
}

// ReadMetadataOnly parses a DICOM file without loading bulk pixel data.
func ReadMetadataOnly(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := parseMetadata(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &Dataset{
		Data:     ds,
		FilePath: path,
	}, nil
}

// parseMetadata surfaces parser panics on malformed input as errors.
func parseMetadata(file *os.File, size int64) (ds dicom.Dataset, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("parser panic: %v", recovered)
		}
	}()
	return dicom.Parse(file, size, nil, dicom.SkipPixelData())
}

// GetString returns a string value for a tag, or empty string if not found.
func (d *Dataset) GetString(t tag.Tag) string {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		return ""
	}

	if elem.Value == nil {
		return ""
	}

	value := elem.Value.GetValue()
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	case string:
		return v
	}

	return fmt.Sprintf("%v", value)
}

// GetInt returns an integer value for a tag, or nil if not found.
// Handles both binary integer VRs (US, UL) and numeric strings (IS).
func (d *Dataset) GetInt(t tag.Tag) *int {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil {
		return nil
	}

	if elem.Value == nil {
		return nil
	}

	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			n := v[0]
			return &n
		}
	case int:
		n := v
		return &n
	case []string:
		if len(v) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(v[0])); err == nil {
				return &n
			}
		}
	}

	return nil
}
