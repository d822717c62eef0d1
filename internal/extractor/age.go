package extractor

import (
	"strconv"
	"strings"
	"time"
)

const dicomDateLayout = "20060102"

// NormalizeAge derives an integer age from the raw PatientAge tag value
// ("043Y", bare digits), falling back to birth/study date arithmetic when
// the raw value carries no digits. Returns nil when neither source yields
// an age.
func NormalizeAge(raw, birthDate, studyDate string) *int {
	if digits := digitsOnly(raw); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			return &n
		}
	}
	return ageFromDates(birthDate, studyDate)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ageFromDates computes whole years elapsed between two 8-digit DICOM
// dates, one less when the study's month/day precedes the birthday.
func ageFromDates(birthDate, studyDate string) *int {
	birth, err := time.Parse(dicomDateLayout, strings.TrimSpace(birthDate))
	if err != nil {
		return nil
	}
	study, err := time.Parse(dicomDateLayout, strings.TrimSpace(studyDate))
	if err != nil {
		return nil
	}

	years := study.Year() - birth.Year()
	if study.Month() < birth.Month() ||
		(study.Month() == birth.Month() && study.Day() < birth.Day()) {
		years--
	}
	return &years
}
