package dicom

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DicomExtensions are common DICOM file extensions
var DicomExtensions = map[string]bool{
	".dcm":   true,
	".dicom": true,
	".ima":   true,
}

// ArchiveExtensions are compressed containers routed to archive aggregation
// rather than read as single files.
var ArchiveExtensions = map[string]bool{
	".zip": true,
	".tar": true,
	".gz":  true,
	".tgz": true,
	".bz2": true,
	".rar": true,
	".7z":  true,
	".xz":  true,
}

// ExcludedNames are filenames to skip quietly
var ExcludedNames = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
	".gitignore":  true,
}

// ExcludedExtensions are file extensions to skip quietly
var ExcludedExtensions = map[string]bool{
	".csv":  true,
	".json": true,
	".txt":  true,
	".md":   true,
	".log":  true,
	".xml":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".exe":  true,
	".dll":  true,
	".bat":  true,
	".sh":   true,
	".py":   true,
	".ini":  true,
}

// ExcludedDirs are directory names to skip entirely
var ExcludedDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	"__MACOSX":    true,
	".idea":       true,
	".vscode":     true,
}

// IsArchive reports whether the path looks like a compressed container.
func IsArchive(path string) bool {
	return ArchiveExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsExcluded reports whether the file should be skipped without an attempt
// to decode it.
func IsExcluded(path string) bool {
	name := filepath.Base(path)
	if ExcludedNames[name] {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return ExcludedExtensions[strings.ToLower(filepath.Ext(path))]
}

// HasDicomExtension reports whether the path carries a recognized DICOM
// extension.
func HasDicomExtension(path string) bool {
	return DicomExtensions[strings.ToLower(filepath.Ext(path))]
}

// HasMagicBytes checks for the DICOM magic bytes ("DICM" at offset 128).
func HasMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	n, err := io.ReadFull(file, header)
	if err != nil || n < 132 {
		return false
	}

	return string(header[128:132]) == "DICM"
}
