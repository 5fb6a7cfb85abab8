package constants

import "strings"

// File formats accepted by the text extractor.
const (
	PDF = "PDF"
	TXT = "TXT"
)

// FileTypes holds the formats the pipeline knows how to turn into text.
var FileTypes = []string{PDF, TXT}

// AllowedExtensions holds the file extensions accepted for upload and inbox discovery.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps an extension (with or without dot, any case) to a file format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "txt":
		return TXT
	default:
		return ""
	}
}
