package constants

import "strings"

// RosterFormats holds the allowed file formats for roster imports.
var RosterFormats = []string{"XLSX"}

// AllowedRosterExtensions holds the default allowed file extensions for
// roster ingestion.
var AllowedRosterExtensions = map[string]struct{}{
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
