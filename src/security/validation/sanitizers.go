package validation

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SanitizeFileName reduces a client-supplied file name to its base name
// and strips characters that could confuse logs or the filesystem.
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.ReplaceAll(base, "\\", "_")
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return StripUnprintable(base)
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}
