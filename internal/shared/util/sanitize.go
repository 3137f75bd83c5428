package util

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameBytes = 255

// SanitizeFileName removes path separators and control characters and rejects
// traversal patterns. The result is safe as a single path segment.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	for len(s) > maxFileNameBytes {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s, nil
}
