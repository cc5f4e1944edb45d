package utils

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxMessageLength bounds inquiry and reply bodies, in runes.
const MaxMessageLength = 5000

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
)

// SanitizeMessage trims the body and strips control characters other than
// newlines and tabs. The text is otherwise stored verbatim; escaping is the
// renderer's job.
func SanitizeMessage(input string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(cleaned) > MaxMessageLength {
		return "", ErrMessageTooLong
	}
	return cleaned, nil
}

// TruncateString safely truncates a string to max runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
