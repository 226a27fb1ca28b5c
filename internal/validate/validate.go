// Package validate holds the pure input validation and sanitization
// functions applied to every caller-supplied value before it is
// embedded in generated script text, used as a filesystem path, or
// shown to a user. All functions are total over their input and have
// no side effects.
package validate

import (
	"regexp"
	"strings"
)

const (
	maxEmailLength  = 254
	maxLocalLength  = 64
	maxDomainLength = 253
	maxIDLength     = 255
	maxInputLength  = 10000
)

var (
	localPartRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+$`)
	domainRe    = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)
	messageIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Email reports whether s is a well-formed address within RFC
// 5321/5322 bounds: local part 1-64 chars, domain up to 253 chars with
// valid labels, total length up to 254, exactly one @, no leading or
// trailing dot in the local part, no ".." anywhere.
func Email(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}
	if strings.Count(s, "@") != 1 {
		return false
	}

	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]

	if local == "" || len(local) > maxLocalLength {
		return false
	}
	if domain == "" || len(domain) > maxDomainLength {
		return false
	}
	if strings.Contains(s, "..") {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if !localPartRe.MatchString(local) {
		return false
	}
	return domainRe.MatchString(domain)
}

// MessageID reports whether s is safe to embed in a script as a
// message identifier: non-empty, at most 255 chars, alphanumeric plus
// dash and underscore. The explicit traversal checks are redundant
// with the character class but kept as defense in depth.
func MessageID(s string) bool {
	if s == "" || len(s) > maxIDLength {
		return false
	}
	if !messageIDRe.MatchString(s) {
		return false
	}
	if strings.Contains(s, "..") || strings.Contains(s, "/") || strings.Contains(s, "\\") {
		return false
	}
	return true
}

// FlagColor reports whether s names a valid flag color.
func FlagColor(s string) bool {
	_, ok := flagIndices[strings.ToLower(s)]
	return ok
}

// flagIndices maps color names to Apple Mail flag indices.
var flagIndices = map[string]int{
	"none":   -1,
	"orange": 0,
	"red":    1,
	"yellow": 2,
	"blue":   3,
	"green":  4,
	"purple": 5,
	"gray":   6,
}

// FlagIndex returns the Apple Mail flag index for a color name
// (-1 for "none" through 6 for "gray"). Unknown names are an error.
func FlagIndex(color string) (int, error) {
	idx, ok := flagIndices[strings.ToLower(color)]
	if !ok {
		return 0, &UnknownFlagColorError{Color: color}
	}
	return idx, nil
}

// UnknownFlagColorError reports a flag color outside the valid set.
type UnknownFlagColorError struct {
	Color string
}

func (e *UnknownFlagColorError) Error() string {
	return "invalid flag color: " + e.Color +
		" (valid colors: none, orange, red, yellow, blue, green, purple, gray)"
}

// Input stringifies and bounds arbitrary user input: NUL bytes are
// removed and the result is truncated to 10000 characters.
func Input(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if len(s) > maxInputLength {
		s = s[:maxInputLength]
	}
	return s
}
