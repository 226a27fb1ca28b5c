// Package script renders operation parameters into AppleScript text.
// Every string embedded in a quoted script literal goes through
// Escape, so no parameter value can alter the script's control
// structure. Builders assume identifiers and mailbox names were
// already validated; escaping is still applied to every embedded
// string as a second layer.
package script

import "strings"

// Escape makes s safe for insertion inside a quoted AppleScript
// string literal. The transform order is load-bearing: backslashes
// must be doubled before any step that introduces new backslashes.
//
// Steps: drop NUL bytes, drop control characters below 0x20 except
// tab/LF/CR, double backslashes, escape double quotes, then rewrite
// CR, LF and tab as literal \r, \n, \t.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// Quote escapes s and wraps it in double quotes.
func Quote(s string) string {
	return `"` + Escape(s) + `"`
}

// FormatList renders items as an AppleScript list of quoted, escaped
// strings: {"a", "b"}. An empty slice renders as {}.
func FormatList(items []string) string {
	if len(items) == 0 {
		return "{}"
	}
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = Quote(item)
	}
	return "{" + strings.Join(quoted, ", ") + "}"
}

// FormatIDList renders pre-validated message identifiers as a bare
// (unquoted) AppleScript list, since Mail message ids are numeric
// values. The identifier grammar guarantees the items cannot carry
// script syntax.
func FormatIDList(ids []string) string {
	return "{" + strings.Join(ids, ", ") + "}"
}

// ParseList decodes a brace-delimited, comma-separated interpreter
// list into its items. "{}" and the empty string decode to nil.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "{}" {
		return nil
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
