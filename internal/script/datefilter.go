package script

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	relativeDateRe = regexp.MustCompile(`^(\d+)\s+(day|week|month|year)s?\s+ago`)
	isoDateRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// DateExpr translates a human date phrase into an AppleScript date
// expression. "7 days ago" and "last week" become arithmetic on
// (current date); an ISO YYYY-MM-DD literal becomes a quoted date
// literal. Anything else is passed through as a quoted date literal
// and left for the interpreter to reject.
func DateExpr(s string) string {
	if m := relativeDateRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
		return fmt.Sprintf("(current date) - (%s * %ss)", m[1], m[2])
	}

	if lower := strings.ToLower(s); strings.HasPrefix(lower, "last ") {
		unit := strings.TrimSpace(s[5:])
		unit = strings.TrimSuffix(unit, "s") + "s"
		return fmt.Sprintf("(current date) - (1 * %s)", unit)
	}

	if isoDateRe.MatchString(s) {
		return fmt.Sprintf("date %s", Quote(s))
	}

	return fmt.Sprintf("date %s", Quote(s))
}
