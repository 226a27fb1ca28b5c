package validate

import "regexp"

var (
	unixPathRe = regexp.MustCompile(`[~/]?[\w/-]+/[\w/.-]+`)
	winPathRe  = regexp.MustCompile(`[A-Za-z]:\\[\w\\.-]+`)
	idTokenRe  = regexp.MustCompile(`\b[A-Za-z0-9]{10,}\b`)
	digitRe    = regexp.MustCompile(`\d`)
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// RedactError strips information that must not leak through error
// messages: filesystem-path-shaped substrings become [PATH],
// alphanumeric tokens of 10+ chars containing a digit become [ID],
// and email-address-shaped substrings become [EMAIL]. The digit
// requirement keeps the ID rule from eating ordinary long words, but
// it can still over-match words fused with numbers; that imprecision
// is accepted. Substitution order ensures no pattern re-matches an
// already-inserted placeholder.
func RedactError(msg string) string {
	msg = unixPathRe.ReplaceAllString(msg, "[PATH]")
	msg = winPathRe.ReplaceAllString(msg, "[PATH]")
	msg = idTokenRe.ReplaceAllStringFunc(msg, func(tok string) string {
		if digitRe.MatchString(tok) {
			return "[ID]"
		}
		return tok
	})
	msg = emailRe.ReplaceAllString(msg, "[EMAIL]")
	return msg
}
