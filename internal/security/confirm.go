package security

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lhoang/mailbridge/internal/osa"
	"github.com/lhoang/mailbridge/internal/script"
)

// DefaultConfirmTimeout bounds how long a confirmation prompt stays
// open before it is treated as a denial.
const DefaultConfirmTimeout = 5 * time.Minute

const (
	maxDetailItems  = 5
	maxDetailLength = 100
)

// Confirmer decides whether a sensitive operation may proceed.
// Implementations must treat any presentation failure as a denial.
type Confirmer interface {
	Confirm(ctx context.Context, summary string) bool
}

// DialogConfirmer asks the user through a modal dialog. The dialog
// defaults to Cancel; approval requires a clean exit whose output
// contains the Confirm button name.
type DialogConfirmer struct {
	Runner  osa.Runner
	Timeout time.Duration
}

// Confirm presents the dialog and reports the user's choice. Timeouts
// and dialog errors both read as denial.
func (d *DialogConfirmer) Confirm(ctx context.Context, summary string) bool {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := d.Runner.Run(ctx, script.ConfirmDialog(summary))
	if err != nil {
		return false
	}
	return strings.Contains(out, "Confirm")
}

// StaticConfirmer returns a fixed answer without any prompt. It exists
// for non-interactive callers and tests.
type StaticConfirmer bool

// Confirm returns the fixed answer.
func (s StaticConfirmer) Confirm(context.Context, string) bool {
	return bool(s)
}

// Approve and Deny are the two static confirmation strategies.
var (
	Approve = StaticConfirmer(true)
	Deny    = StaticConfirmer(false)
)

// FormatSummary renders an operation and its details as the dialog
// text. Detail keys are sorted for a stable layout, long values are
// shortened, and long lists are cut to the first few entries.
func FormatSummary(operation string, details map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Confirm %s?", operation)

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, formatDetail(details[k]))
	}
	return b.String()
}

func formatDetail(v interface{}) string {
	switch val := v.(type) {
	case []string:
		if len(val) > maxDetailItems {
			shown := strings.Join(val[:maxDetailItems], ", ")
			return fmt.Sprintf("%s (and %d more)", shown, len(val)-maxDetailItems)
		}
		return strings.Join(val, ", ")
	case string:
		if len(val) > maxDetailLength {
			return val[:maxDetailLength] + "..."
		}
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
