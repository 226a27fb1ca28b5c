package security

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitedError reports that an operation exhausted its budget.
type RateLimitedError struct {
	Operation string
	Window    time.Duration
	Max       int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: max %d per %s", e.Operation, e.Max, e.Window)
}

// ConfirmationDeniedError reports that the user declined an operation,
// or that the confirmation prompt could not be presented.
type ConfirmationDeniedError struct {
	Operation string
}

func (e *ConfirmationDeniedError) Error() string {
	return fmt.Sprintf("operation %s not confirmed", e.Operation)
}

// PolicyError reports a parameter rejected by a gate policy before
// any script was built.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Reason
}

// IsRateLimited reports whether err is a rate-limit denial.
func IsRateLimited(err error) bool {
	var re *RateLimitedError
	return errors.As(err, &re)
}

// IsDenied reports whether err is a confirmation denial.
func IsDenied(err error) bool {
	var de *ConfirmationDeniedError
	return errors.As(err, &de)
}

// IsPolicy reports whether err is a policy rejection.
func IsPolicy(err error) bool {
	var pe *PolicyError
	return errors.As(err, &pe)
}
