// Package osa executes AppleScript through the system interpreter and
// classifies its failures into a closed set of typed errors.
package osa

import (
	"errors"
	"strings"

	"github.com/lhoang/mailbridge/internal/validate"
)

// Kind identifies one classified failure mode of an interpreter run.
type Kind string

const (
	KindAccountNotFound Kind = "account_not_found"
	KindMailboxNotFound Kind = "mailbox_not_found"
	KindMessageNotFound Kind = "message_not_found"
	KindTimeout         Kind = "timeout"

	// KindScript is the catch-all for any other nonzero exit or
	// unclassified interpreter complaint.
	KindScript Kind = "script_error"
)

// Error is a classified interpreter failure. Stderr keeps the raw
// diagnostic text; Error() redacts it, so the raw form never reaches
// an end user through the error chain.
type Error struct {
	Kind    Kind
	Message string

	// Stderr is the interpreter's raw standard error output.
	Stderr string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Stderr
	}
	return string(e.Kind) + ": " + validate.RedactError(msg)
}

// Classify maps interpreter stderr text to an error kind. Exit codes
// are not reliably distinct per failure type, so classification is
// purely pattern-based on the "Can't get ..." complaints Mail's
// scripting interface emits.
func Classify(stderr string) Kind {
	switch {
	case strings.Contains(stderr, "Can't get account"):
		return KindAccountNotFound
	case strings.Contains(stderr, "Can't get mailbox"):
		return KindMailboxNotFound
	case strings.Contains(stderr, "Can't get message"):
		return KindMessageNotFound
	default:
		return KindScript
	}
}

// classified builds the typed error for a failed run.
func classified(stderr string) *Error {
	return &Error{
		Kind:   Classify(stderr),
		Stderr: stderr,
	}
}

// IsKind reports whether err (or any error in its chain) is an
// interpreter Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err is any of the not-found kinds.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindAccountNotFound, KindMailboxNotFound, KindMessageNotFound:
		return true
	}
	return false
}

// IsTimeout reports whether err is a classified timeout.
func IsTimeout(err error) bool {
	return IsKind(err, KindTimeout)
}
