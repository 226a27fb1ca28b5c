package model

import "time"

// FlagColor names accepted by the flag operations, in Apple Mail's
// flag-index order.
const (
	FlagNone   = "none"
	FlagOrange = "orange"
	FlagRed    = "red"
	FlagYellow = "yellow"
	FlagBlue   = "blue"
	FlagGreen  = "green"
	FlagPurple = "purple"
	FlagGray   = "gray"
)

// MailMessage is one message as reported by Apple Mail. It is an
// immutable value produced by parsing a single bridge output line; it
// has no lifecycle beyond the call that returned it.
type MailMessage struct {
	// ID is Apple Mail's opaque message identifier. It is validated
	// against the identifier grammar before it is ever embedded in a
	// script.
	ID string `json:"id"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Sender is the From header as rendered by Mail
	// ("Name <addr>" or a bare address).
	Sender string `json:"sender"`

	// DateReceived is Mail's date string, passed through unparsed.
	DateReceived string `json:"date_received"`

	// Read reports whether the message has been read.
	Read bool `json:"read_status"`

	// Flagged reports the flagged status. Only populated on detailed
	// fetches.
	Flagged bool `json:"flagged,omitempty"`

	// Content is the message body. Only populated when content was
	// explicitly requested.
	Content string `json:"content,omitempty"`
}

// Attachment describes one attachment of a message. Ordering matches
// the order Mail reports, so the slice index addresses the attachment
// in save operations.
type Attachment struct {
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	Downloaded bool   `json:"downloaded"`
}

// Mailbox is one mailbox of an account.
type Mailbox struct {
	Name    string `json:"name"`
	Account string `json:"account"`
}

// Outcome values recorded in the audit trail.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
	OutcomeDenied    = "denied"
)

// OperationRecord is one append-only audit trail entry. Records are
// never mutated after creation.
type OperationRecord struct {
	// ID is a unique identifier assigned when the record is appended.
	ID string `json:"id" db:"id"`

	// Timestamp is when the operation was attempted.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Operation is the operation name (e.g. "send_email").
	Operation string `json:"operation" db:"operation"`

	// Parameters holds the operation parameters, stringified.
	Parameters map[string]string `json:"parameters" db:"-"`

	// Outcome is one of the Outcome* constants.
	Outcome string `json:"result" db:"outcome"`
}
