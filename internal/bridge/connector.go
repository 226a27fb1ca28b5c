// Package bridge is the high-level connector to Apple Mail: it
// composes script construction, interpreter execution, and output
// parsing into typed operations. Every method validates its inputs
// before a script is built and classifies interpreter failures into
// typed errors; no method retries.
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lhoang/mailbridge/internal/model"
	"github.com/lhoang/mailbridge/internal/osa"
	"github.com/lhoang/mailbridge/internal/script"
	"github.com/lhoang/mailbridge/internal/validate"
)

// SearchOptions holds the optional criteria for SearchMessages. Zero
// values mean "no filter"; ReadStatus distinguishes unset (nil) from
// false. Limit caps the result after parsing.
type SearchOptions struct {
	SenderContains  string
	SubjectContains string
	ReadStatus      *bool
	DateFrom        string
	Limit           int
}

// Connector translates typed mail operations into interpreter runs.
// Each call is synchronous: build, run, parse, in that order, bounded
// by the runner's timeout.
type Connector struct {
	runner osa.Runner
	logger zerolog.Logger
}

// New creates a Connector on top of the given script runner.
func New(runner osa.Runner, logger zerolog.Logger) *Connector {
	return &Connector{runner: runner, logger: logger}
}

// CheckAccount sanitizes an account name and rejects names that
// sanitize away to nothing.
func CheckAccount(account string) (string, error) {
	clean := validate.MailboxName(account)
	if clean == "" {
		return "", &ValidationError{Field: "account", Reason: "empty after sanitization"}
	}
	return clean, nil
}

// CheckMailbox does the same for mailbox names.
func CheckMailbox(mailbox string) (string, error) {
	clean := validate.MailboxName(mailbox)
	if clean == "" {
		return "", &ValidationError{Field: "mailbox", Reason: "empty after sanitization"}
	}
	return clean, nil
}

// CheckMessageIDs validates every id in a batch against the
// identifier grammar.
func CheckMessageIDs(ids []string) error {
	for _, id := range ids {
		if !validate.MessageID(id) {
			return &ValidationError{Field: "message_id", Reason: "must be alphanumeric with dash/underscore, at most 255 chars"}
		}
	}
	return nil
}

// ListAccounts returns the names of all configured accounts.
func (c *Connector) ListAccounts(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, script.ListAccounts())
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return script.ParseList(out), nil
}

// ListMailboxes returns the mailboxes of one account, or of every
// account when account is empty.
func (c *Connector) ListMailboxes(ctx context.Context, account string) ([]model.Mailbox, error) {
	clean := ""
	if account != "" {
		var err error
		if clean, err = CheckAccount(account); err != nil {
			return nil, err
		}
	}
	out, err := c.runner.Run(ctx, script.ListMailboxes(clean))
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}
	return parseMailboxes(out), nil
}

// SearchMessages searches a mailbox and returns matching messages in
// interpreter order. The result cap in opts.Limit is applied after
// parsing, first N kept.
func (c *Connector) SearchMessages(
	ctx context.Context, account, mailbox string, opts SearchOptions,
) ([]model.MailMessage, error) {
	cleanAccount, err := CheckAccount(account)
	if err != nil {
		return nil, err
	}
	cleanMailbox, err := CheckMailbox(mailbox)
	if err != nil {
		return nil, err
	}

	filters := script.SearchFilters{
		SenderContains:  validate.Input(opts.SenderContains),
		SubjectContains: validate.Input(opts.SubjectContains),
		ReadStatus:      opts.ReadStatus,
		DateFrom:        validate.Input(opts.DateFrom),
	}

	out, err := c.runner.Run(ctx, script.Search(cleanAccount, cleanMailbox, filters))
	if err != nil {
		return nil, fmt.Errorf("searching %s/%s: %w", cleanAccount, cleanMailbox, err)
	}

	msgs := capMessages(parseMessages(out), opts.Limit)
	c.logger.Debug().Int("results", len(msgs)).Msg("search complete")
	return msgs, nil
}

// GetMessage fetches one message by id. Content is populated only
// when includeContent is set.
func (c *Connector) GetMessage(
	ctx context.Context, id string, includeContent bool,
) (*model.MailMessage, error) {
	if err := CheckMessageIDs([]string{id}); err != nil {
		return nil, err
	}
	out, err := c.runner.Run(ctx, script.GetMessage(id, includeContent))
	if err != nil {
		return nil, fmt.Errorf("fetching message: %w", err)
	}
	msg, err := parseDetail(out)
	if err != nil {
		return nil, fmt.Errorf("fetching message: %w", err)
	}
	return msg, nil
}

// CheckRecipients validates every address of a send call, reporting
// all invalid addresses together.
func CheckRecipients(to, cc, bcc []string) error {
	if len(to) == 0 {
		return &ValidationError{Field: "to", Reason: "at least one recipient is required"}
	}
	var invalid []string
	for _, addr := range append(append(append([]string{}, to...), cc...), bcc...) {
		if !validate.Email(addr) {
			invalid = append(invalid, addr)
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{
			Field:  "recipients",
			Reason: "invalid email addresses: " + strings.Join(invalid, ", "),
		}
	}
	return nil
}

// SendEmail composes and sends a message.
func (c *Connector) SendEmail(
	ctx context.Context, subject, body string, to, cc, bcc []string,
) error {
	if err := CheckRecipients(to, cc, bcc); err != nil {
		return err
	}
	s := script.Send(validate.Input(subject), validate.Input(body), to, cc, bcc)
	if _, err := c.runner.Run(ctx, s); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	c.logger.Info().Int("recipients", len(to)+len(cc)+len(bcc)).Msg("email sent")
	return nil
}

// SendEmailWithAttachments composes and sends a message with file
// attachments. Every path must exist and be within maxSize bytes
// (zero disables the size check); both checks fail before any script
// is built.
func (c *Connector) SendEmailWithAttachments(
	ctx context.Context,
	subject, body string,
	to, cc, bcc []string,
	paths []string,
	maxSize int64,
) error {
	if err := CheckRecipients(to, cc, bcc); err != nil {
		return err
	}
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", validate.Filename(p), err)
		}
		if maxSize > 0 && info.Size() > maxSize {
			return &ValidationError{
				Field:  "attachments",
				Reason: fmt.Sprintf("%s exceeds the %d byte limit", validate.Filename(p), maxSize),
			}
		}
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", validate.Filename(p), err)
		}
		abs = append(abs, a)
	}

	s := script.SendWithAttachments(validate.Input(subject), validate.Input(body), to, cc, bcc, abs)
	if _, err := c.runner.Run(ctx, s); err != nil {
		return fmt.Errorf("sending email with attachments: %w", err)
	}
	c.logger.Info().Int("attachments", len(abs)).Msg("email with attachments sent")
	return nil
}

// MarkRead sets the read status of the given messages and returns how
// many were changed. An empty id list is a no-op.
func (c *Connector) MarkRead(ctx context.Context, ids []string, read bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	out, err := c.runner.Run(ctx, script.MarkRead(ids, read))
	if err != nil {
		return 0, fmt.Errorf("marking read status: %w", err)
	}
	return parseCount(out)
}

// SetFlagColor applies a flag color (or "none" to clear) to the given
// messages and returns how many were changed.
func (c *Connector) SetFlagColor(ctx context.Context, ids []string, color string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	idx, err := validate.FlagIndex(color)
	if err != nil {
		return 0, &ValidationError{Field: "flag_color", Reason: err.Error()}
	}
	out, err := c.runner.Run(ctx, script.SetFlag(ids, idx))
	if err != nil {
		return 0, fmt.Errorf("setting flag: %w", err)
	}
	return parseCount(out)
}

// DeleteMessages moves the given messages to the trash and returns
// how many were deleted.
func (c *Connector) DeleteMessages(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	out, err := c.runner.Run(ctx, script.Delete(ids))
	if err != nil {
		return 0, fmt.Errorf("deleting messages: %w", err)
	}
	return parseCount(out)
}

// MoveMessages moves the given messages to a mailbox of an account
// and returns how many were moved.
func (c *Connector) MoveMessages(
	ctx context.Context, ids []string, account, mailbox string,
) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	cleanAccount, err := CheckAccount(account)
	if err != nil {
		return 0, err
	}
	cleanMailbox, err := CheckMailbox(mailbox)
	if err != nil {
		return 0, err
	}
	out, err := c.runner.Run(ctx, script.Move(ids, cleanAccount, cleanMailbox))
	if err != nil {
		return 0, fmt.Errorf("moving messages: %w", err)
	}
	return parseCount(out)
}

// GetAttachments lists the attachments of a message in message order,
// so slice indices address attachments in save operations.
func (c *Connector) GetAttachments(ctx context.Context, id string) ([]model.Attachment, error) {
	if err := CheckMessageIDs([]string{id}); err != nil {
		return nil, err
	}
	out, err := c.runner.Run(ctx, script.ListAttachments(id))
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	return parseAttachments(out), nil
}

// SaveAttachments persists attachments of a message into dir: the
// listed 0-based indices, or all of them when indices is empty.
// Returns the number of files written. dir must already exist and
// must not contain traversal segments.
func (c *Connector) SaveAttachments(
	ctx context.Context, id, dir string, indices []int,
) (int, error) {
	if err := CheckMessageIDs([]string{id}); err != nil {
		return 0, err
	}
	if strings.Contains(dir, "..") {
		return 0, &ValidationError{Field: "save_directory", Reason: "path traversal not allowed"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("save directory: %w", err)
	}
	if !info.IsDir() {
		return 0, &ValidationError{Field: "save_directory", Reason: "not a directory"}
	}
	for _, n := range indices {
		if n < 0 {
			return 0, &ValidationError{Field: "attachment_indices", Reason: "negative index"}
		}
	}

	out, err := c.runner.Run(ctx, script.SaveAttachments(id, dir, indices))
	if err != nil {
		return 0, fmt.Errorf("saving attachments: %w", err)
	}
	return parseCount(out)
}

// UnreadCount returns the unread message count of an account, or of
// the unified inbox when account is empty.
func (c *Connector) UnreadCount(ctx context.Context, account string) (int, error) {
	clean := ""
	if account != "" {
		var err error
		if clean, err = CheckAccount(account); err != nil {
			return 0, err
		}
	}
	out, err := c.runner.Run(ctx, script.UnreadCount(clean))
	if err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return parseCount(out)
}

// ReplyToMessage sends a reply to one message, to the sender only or
// to all original recipients.
func (c *Connector) ReplyToMessage(
	ctx context.Context, id, body string, replyAll bool,
) error {
	if err := CheckMessageIDs([]string{id}); err != nil {
		return err
	}
	s := script.Reply(id, validate.Input(body), replyAll)
	if _, err := c.runner.Run(ctx, s); err != nil {
		return fmt.Errorf("replying to message: %w", err)
	}
	c.logger.Info().Bool("reply_all", replyAll).Msg("reply sent")
	return nil
}
