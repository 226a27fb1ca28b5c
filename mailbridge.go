// Package mailbridge automates the Apple Mail desktop client. It
// generates AppleScript, executes it through osascript, and parses
// the interpreter's output into typed records. Every operation passes
// a security gate first: per-operation rate limits, bulk and
// recipient policies, and an interactive confirmation step for
// destructive calls, with each attempt recorded on an audit trail.
package mailbridge

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lhoang/mailbridge/internal/attachment"
	"github.com/lhoang/mailbridge/internal/audit"
	"github.com/lhoang/mailbridge/internal/bridge"
	"github.com/lhoang/mailbridge/internal/model"
	"github.com/lhoang/mailbridge/internal/osa"
	"github.com/lhoang/mailbridge/internal/security"
	"github.com/lhoang/mailbridge/internal/validate"
)

// Re-exported record and option types.
type (
	Config          = model.Config
	MailMessage     = model.MailMessage
	Attachment      = model.Attachment
	Mailbox         = model.Mailbox
	OperationRecord = model.OperationRecord
	SearchOptions   = bridge.SearchOptions
	ExtractResult   = attachment.Result
)

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config { return model.DefaultConfig() }

// LoadConfig reads configuration from a YAML file; an empty path uses
// the default location and a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = model.DefaultConfigPath()
	}
	return model.LoadConfig(path)
}

// SaveConfig writes the configuration to a YAML file, to the default
// location when path is empty.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		path = model.DefaultConfigPath()
	}
	return model.SaveConfig(path, cfg)
}

// Service is the gated mail bridge: validation, then the security
// gate, then script execution. Construct one at startup and share it;
// its rate limiter and audit trail are safe for concurrent use.
type Service struct {
	cfg      *model.Config
	conn     *bridge.Connector
	gate     *security.Gate
	pipeline *attachment.Pipeline
	trail    *audit.Log
	store    *audit.Store
	logger   zerolog.Logger
}

// New builds a service that talks to the real interpreter and asks
// for confirmation through a modal dialog.
func New(cfg *model.Config, logger zerolog.Logger) (*Service, error) {
	confirmer := &security.DialogConfirmer{Runner: dialogInterpreter(cfg, logger)}
	return NewWithRunner(cfg, opsInterpreter(cfg, logger), confirmer, logger)
}

// opsInterpreter is the runner for mail operations, bounded by the
// configured operation timeout.
func opsInterpreter(cfg *model.Config, logger zerolog.Logger) *osa.Exec {
	r := osa.NewExec(time.Duration(cfg.TimeoutSec)*time.Second, logger)
	r.Path = cfg.OsascriptPath
	return r
}

// dialogInterpreter is the runner for the confirmation dialog. It
// carries no interpreter-level timeout: the confirmer's own context
// bounds the wait, and the much shorter operation timeout would end
// the dialog while the user is still deciding.
func dialogInterpreter(cfg *model.Config, logger zerolog.Logger) *osa.Exec {
	r := osa.NewExec(0, logger)
	r.Path = cfg.OsascriptPath
	return r
}

// NewWithRunner builds a service over an explicit runner and
// confirmation strategy. Non-interactive callers pass
// security.Approve or security.Deny instead of the dialog.
func NewWithRunner(
	cfg *model.Config, runner osa.Runner, confirmer security.Confirmer, logger zerolog.Logger,
) (*Service, error) {
	var store *audit.Store
	if cfg.AuditDBPath != "" {
		var err error
		if store, err = audit.NewStore(cfg.AuditDBPath); err != nil {
			return nil, err
		}
	}

	trail := audit.NewLog(cfg.AuditRingSize, store, logger)
	conn := bridge.New(runner, logger)

	return &Service{
		cfg:      cfg,
		conn:     conn,
		gate:     security.NewGate(cfg.Security, confirmer, trail, logger),
		pipeline: attachment.NewPipeline(conn, cfg.Attachment, logger),
		trail:    trail,
		store:    store,
		logger:   logger.With().Str("component", "mailbridge").Logger(),
	}, nil
}

// Close releases the audit store, if one is open.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// RecentOperations returns the newest n audit records, oldest first.
func (s *Service) RecentOperations(n int) []OperationRecord {
	return s.trail.Recent(n)
}

// record logs the final outcome of an admitted operation.
func (s *Service) record(op string, params map[string]string, err error) {
	outcome := model.OutcomeSuccess
	if err != nil {
		outcome = model.OutcomeFailure
	}
	s.gate.Record(op, params, outcome)
}

// ListAccounts returns the configured mail account names.
func (s *Service) ListAccounts(ctx context.Context) ([]string, error) {
	if err := s.gate.Admit("list_accounts", nil); err != nil {
		return nil, err
	}
	accounts, err := s.conn.ListAccounts(ctx)
	s.record("list_accounts", nil, err)
	return accounts, err
}

// ListMailboxes returns the mailboxes of one account.
func (s *Service) ListMailboxes(ctx context.Context, account string) ([]Mailbox, error) {
	if account != "" {
		if _, err := bridge.CheckAccount(account); err != nil {
			return nil, err
		}
	}
	params := map[string]string{"account": account}
	if err := s.gate.Admit("list_mailboxes", params); err != nil {
		return nil, err
	}
	boxes, err := s.conn.ListMailboxes(ctx, account)
	s.record("list_mailboxes", params, err)
	return boxes, err
}

// SearchMessages searches a mailbox with the given filters.
func (s *Service) SearchMessages(
	ctx context.Context, account, mailbox string, opts SearchOptions,
) ([]MailMessage, error) {
	if _, err := bridge.CheckAccount(account); err != nil {
		return nil, err
	}
	if _, err := bridge.CheckMailbox(mailbox); err != nil {
		return nil, err
	}
	params := map[string]string{"account": account, "mailbox": mailbox}
	if err := s.gate.Admit("search_messages", params); err != nil {
		return nil, err
	}
	msgs, err := s.conn.SearchMessages(ctx, account, mailbox, opts)
	s.record("search_messages", params, err)
	return msgs, err
}

// GetMessage fetches one message, optionally with its body content.
func (s *Service) GetMessage(ctx context.Context, id string, includeContent bool) (*MailMessage, error) {
	if err := bridge.CheckMessageIDs([]string{id}); err != nil {
		return nil, err
	}
	params := map[string]string{"id": id}
	if err := s.gate.Admit("get_message", params); err != nil {
		return nil, err
	}
	msg, err := s.conn.GetMessage(ctx, id, includeContent)
	s.record("get_message", params, err)
	return msg, err
}

// UnreadCount returns the unread count for an account, or for the
// unified inbox when account is empty.
func (s *Service) UnreadCount(ctx context.Context, account string) (int, error) {
	if account != "" {
		if _, err := bridge.CheckAccount(account); err != nil {
			return 0, err
		}
	}
	if err := s.gate.Admit("unread_count", nil); err != nil {
		return 0, err
	}
	n, err := s.conn.UnreadCount(ctx, account)
	s.record("unread_count", nil, err)
	return n, err
}

// SendEmail sends a message after recipient policy checks and user
// confirmation.
func (s *Service) SendEmail(
	ctx context.Context, subject, body string, to, cc, bcc []string,
) error {
	return s.sendEmail(ctx, subject, body, to, cc, bcc, nil)
}

// SendEmailWithAttachments sends a message with file attachments.
// Attachment type and size policies apply in addition to the
// recipient checks.
func (s *Service) SendEmailWithAttachments(
	ctx context.Context, subject, body string, to, cc, bcc []string, paths []string,
) error {
	return s.sendEmail(ctx, subject, body, to, cc, bcc, paths)
}

func (s *Service) sendEmail(
	ctx context.Context, subject, body string, to, cc, bcc, paths []string,
) error {
	if err := bridge.CheckRecipients(to, cc, bcc); err != nil {
		return err
	}
	params := map[string]string{
		"subject":    subject,
		"recipients": strconv.Itoa(len(to) + len(cc) + len(bcc)),
	}
	if err := s.gate.Admit("send_email", params); err != nil {
		return err
	}
	if err := s.gate.CheckSend(to, cc, bcc); err != nil {
		return err
	}
	for _, p := range paths {
		if err := s.gate.CheckAttachment(p, 0, 0); err != nil {
			return err
		}
	}

	details := map[string]interface{}{"to": to, "subject": subject}
	if len(paths) > 0 {
		details["attachments"] = paths
	}
	if err := s.gate.Confirm(ctx, "send_email", details); err != nil {
		return err
	}

	var err error
	if len(paths) > 0 {
		err = s.conn.SendEmailWithAttachments(ctx, subject, body, to, cc, bcc, paths, s.cfg.Attachment.MaxSize)
	} else {
		err = s.conn.SendEmail(ctx, subject, body, to, cc, bcc)
	}
	s.record("send_email", params, err)
	return err
}

// ReplyToMessage replies to one message, to the sender only or to all
// original recipients.
func (s *Service) ReplyToMessage(ctx context.Context, id, body string, replyAll bool) error {
	if err := bridge.CheckMessageIDs([]string{id}); err != nil {
		return err
	}
	params := map[string]string{"id": id}
	if err := s.gate.Admit("reply_to_message", params); err != nil {
		return err
	}
	if err := s.gate.Confirm(ctx, "reply_to_message", map[string]interface{}{"id": id}); err != nil {
		return err
	}
	err := s.conn.ReplyToMessage(ctx, id, body, replyAll)
	s.record("reply_to_message", params, err)
	return err
}

// MarkRead sets the read status of a batch of messages.
func (s *Service) MarkRead(ctx context.Context, ids []string, read bool) (int, error) {
	if err := bridge.CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	params := map[string]string{"count": strconv.Itoa(len(ids))}
	if err := s.gate.Admit("mark_read", params); err != nil {
		return 0, err
	}
	if err := s.gate.CheckBulk("mark_read", len(ids)); err != nil {
		return 0, err
	}
	n, err := s.conn.MarkRead(ctx, ids, read)
	s.record("mark_read", params, err)
	return n, err
}

// SetFlagColor sets the flag color of a batch of messages.
func (s *Service) SetFlagColor(ctx context.Context, ids []string, color string) (int, error) {
	if err := bridge.CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	if _, err := validate.FlagIndex(color); err != nil {
		return 0, err
	}
	params := map[string]string{"count": strconv.Itoa(len(ids)), "color": color}
	if err := s.gate.Admit("set_flag", params); err != nil {
		return 0, err
	}
	if err := s.gate.CheckBulk("set_flag", len(ids)); err != nil {
		return 0, err
	}
	n, err := s.conn.SetFlagColor(ctx, ids, color)
	s.record("set_flag", params, err)
	return n, err
}

// DeleteMessages deletes a batch of messages after user confirmation.
func (s *Service) DeleteMessages(ctx context.Context, ids []string) (int, error) {
	if err := bridge.CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	params := map[string]string{"count": strconv.Itoa(len(ids))}
	if err := s.gate.Admit("delete_messages", params); err != nil {
		return 0, err
	}
	if err := s.gate.CheckBulk("delete_messages", len(ids)); err != nil {
		return 0, err
	}
	if err := s.gate.Confirm(ctx, "delete_messages", map[string]interface{}{"ids": ids}); err != nil {
		return 0, err
	}
	n, err := s.conn.DeleteMessages(ctx, ids)
	s.record("delete_messages", params, err)
	return n, err
}

// MoveMessages moves a batch of messages to another mailbox after
// user confirmation.
func (s *Service) MoveMessages(
	ctx context.Context, ids []string, targetAccount, targetMailbox string,
) (int, error) {
	if err := bridge.CheckMessageIDs(ids); err != nil {
		return 0, err
	}
	if _, err := bridge.CheckAccount(targetAccount); err != nil {
		return 0, err
	}
	if _, err := bridge.CheckMailbox(targetMailbox); err != nil {
		return 0, err
	}
	params := map[string]string{
		"count":   strconv.Itoa(len(ids)),
		"account": targetAccount,
		"mailbox": targetMailbox,
	}
	if err := s.gate.Admit("move_messages", params); err != nil {
		return 0, err
	}
	if err := s.gate.CheckBulk("move_messages", len(ids)); err != nil {
		return 0, err
	}
	details := map[string]interface{}{"ids": ids, "to": targetAccount + "/" + targetMailbox}
	if err := s.gate.Confirm(ctx, "move_messages", details); err != nil {
		return 0, err
	}
	n, err := s.conn.MoveMessages(ctx, ids, targetAccount, targetMailbox)
	s.record("move_messages", params, err)
	return n, err
}

// GetAttachments lists the attachments of one message.
func (s *Service) GetAttachments(ctx context.Context, id string) ([]Attachment, error) {
	if err := bridge.CheckMessageIDs([]string{id}); err != nil {
		return nil, err
	}
	params := map[string]string{"id": id}
	if err := s.gate.Admit("list_attachments", params); err != nil {
		return nil, err
	}
	atts, err := s.conn.GetAttachments(ctx, id)
	s.record("list_attachments", params, err)
	return atts, err
}

// SaveAttachments writes attachments of a message into dir, the
// listed 0-based indices or all when indices is empty.
func (s *Service) SaveAttachments(
	ctx context.Context, id, dir string, indices []int,
) (int, error) {
	if err := bridge.CheckMessageIDs([]string{id}); err != nil {
		return 0, err
	}
	params := map[string]string{"id": id, "dir": dir}
	if err := s.gate.Admit("save_attachments", params); err != nil {
		return 0, err
	}
	n, err := s.conn.SaveAttachments(ctx, id, dir, indices)
	s.record("save_attachments", params, err)
	return n, err
}

// ExtractAttachmentText saves the index-th attachment of a message
// into a scoped temporary directory and returns its extracted text.
func (s *Service) ExtractAttachmentText(
	ctx context.Context, id string, index int,
) (ExtractResult, error) {
	if err := bridge.CheckMessageIDs([]string{id}); err != nil {
		return ExtractResult{}, err
	}
	params := map[string]string{"id": id, "index": strconv.Itoa(index)}
	if err := s.gate.Admit("extract_attachment", params); err != nil {
		return ExtractResult{}, err
	}
	res, err := s.pipeline.ExtractText(ctx, id, index)
	s.record("extract_attachment", params, err)
	return res, err
}

// ResetRateLimit clears rate-limit history for one operation, or all
// history when operation is empty.
func (s *Service) ResetRateLimit(operation string) {
	s.gate.Reset(operation)
}
