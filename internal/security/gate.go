package security

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lhoang/mailbridge/internal/audit"
	"github.com/lhoang/mailbridge/internal/model"
)

// Gate sits in front of every mail operation. It applies the rate
// limit, the bulk and recipient policies, and the confirmation step,
// and records each attempt on the audit trail. Denials are recorded
// before they are returned; callers record the final outcome of
// admitted operations with Record once the bridge call completes.
type Gate struct {
	cfg       model.SecurityConfig
	limiter   *RateLimiter
	confirmer Confirmer
	trail     *audit.Log
	logger    zerolog.Logger
}

// NewGate builds a gate from the configured limits, a confirmation
// strategy and the audit trail.
func NewGate(cfg model.SecurityConfig, confirmer Confirmer, trail *audit.Log, logger zerolog.Logger) *Gate {
	return &Gate{
		cfg:       cfg,
		limiter:   NewRateLimiter(),
		confirmer: confirmer,
		trail:     trail,
		logger:    logger.With().Str("component", "security").Logger(),
	}
}

// Admit checks the operation's rate budget. A denial is recorded on
// the audit trail and returned as RateLimitedError.
func (g *Gate) Admit(operation string, params map[string]string) error {
	rule := g.cfg.RateFor(operation)
	window := time.Duration(rule.WindowSec) * time.Second

	if !g.limiter.Check(operation, window, rule.Max) {
		g.logger.Warn().Str("operation", operation).Msg("rate limit exceeded")
		g.trail.Append(operation, params, model.OutcomeDenied)
		return &RateLimitedError{Operation: operation, Window: window, Max: rule.Max}
	}
	return nil
}

// CheckBulk applies the bulk-size policy to a batch of count items.
func (g *Gate) CheckBulk(operation string, count int) error {
	if err := ValidateBulk(count, g.cfg.MaxBulkItems); err != nil {
		g.trail.Append(operation, map[string]string{"count": strconv.Itoa(count)}, model.OutcomeDenied)
		return err
	}
	return nil
}

// CheckSend applies the recipient policy to an outgoing message.
func (g *Gate) CheckSend(to, cc, bcc []string) error {
	if err := ValidateSend(to, cc, bcc, g.cfg.MaxRecipients); err != nil {
		g.trail.Append("send_email", nil, model.OutcomeDenied)
		return err
	}
	return nil
}

// CheckAttachment applies the type and size policies to one outgoing
// attachment.
func (g *Gate) CheckAttachment(path string, size, maxSize int64) error {
	if err := ValidateAttachmentType(path, g.cfg.AllowExecutables); err != nil {
		g.trail.Append("send_email", nil, model.OutcomeDenied)
		return err
	}
	if err := ValidateAttachmentSize(size, maxSize); err != nil {
		g.trail.Append("send_email", nil, model.OutcomeDenied)
		return err
	}
	return nil
}

// Confirm asks the user to approve a sensitive operation. A decline,
// timeout or prompt failure is recorded as cancelled and returned as
// ConfirmationDeniedError.
func (g *Gate) Confirm(ctx context.Context, operation string, details map[string]interface{}) error {
	summary := FormatSummary(operation, details)

	if !g.confirmer.Confirm(ctx, summary) {
		g.logger.Info().Str("operation", operation).Msg("confirmation declined")
		g.trail.Append(operation, nil, model.OutcomeCancelled)
		return &ConfirmationDeniedError{Operation: operation}
	}
	return nil
}

// Record appends the final outcome of an admitted operation.
func (g *Gate) Record(operation string, params map[string]string, outcome string) {
	g.trail.Append(operation, params, outcome)
}

// Reset clears rate-limit history for one operation, or all history
// when operation is empty.
func (g *Gate) Reset(operation string) {
	if operation == "" {
		g.limiter.ResetAll()
		return
	}
	g.limiter.Reset(operation)
}
