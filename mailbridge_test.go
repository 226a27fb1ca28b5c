package mailbridge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhoang/mailbridge/internal/bridge"
	"github.com/lhoang/mailbridge/internal/model"
	"github.com/lhoang/mailbridge/internal/security"
	"github.com/lhoang/mailbridge/tests/testutil"
)

func newTestService(t *testing.T, r *testutil.StubRunner, confirmer security.Confirmer) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Security.Rates = map[string]model.RateRule{
		"search_messages": {WindowSec: 60, Max: 2},
	}
	svc, err := NewWithRunner(cfg, r, confirmer, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestServiceSearchMessages(t *testing.T) {
	r := &testutil.StubRunner{
		Out: "msg-1|Hello|alice@example.com|Monday, January 5, 2026|false",
	}
	svc := newTestService(t, r, security.Approve)

	msgs, err := svc.SearchMessages(context.Background(), "Work", "INBOX", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "msg-1", msgs[0].ID)

	recs := svc.RecentOperations(0)
	require.Len(t, recs, 1)
	assert.Equal(t, "search_messages", recs[0].Operation)
	assert.Equal(t, model.OutcomeSuccess, recs[0].Outcome)
}

func TestServiceRateLimitDenies(t *testing.T) {
	r := &testutil.StubRunner{Out: ""}
	svc := newTestService(t, r, security.Approve)

	ctx := context.Background()
	_, err := svc.SearchMessages(ctx, "Work", "INBOX", SearchOptions{})
	require.NoError(t, err)
	_, err = svc.SearchMessages(ctx, "Work", "INBOX", SearchOptions{})
	require.NoError(t, err)

	_, err = svc.SearchMessages(ctx, "Work", "INBOX", SearchOptions{})
	require.Error(t, err)
	assert.True(t, security.IsRateLimited(err))
	assert.Equal(t, 2, r.Calls(), "denied call must not reach the interpreter")

	svc.ResetRateLimit("search_messages")
	_, err = svc.SearchMessages(ctx, "Work", "INBOX", SearchOptions{})
	assert.NoError(t, err)
}

func TestServiceSendDeniedWithoutConfirmation(t *testing.T) {
	r := &testutil.StubRunner{Out: "sent"}
	svc := newTestService(t, r, security.Deny)

	err := svc.SendEmail(context.Background(), "Hi", "Body", []string{"bob@example.com"}, nil, nil)
	require.Error(t, err)
	assert.True(t, security.IsDenied(err))
	assert.Zero(t, r.Calls())

	recs := svc.RecentOperations(0)
	require.Len(t, recs, 1)
	assert.Equal(t, model.OutcomeCancelled, recs[0].Outcome)
}

func TestServiceSendConfirmedAndRecorded(t *testing.T) {
	r := &testutil.StubRunner{Out: "sent"}
	svc := newTestService(t, r, security.Approve)

	err := svc.SendEmail(context.Background(), "Hi", "Body", []string{"bob@example.com"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Calls())

	recs := svc.RecentOperations(0)
	require.Len(t, recs, 1)
	assert.Equal(t, "send_email", recs[0].Operation)
	assert.Equal(t, model.OutcomeSuccess, recs[0].Outcome)
}

func TestServiceSendRejectsInvalidRecipients(t *testing.T) {
	r := &testutil.StubRunner{Out: "sent"}
	svc := newTestService(t, r, security.Approve)

	err := svc.SendEmail(context.Background(), "Hi", "Body", []string{"not-an-address"}, nil, nil)
	require.Error(t, err)
	assert.True(t, bridge.IsValidation(err))
	assert.Zero(t, r.Calls())
}

func TestServiceSendRejectsDangerousAttachment(t *testing.T) {
	r := &testutil.StubRunner{Out: "sent"}
	svc := newTestService(t, r, security.Approve)

	err := svc.SendEmailWithAttachments(
		context.Background(), "Hi", "Body",
		[]string{"bob@example.com"}, nil, nil,
		[]string{"/tmp/setup.exe"},
	)
	require.Error(t, err)
	assert.True(t, security.IsPolicy(err))
	assert.Zero(t, r.Calls())
}

func TestServiceDeleteConfirmsAndCounts(t *testing.T) {
	r := &testutil.StubRunner{Out: "2"}
	svc := newTestService(t, r, security.Approve)

	n, err := svc.DeleteMessages(context.Background(), []string{"m1", "m2"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDialogInterpreterHasNoOperationTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OsascriptPath = "/custom/osascript"

	ops := opsInterpreter(cfg, zerolog.Nop())
	assert.Equal(t, 30*time.Second, ops.Timeout)
	assert.Equal(t, "/custom/osascript", ops.Path)

	// The confirmation dialog waits on the confirmer's own bound; an
	// interpreter-level timeout here would end it early.
	dialog := dialogInterpreter(cfg, zerolog.Nop())
	assert.Zero(t, dialog.Timeout)
	assert.Equal(t, "/custom/osascript", dialog.Path)
}

func TestServiceValidationDoesNotConsumeBudget(t *testing.T) {
	r := &testutil.StubRunner{
		Out: "msg-1|Hello|alice@example.com|Monday, January 5, 2026|false|false|Body",
	}
	cfg := DefaultConfig()
	cfg.Security.Rates = map[string]model.RateRule{
		"get_message": {WindowSec: 60, Max: 1},
	}
	svc, err := NewWithRunner(cfg, r, security.Approve, zerolog.Nop())
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	_, err = svc.GetMessage(ctx, "../../../etc/passwd", true)
	require.Error(t, err)
	assert.True(t, bridge.IsValidation(err))
	assert.Zero(t, r.Calls())
	assert.Empty(t, svc.RecentOperations(0), "rejected input must not be recorded as a gated attempt")

	// The sole budget slot is still available.
	_, err = svc.GetMessage(ctx, "msg-1", true)
	assert.NoError(t, err)
}

func TestConfigRoundTripThroughDefaultHelpers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.TimeoutSec = 45
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 45, loaded.TimeoutSec)
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestServiceBulkLimitNeverReachesInterpreter(t *testing.T) {
	r := &testutil.StubRunner{Out: "0"}
	svc := newTestService(t, r, security.Approve)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = "m1"
	}
	_, err := svc.MarkRead(context.Background(), ids, true)
	require.Error(t, err)
	assert.True(t, security.IsPolicy(err))
	assert.Zero(t, r.Calls())
}
