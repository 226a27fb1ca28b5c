package security

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhoang/mailbridge/internal/audit"
	"github.com/lhoang/mailbridge/internal/model"
)

func newTestGate(confirmer Confirmer) (*Gate, *audit.Log) {
	cfg := model.DefaultConfig().Security
	cfg.Rates = map[string]model.RateRule{
		"delete_messages": {WindowSec: 60, Max: 2},
	}
	trail := audit.NewLog(100, nil, zerolog.Nop())
	return NewGate(cfg, confirmer, trail, zerolog.Nop()), trail
}

func TestGateAdmitRecordsDenial(t *testing.T) {
	g, trail := newTestGate(Approve)

	require.NoError(t, g.Admit("delete_messages", nil))
	require.NoError(t, g.Admit("delete_messages", nil))

	err := g.Admit("delete_messages", map[string]string{"count": "1"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))

	recs := trail.Recent(0)
	require.Len(t, recs, 1)
	assert.Equal(t, "delete_messages", recs[0].Operation)
	assert.Equal(t, model.OutcomeDenied, recs[0].Outcome)
}

func TestGateAdmitFallsBackToDefaultRule(t *testing.T) {
	g, _ := newTestGate(Approve)

	// Default budget is 10 per minute.
	for i := 0; i < 10; i++ {
		require.NoError(t, g.Admit("search_messages", nil))
	}
	assert.True(t, IsRateLimited(g.Admit("search_messages", nil)))
}

func TestGateResetRestoresBudget(t *testing.T) {
	g, _ := newTestGate(Approve)

	require.NoError(t, g.Admit("delete_messages", nil))
	require.NoError(t, g.Admit("delete_messages", nil))
	require.Error(t, g.Admit("delete_messages", nil))

	g.Reset("delete_messages")
	assert.NoError(t, g.Admit("delete_messages", nil))
}

func TestGateConfirmDenied(t *testing.T) {
	g, trail := newTestGate(Deny)

	err := g.Confirm(context.Background(), "empty_trash", map[string]interface{}{"account": "Work"})
	require.Error(t, err)
	assert.True(t, IsDenied(err))

	recs := trail.Recent(0)
	require.Len(t, recs, 1)
	assert.Equal(t, model.OutcomeCancelled, recs[0].Outcome)
}

func TestGateConfirmApproved(t *testing.T) {
	g, trail := newTestGate(Approve)

	require.NoError(t, g.Confirm(context.Background(), "delete_messages", nil))
	assert.Empty(t, trail.Recent(0))
}

func TestGateCheckBulkRecordsDenial(t *testing.T) {
	g, trail := newTestGate(Approve)

	err := g.CheckBulk("mark_read", 101)
	require.Error(t, err)
	assert.True(t, IsPolicy(err))

	recs := trail.Recent(0)
	require.Len(t, recs, 1)
	assert.Equal(t, "101", recs[0].Parameters["count"])
}

func TestGateCheckSendAndAttachment(t *testing.T) {
	g, _ := newTestGate(Approve)

	assert.NoError(t, g.CheckSend([]string{"a@example.com"}, nil, nil))
	assert.Error(t, g.CheckSend(nil, nil, nil))

	assert.NoError(t, g.CheckAttachment("/tmp/doc.pdf", 100, 1024))
	assert.Error(t, g.CheckAttachment("/tmp/doc.exe", 100, 1024))
	assert.Error(t, g.CheckAttachment("/tmp/doc.pdf", 2048, 1024))
}
