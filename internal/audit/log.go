// Package audit records every security-relevant operation attempt,
// keeping a bounded in-memory trail and optionally persisting it to
// SQLite for inspection across sessions.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lhoang/mailbridge/internal/model"
)

// DefaultRingSize bounds the in-memory trail when no size is configured.
const DefaultRingSize = 1000

// Log is a bounded, append-only trail of operation records. When the
// ring is full the oldest record is dropped. An optional Store makes
// each record durable; store failures are logged and never surfaced
// to the caller, so auditing cannot block mail operations.
type Log struct {
	mu     sync.Mutex
	ring   []model.OperationRecord
	max    int
	store  *Store
	logger zerolog.Logger
}

// NewLog creates a trail holding at most max records. A nil store
// keeps the trail in memory only.
func NewLog(max int, store *Store, logger zerolog.Logger) *Log {
	if max <= 0 {
		max = DefaultRingSize
	}
	return &Log{
		ring:   make([]model.OperationRecord, 0, max),
		max:    max,
		store:  store,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Append records one operation attempt and returns the stored record.
func (l *Log) Append(operation string, params map[string]string, outcome string) model.OperationRecord {
	rec := model.OperationRecord{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Operation:  operation,
		Parameters: params,
		Outcome:    outcome,
	}

	l.mu.Lock()
	if len(l.ring) >= l.max {
		l.ring = l.ring[1:]
	}
	l.ring = append(l.ring, rec)
	l.mu.Unlock()

	l.logger.Info().
		Str("operation", operation).
		Str("outcome", outcome).
		Fields(map[string]interface{}{"params": params}).
		Msg("operation recorded")

	if l.store != nil {
		if err := l.store.Insert(rec); err != nil {
			l.logger.Warn().Err(err).Msg("failed to persist audit record")
		}
	}

	return rec
}

// Recent returns the newest n records, oldest first. n <= 0 or n
// larger than the trail returns everything held in memory.
func (l *Log) Recent(n int) []model.OperationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.ring) {
		n = len(l.ring)
	}
	out := make([]model.OperationRecord, n)
	copy(out, l.ring[len(l.ring)-n:])
	return out
}
