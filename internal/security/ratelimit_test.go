package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newClockedLimiter(start time.Time) (*RateLimiter, *time.Time) {
	now := start
	r := NewRateLimiter()
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRateLimiterAdmitsUpToMax(t *testing.T) {
	r, _ := newClockedLimiter(time.Now())

	for i := 0; i < 3; i++ {
		assert.True(t, r.Check("search_messages", time.Minute, 3))
	}
	assert.False(t, r.Check("search_messages", time.Minute, 3))
}

func TestRateLimiterReadmitsAfterWindow(t *testing.T) {
	r, now := newClockedLimiter(time.Now())

	assert.True(t, r.Check("send_email", time.Minute, 1))
	assert.False(t, r.Check("send_email", time.Minute, 1))

	*now = now.Add(61 * time.Second)
	assert.True(t, r.Check("send_email", time.Minute, 1))
}

func TestRateLimiterOperationsIndependent(t *testing.T) {
	r, _ := newClockedLimiter(time.Now())

	assert.True(t, r.Check("send_email", time.Minute, 1))
	assert.False(t, r.Check("send_email", time.Minute, 1))
	assert.True(t, r.Check("delete_messages", time.Minute, 1))
}

func TestRateLimiterDenialRecordsNothing(t *testing.T) {
	r, now := newClockedLimiter(time.Now())

	assert.True(t, r.Check("move_messages", time.Minute, 1))
	for i := 0; i < 5; i++ {
		assert.False(t, r.Check("move_messages", time.Minute, 1))
	}

	// Only the single admitted call should age out.
	*now = now.Add(61 * time.Second)
	assert.True(t, r.Check("move_messages", time.Minute, 1))
}

func TestRateLimiterReset(t *testing.T) {
	r, _ := newClockedLimiter(time.Now())

	assert.True(t, r.Check("send_email", time.Minute, 1))
	assert.True(t, r.Check("delete_messages", time.Minute, 1))

	r.Reset("send_email")
	assert.True(t, r.Check("send_email", time.Minute, 1))
	assert.False(t, r.Check("delete_messages", time.Minute, 1))

	r.ResetAll()
	assert.True(t, r.Check("delete_messages", time.Minute, 1))
}
