package osa

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shRunner returns an Exec pointed at /bin/sh, which also reads its
// program from stdin when invoked as "sh -". That lets these tests
// exercise the real subprocess path without the macOS interpreter.
func shRunner(t *testing.T, timeout time.Duration) *Exec {
	t.Helper()
	return &Exec{
		Path:    "/bin/sh",
		Timeout: timeout,
		Logger:  zerolog.Nop(),
	}
}

func TestExec_Run_Success(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	out, err := r.Run(context.Background(), "echo result")
	require.NoError(t, err)
	assert.Equal(t, "result", out)
}

func TestExec_Run_TrimsOutput(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	out, err := r.Run(context.Background(), `printf '  spaced  \n'`)
	require.NoError(t, err)
	assert.Equal(t, "spaced", out)
}

func TestExec_Run_ClassifiesAccountNotFound(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	_, err := r.Run(context.Background(),
		`echo 'Cant get account "X"' | sed "s/Cant/Can't/" >&2; exit 1`)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAccountNotFound), "got %v", err)
}

func TestExec_Run_GenericFailure(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	_, err := r.Run(context.Background(), "echo boom >&2; exit 1")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindScript))
}

func TestExec_Run_ZeroExitWithClassifiableStderr(t *testing.T) {
	// Mail surfaces some partial failures on stderr even with exit 0.
	r := shRunner(t, 5*time.Second)
	_, err := r.Run(context.Background(),
		`echo 'Cant get message 123' | sed "s/Cant/Can't/" >&2; exit 0`)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMessageNotFound))
}

func TestExec_Run_ZeroExitWithHarmlessStderr(t *testing.T) {
	r := shRunner(t, 5*time.Second)
	out, err := r.Run(context.Background(), "echo warning >&2; echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestExec_Run_Timeout(t *testing.T) {
	r := shRunner(t, 100*time.Millisecond)
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep 5")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.Contains(t, err.Error(), "timeout")
	assert.Less(t, time.Since(start), 3*time.Second, "process was not terminated")
}

func TestExec_Run_TimeoutWithForkedChild(t *testing.T) {
	r := shRunner(t, 100*time.Millisecond)
	start := time.Now()
	// The backgrounded sleep inherits the output pipes and outlives
	// the killed shell.
	_, err := r.Run(context.Background(), "sleep 5 & wait")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.Less(t, time.Since(start), 3*time.Second, "run must not wait for the orphaned child")
}

func TestExec_Run_CallerContextGovernsWithoutTimeout(t *testing.T) {
	r := shRunner(t, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sleep 5")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.Less(t, time.Since(start), 3*time.Second)
}
