// Package testutil holds shared test doubles for the bridge packages.
package testutil

import (
	"context"
	"sync"
)

// StubRunner is an osa.Runner double returning a canned payload and
// recording every script it was asked to run.
type StubRunner struct {
	mu sync.Mutex

	// Out is returned as stdout for every call.
	Out string

	// Err, when set, is returned instead of Out.
	Err error

	// RunFunc, when set, overrides Out/Err entirely.
	RunFunc func(ctx context.Context, script string) (string, error)

	scripts []string
}

// Run implements osa.Runner.
func (r *StubRunner) Run(ctx context.Context, script string) (string, error) {
	r.mu.Lock()
	r.scripts = append(r.scripts, script)
	r.mu.Unlock()

	if r.RunFunc != nil {
		return r.RunFunc(ctx, script)
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Out, nil
}

// Calls reports how many scripts have been run.
func (r *StubRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scripts)
}

// LastScript returns the most recently run script, or "" when none
// ran.
func (r *StubRunner) LastScript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scripts) == 0 {
		return ""
	}
	return r.scripts[len(r.scripts)-1]
}
