package osa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterpreterPath is the fixed absolute path of the AppleScript
// interpreter. Using an absolute path keeps a poisoned PATH from
// substituting a different binary.
const DefaultInterpreterPath = "/usr/bin/osascript"

// Runner executes a rendered script and returns its trimmed stdout.
// Implementations must classify failures into *Error values.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// Exec runs scripts through the osascript binary. The script travels
// over stdin ("osascript -"), which sidesteps argv length limits and a
// second layer of shell quoting.
type Exec struct {
	// Path is the absolute interpreter path; empty means
	// DefaultInterpreterPath.
	Path string

	// Timeout bounds each invocation. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration

	Logger zerolog.Logger
}

// NewExec returns an Exec with the default interpreter path and the
// given timeout.
func NewExec(timeout time.Duration, logger zerolog.Logger) *Exec {
	return &Exec{
		Path:    DefaultInterpreterPath,
		Timeout: timeout,
		Logger:  logger,
	}
}

// Run executes the script and returns its trimmed stdout. Nonzero
// exits and timeouts come back as classified *Error values. A run
// that exits 0 but writes a recognizable failure pattern to stderr is
// also treated as a failure, since Mail surfaces some partial
// failures that way.
func (e *Exec) Run(ctx context.Context, script string) (string, error) {
	path := e.Path
	if path == "" {
		path = DefaultInterpreterPath
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, "-")
	cmd.Stdin = strings.NewReader(script)

	// Without a wait delay, Run blocks past the deadline whenever the
	// killed interpreter has forked a child that keeps the output
	// pipes open.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	e.Logger.Debug().
		Dur("elapsed", elapsed).
		Int("script_bytes", len(script)).
		Bool("failed", err != nil).
		Msg("osascript run")

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return "", &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("script timeout after %s", elapsed.Round(time.Millisecond)),
			Stderr:  stderr.String(),
		}
	}

	errText := stderr.String()

	if err != nil {
		e.Logger.Warn().Str("kind", string(Classify(errText))).Msg("osascript failed")
		return "", classified(errText)
	}

	// Exit 0 with a classifiable complaint on stderr is still a
	// failure; unrecognized stderr chatter on success is only logged.
	if errText != "" {
		if kind := Classify(errText); kind != KindScript {
			return "", classified(errText)
		}
		e.Logger.Debug().Msg("osascript succeeded with stderr output")
	}

	return strings.TrimSpace(stdout.String()), nil
}
