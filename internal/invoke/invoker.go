// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package invoke runs external assistant CLI processes and captures their
// output. It is the only place in the codebase that spawns subprocesses.
package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/assistgate/assistgate/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetInvokerLogger()
		log = &l
	})
	return log
}

// ErrExecutableNotFound indicates the requested binary could not be resolved
// on PATH or started at all. This is a precondition failure, distinct from the
// tool itself failing at runtime.
var ErrExecutableNotFound = errors.New("executable not found")

// ExitStatusUnknown is reported when the process was killed before it could
// exit on its own (timeout) and no meaningful exit code exists.
const ExitStatusUnknown = -1

// pipeWaitDelay bounds how long Run waits for the output pipes to close after
// the process exits or the deadline fires. Assistant CLIs fork helper
// processes that inherit the pipe write ends; without this bound Wait blocks
// until the last descendant exits.
const pipeWaitDelay = time.Second

// Request describes a single process invocation. A Request is built fresh for
// every call and never reused.
type Request struct {
	Executable string
	Args       []string
	Stdin      string        // written to the process and closed; empty means no stdin
	WorkDir    string        // empty means inherit the server's working directory
	Timeout    time.Duration // must be positive
}

// Result carries everything captured from one finished invocation.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
	Elapsed    time.Duration
	TimedOut   bool
}

// Runner is the invocation surface adapters consume. Invoker is the real
// implementation; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Invoker executes Requests. The zero value is not usable; use New.
type Invoker struct {
	maxOutputBytes int
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithMaxOutputBytes caps how much stdout/stderr is retained per stream.
// Zero means unlimited.
func WithMaxOutputBytes(n int) Option {
	return func(i *Invoker) { i.maxOutputBytes = n }
}

// New creates an Invoker.
func New(opts ...Option) *Invoker {
	inv := &Invoker{}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Run executes the request and blocks until the process exits, the timeout
// expires, or ctx is cancelled. A non-zero exit status is NOT an error; it is
// reported in the Result for the caller to interpret. The only error cases are
// invalid requests and executables that cannot be started.
func (i *Invoker) Run(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}

	// Resolving up front distinguishes "tool not installed" from the tool
	// failing once started.
	if _, err := exec.LookPath(req.Executable); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrExecutableNotFound, req.Executable)
	}

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, req.Executable, req.Args...)
	cmd.WaitDelay = pipeWaitDelay
	if req.WorkDir != "" {
		cmd.Dir = req.WorkDir
	}
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	getLog().Debug().
		Str("executable", req.Executable).
		Strs("args", req.Args).
		Dur("timeout", req.Timeout).
		Msg("Invoking assistant CLI")

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	result := Result{
		Stdout:  i.clamp(stdout.String()),
		Stderr:  i.clamp(stderr.String()),
		Elapsed: elapsed,
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		// The process was killed; partial output stays in the buffers.
		result.TimedOut = true
		result.ExitStatus = ExitStatusUnknown
		getLog().Warn().
			Str("executable", req.Executable).
			Dur("timeout", req.Timeout).
			Msg("Invocation timed out")
		return result, nil

	case runErr == nil:
		result.ExitStatus = 0

	case errors.Is(runErr, exec.ErrWaitDelay):
		// The tool exited but a forked child still held the pipes; the exit
		// status is real and the captured output is complete up to the cutoff.
		result.ExitStatus = cmd.ProcessState.ExitCode()

	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitStatus = exitErr.ExitCode()
		} else {
			// Started but failed outside the exit-code path (e.g. the binary
			// disappeared between LookPath and Run).
			return Result{}, fmt.Errorf("%w: %s: %v", ErrExecutableNotFound, req.Executable, runErr)
		}
	}

	getLog().Debug().
		Str("executable", req.Executable).
		Int("exit_status", result.ExitStatus).
		Dur("elapsed", elapsed).
		Msg("Invocation finished")

	return result, nil
}

func (i *Invoker) clamp(s string) string {
	if i.maxOutputBytes > 0 && len(s) > i.maxOutputBytes {
		return s[:i.maxOutputBytes]
	}
	return s
}

func validate(req Request) error {
	if req.Executable == "" {
		return fmt.Errorf("invocation request: executable is required")
	}
	if req.Timeout <= 0 {
		return fmt.Errorf("invocation request: timeout must be positive, got %v", req.Timeout)
	}
	return nil
}
