// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package copilot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/invoke"
)

// fakeRunner records requests and plays back canned results per executable.
type fakeRunner struct {
	requests []invoke.Request
	results  map[string]invoke.Result
	errs     map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]invoke.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, req invoke.Request) (invoke.Result, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.errs[req.Executable]; ok {
		return invoke.Result{}, err
	}
	return f.results[req.Executable], nil
}

func (f *fakeRunner) lastRequest() invoke.Request {
	return f.requests[len(f.requests)-1]
}

func newTestAdapter(runner invoke.Runner, t *testing.T) *Adapter {
	t.Helper()
	return New(runner, assistant.DefaultPrompts(), Config{Workspace: t.TempDir()})
}

func TestDescriptor(t *testing.T) {
	a := newTestAdapter(newFakeRunner(), t)
	d := a.Descriptor()

	assert.Equal(t, "copilot", d.ID)
	assert.Equal(t, "copilot", d.Command)
	assert.True(t, d.Supports(assistant.OpChat))
	assert.True(t, d.Supports(assistant.OpExplainCode))
	assert.True(t, d.Supports(assistant.OpModifyCode))
	assert.True(t, d.Supports(assistant.OpCommit))
}

func TestChat_ArgumentConstruction(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "hi there\n"}
	a := newTestAdapter(runner, t)

	out := a.Chat(context.Background(), assistant.ChatInput{Message: "hello"})
	require.True(t, out.Success)
	assert.Equal(t, "hi there", out.Content)

	req := runner.lastRequest()
	assert.Equal(t, "copilot", req.Executable)
	assert.Equal(t, []string{"--model", "claude-haiku-4.5", "-p", "hello", "--allow-all-tools"}, req.Args)
	assert.Empty(t, req.Stdin)
	assert.Equal(t, 10*time.Minute, req.Timeout)
}

func TestChat_ModelOverride(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "ok"}
	a := newTestAdapter(runner, t)

	a.Chat(context.Background(), assistant.ChatInput{Message: "hi", Model: "gpt-5"})

	assert.Equal(t, []string{"--model", "gpt-5", "-p", "hi", "--allow-all-tools"}, runner.lastRequest().Args)
}

func TestChat_ContextFlowsIntoPrompt(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "ok"}
	a := newTestAdapter(runner, t)

	a.Chat(context.Background(), assistant.ChatInput{Message: "and now?", Context: "rebase discussion"})

	req := runner.lastRequest()
	assert.Contains(t, req.Args[3], "Context: rebase discussion")
	assert.Contains(t, req.Args[3], "Question: and now?")
}

func TestChat_EmptyMessage(t *testing.T) {
	runner := newFakeRunner()
	a := newTestAdapter(runner, t)

	out := a.Chat(context.Background(), assistant.ChatInput{Message: "   "})

	assert.False(t, out.Success)
	assert.Equal(t, assistant.ErrorKindInvalidPayload, out.ErrorKind)
	assert.Empty(t, runner.requests, "no subprocess for an invalid payload")
}

func TestExplainCode_CodeTravelsOnStdin(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "It prints hi."}
	a := newTestAdapter(runner, t)

	out := a.ExplainCode(context.Background(), assistant.CodeInput{
		Code:     "print('hi')",
		Language: "python",
	})
	require.True(t, out.Success)

	req := runner.lastRequest()
	assert.Equal(t, "print('hi')", req.Stdin)
	assert.Contains(t, req.Args[3], "explain the code provided on standard input")
	assert.Contains(t, req.Args[3], "(this is python code)")
	assert.Equal(t, 60*time.Second, req.Timeout)
}

func TestModifyCode_ExtractsFencedCode(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{
		ExitStatus: 0,
		Stdout:     "Here is the updated code:\n```python\ndef add(a: int, b: int) -> int:\n    return a + b\n```\nLet me know if you need more.",
	}
	a := newTestAdapter(runner, t)

	out := a.ModifyCode(context.Background(), assistant.CodeInput{
		Code:        "def add(a, b): return a + b",
		Instruction: "add type hints",
	})

	require.True(t, out.Success)
	assert.Equal(t, "def add(a: int, b: int) -> int:\n    return a + b", out.Content)
}

func TestModifyCode_RequiresInstruction(t *testing.T) {
	a := newTestAdapter(newFakeRunner(), t)

	out := a.ModifyCode(context.Background(), assistant.CodeInput{Code: "x = 1"})

	assert.False(t, out.Success)
	assert.Equal(t, assistant.ErrorKindInvalidPayload, out.ErrorKind)
}

func TestGenerateCommitMessage_WithDiff(t *testing.T) {
	runner := newFakeRunner()
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "fix: handle nil pointer\n"}
	a := newTestAdapter(runner, t)

	out := a.GenerateCommitMessage(context.Background(), assistant.CommitInput{
		Diff: "--- a/main.go\n+++ b/main.go\n",
	})

	require.True(t, out.Success)
	assert.Equal(t, "fix: handle nil pointer", out.Content)

	// The diff travels on stdin, and git was never called.
	require.Len(t, runner.requests, 1)
	assert.Equal(t, "--- a/main.go\n+++ b/main.go\n", runner.requests[0].Stdin)
}

func TestGenerateCommitMessage_CollectsStagedDiff(t *testing.T) {
	runner := newFakeRunner()
	runner.results["git"] = invoke.Result{ExitStatus: 0, Stdout: "diff --git a/x b/x\n"}
	runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "chore: update x"}
	a := newTestAdapter(runner, t)

	out := a.GenerateCommitMessage(context.Background(), assistant.CommitInput{})

	require.True(t, out.Success)
	require.Len(t, runner.requests, 2)
	assert.Equal(t, "git", runner.requests[0].Executable)
	assert.Equal(t, []string{"diff", "--staged"}, runner.requests[0].Args)
	assert.Equal(t, "diff --git a/x b/x\n", runner.requests[1].Stdin)
}

func TestGenerateCommitMessage_NoStagedChanges(t *testing.T) {
	runner := newFakeRunner()
	runner.results["git"] = invoke.Result{ExitStatus: 0, Stdout: ""}
	a := newTestAdapter(runner, t)

	out := a.GenerateCommitMessage(context.Background(), assistant.CommitInput{})

	assert.False(t, out.Success)
	assert.Equal(t, assistant.ErrorKindInvalidPayload, out.ErrorKind)
	assert.Contains(t, out.ErrorDetail, "no staged changes")
}

func TestGenerateCommitMessage_GitMissing(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["git"] = invoke.ErrExecutableNotFound
	a := newTestAdapter(runner, t)

	out := a.GenerateCommitMessage(context.Background(), assistant.CommitInput{})

	assert.False(t, out.Success)
	assert.Equal(t, assistant.ErrorKindExecutableNotFound, out.ErrorKind)
}

func TestOutcomeMapping(t *testing.T) {
	tests := []struct {
		name       string
		result     invoke.Result
		err        error
		wantKind   assistant.ErrorKind
		wantDetail string
	}{
		{
			name:     "timeout",
			result:   invoke.Result{TimedOut: true, ExitStatus: invoke.ExitStatusUnknown, Elapsed: time.Minute},
			wantKind: assistant.ErrorKindToolTimeout,
		},
		{
			name:       "non-zero exit uses stderr",
			result:     invoke.Result{ExitStatus: 1, Stderr: "authentication required\n"},
			wantKind:   assistant.ErrorKindToolExecutionFailed,
			wantDetail: "authentication required",
		},
		{
			name:       "non-zero exit falls back to stdout",
			result:     invoke.Result{ExitStatus: 2, Stdout: "usage: copilot ...\n"},
			wantKind:   assistant.ErrorKindToolExecutionFailed,
			wantDetail: "usage: copilot ...",
		},
		{
			name:     "missing executable",
			err:      invoke.ErrExecutableNotFound,
			wantKind: assistant.ErrorKindExecutableNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := newFakeRunner()
			runner.results["copilot"] = tt.result
			if tt.err != nil {
				runner.errs["copilot"] = tt.err
			}
			a := newTestAdapter(runner, t)

			out := a.Chat(context.Background(), assistant.ChatInput{Message: "hi"})

			assert.False(t, out.Success)
			assert.Equal(t, tt.wantKind, out.ErrorKind)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, out.ErrorDetail)
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		runner := newFakeRunner()
		runner.results["copilot"] = invoke.Result{ExitStatus: 0, Stdout: "copilot version 1.2.3"}
		a := newTestAdapter(runner, t)

		assert.True(t, a.IsAvailable(context.Background()))
		assert.Equal(t, []string{"--version"}, runner.lastRequest().Args)
	})

	t.Run("not installed", func(t *testing.T) {
		runner := newFakeRunner()
		runner.errs["copilot"] = invoke.ErrExecutableNotFound
		a := newTestAdapter(runner, t)

		assert.False(t, a.IsAvailable(context.Background()))
	})

	t.Run("probe timeout", func(t *testing.T) {
		runner := newFakeRunner()
		runner.results["copilot"] = invoke.Result{TimedOut: true, ExitStatus: invoke.ExitStatusUnknown}
		a := newTestAdapter(runner, t)

		assert.False(t, a.IsAvailable(context.Background()))
	})
}
