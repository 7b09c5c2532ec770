// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package copilot adapts the GitHub Copilot CLI to the assistant contract.
package copilot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/invoke"
	"github.com/assistgate/assistgate/internal/logger"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAdapterLogger()
		log = &l
	})
	return log
}

// Config holds the tunables for the Copilot adapter. Zero values fall back to
// the defaults below.
type Config struct {
	Command      string        // copilot binary, default "copilot"
	GitCommand   string        // git binary used for staged-diff collection, default "git"
	DefaultModel string        // model passed when the request doesn't name one
	Timeout      time.Duration // code/commit operations, default 60s
	ChatTimeout  time.Duration // chat is allowed to run longer, default 10m
	ProbeTimeout time.Duration // availability probe, default 5s
	Workspace    string        // default working directory, default "./tmp"
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "copilot"
	}
	if c.GitCommand == "" {
		c.GitCommand = "git"
	}
	if c.DefaultModel == "" {
		c.DefaultModel = "claude-haiku-4.5"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = 10 * time.Minute
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.Workspace == "" {
		c.Workspace = "./tmp"
	}
	return c
}

// Adapter drives the GitHub Copilot CLI. Prompts go through -p in
// non-interactive mode; code, instruction payloads and diffs travel on stdin
// to avoid any shell-escaping hazards. Payloads are passed whole, however
// large: truncation, if any, is the tool's concern.
type Adapter struct {
	runner  invoke.Runner
	prompts assistant.PromptSet
	cfg     Config
}

// New creates the adapter.
func New(runner invoke.Runner, prompts assistant.PromptSet, cfg Config) *Adapter {
	return &Adapter{runner: runner, prompts: prompts, cfg: cfg.withDefaults()}
}

// Descriptor implements assistant.Adapter.
func (a *Adapter) Descriptor() assistant.Descriptor {
	return assistant.Descriptor{
		ID:          "copilot",
		DisplayName: "GitHub Copilot CLI",
		Command:     a.cfg.Command,
		Operations: []assistant.Operation{
			assistant.OpChat,
			assistant.OpExplainCode,
			assistant.OpModifyCode,
			assistant.OpCommit,
		},
	}
}

// Chat implements assistant.Adapter.
func (a *Adapter) Chat(ctx context.Context, in assistant.ChatInput) assistant.Outcome {
	if strings.TrimSpace(in.Message) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "message is required", 0)
	}

	prompt, err := assistant.RenderPrompt(a.prompts.Chat, assistant.PromptData{
		Message: in.Message,
		Context: in.Context,
	})
	if err != nil {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, err.Error(), 0)
	}

	res := a.run(ctx, prompt, "", in.Model, in.Workspace, a.cfg.ChatTimeout)
	return a.textOutcome(res)
}

// ExplainCode implements assistant.Adapter.
func (a *Adapter) ExplainCode(ctx context.Context, in assistant.CodeInput) assistant.Outcome {
	if strings.TrimSpace(in.Code) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "code is required", 0)
	}

	prompt, err := assistant.RenderPrompt(a.prompts.ExplainCode, assistant.PromptData{
		Code:         in.Code,
		LanguageHint: assistant.LanguageHint(in.Language),
	})
	if err != nil {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, err.Error(), 0)
	}

	res := a.run(ctx, prompt, in.Code, in.Model, in.Workspace, a.cfg.Timeout)
	return a.textOutcome(res)
}

// ModifyCode implements assistant.Adapter. The response is
// post-processed to pull the modified code out of any markdown fences.
func (a *Adapter) ModifyCode(ctx context.Context, in assistant.CodeInput) assistant.Outcome {
	if strings.TrimSpace(in.Code) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "code is required", 0)
	}
	if strings.TrimSpace(in.Instruction) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "instruction is required", 0)
	}

	prompt, err := assistant.RenderPrompt(a.prompts.ModifyCode, assistant.PromptData{
		Code:         in.Code,
		Instruction:  in.Instruction,
		LanguageHint: assistant.LanguageHint(in.Language),
	})
	if err != nil {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, err.Error(), 0)
	}

	out := a.textOutcome(a.run(ctx, prompt, in.Code, in.Model, in.Workspace, a.cfg.Timeout))
	if out.Success {
		out.Content = ExtractCode(out.Content)
	}
	return out
}

// GenerateCommitMessage implements assistant.Adapter. When the request
// carries no diff, the staged diff is collected from the workspace first,
// the way `copilot` users run it by hand.
func (a *Adapter) GenerateCommitMessage(ctx context.Context, in assistant.CommitInput) assistant.Outcome {
	diff := in.Diff
	if strings.TrimSpace(diff) == "" {
		collected, out := a.collectStagedDiff(ctx, in.Workspace)
		if !out.Success && out.ErrorKind != assistant.ErrorKindNone {
			return out
		}
		diff = collected
	}
	if strings.TrimSpace(diff) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "no staged changes found", 0)
	}

	prompt, err := assistant.RenderPrompt(a.prompts.CommitMessage, assistant.PromptData{Diff: diff})
	if err != nil {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, err.Error(), 0)
	}

	return a.textOutcome(a.run(ctx, prompt, diff, in.Model, in.Workspace, a.cfg.Timeout))
}

// IsAvailable implements assistant.Adapter. Any probe failure reads as
// unavailable; the probe never raises.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	res, err := a.runner.Run(ctx, invoke.Request{
		Executable: a.cfg.Command,
		Args:       []string{"--version"},
		Timeout:    a.cfg.ProbeTimeout,
	})
	if err != nil {
		getLog().Warn().Err(err).Msg("Copilot CLI not available")
		return false
	}
	return !res.TimedOut && res.ExitStatus == 0
}

// run builds the copilot argument list and executes it.
func (a *Adapter) run(ctx context.Context, prompt, stdin, model, workspace string, timeout time.Duration) runResult {
	args := []string{}
	if model == "" {
		model = a.cfg.DefaultModel
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, "-p", prompt, "--allow-all-tools")

	res, err := a.runner.Run(ctx, invoke.Request{
		Executable: a.cfg.Command,
		Args:       args,
		Stdin:      stdin,
		WorkDir:    a.workspaceDir(workspace),
		Timeout:    timeout,
	})
	return runResult{res: res, err: err}
}

// collectStagedDiff runs `git diff --staged` in the workspace. The second
// return value is a failed outcome when the git invocation itself broke.
func (a *Adapter) collectStagedDiff(ctx context.Context, workspace string) (string, assistant.Outcome) {
	res, err := a.runner.Run(ctx, invoke.Request{
		Executable: a.cfg.GitCommand,
		Args:       []string{"diff", "--staged"},
		WorkDir:    a.workspaceDir(workspace),
		Timeout:    30 * time.Second,
	})
	if err != nil {
		if errors.Is(err, invoke.ErrExecutableNotFound) {
			return "", assistant.FailureOutcome(assistant.ErrorKindExecutableNotFound, err.Error(), 0)
		}
		return "", assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed, err.Error(), 0)
	}
	if res.TimedOut {
		return "", assistant.FailureOutcome(assistant.ErrorKindToolTimeout,
			"git diff --staged timed out", res.Elapsed)
	}
	if res.ExitStatus != 0 {
		return "", assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed,
			firstNonEmpty(strings.TrimSpace(res.Stderr), "git diff --staged failed"), res.Elapsed)
	}
	return res.Stdout, assistant.Outcome{Success: true}
}

// workspaceDir resolves the working directory for an invocation, creating the
// default scratch directory on first use.
func (a *Adapter) workspaceDir(requested string) string {
	dir := requested
	if dir == "" {
		dir = a.cfg.Workspace
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		getLog().Warn().Err(err).Str("dir", dir).Msg("Failed to create workspace directory")
		return ""
	}
	return dir
}

type runResult struct {
	res invoke.Result
	err error
}

// textOutcome maps an invocation result onto the outcome contract:
// exit 0 → trimmed, banner-scrubbed stdout (stderr fallback when stdout is
// empty, per tool convention); non-zero exit → ToolExecutionFailed with
// stderr detail; timeout → ToolTimeout. Diagnostic stderr on exit 0 is
// otherwise discarded.
func (a *Adapter) textOutcome(r runResult) assistant.Outcome {
	if r.err != nil {
		if errors.Is(r.err, invoke.ErrExecutableNotFound) {
			return assistant.FailureOutcome(assistant.ErrorKindExecutableNotFound, r.err.Error(), 0)
		}
		return assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed, r.err.Error(), 0)
	}

	res := r.res
	if res.TimedOut {
		return assistant.FailureOutcome(assistant.ErrorKindToolTimeout,
			fmt.Sprintf("%s timed out after %s", a.cfg.Command, res.Elapsed.Round(time.Millisecond)),
			res.Elapsed)
	}
	if res.ExitStatus != 0 {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		if detail == "" {
			detail = fmt.Sprintf("%s exited with status %d", a.cfg.Command, res.ExitStatus)
		}
		return assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed, detail, res.Elapsed)
	}

	content := ScrubOutput(res.Stdout)
	if content == "" {
		content = strings.TrimSpace(res.Stderr)
	}
	return assistant.SuccessOutcome(content, res.Elapsed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
