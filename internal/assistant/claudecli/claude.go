// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claudecli adapts the Claude Code CLI to the assistant contract.
package claudecli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
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

var fencedCodeRe = regexp.MustCompile("(?s)```(?:\\w+)?\n(.*?)\n```")

// Config holds the tunables for the Claude adapter.
type Config struct {
	Command      string        // claude binary, default "claude"
	DefaultModel string        // optional; claude picks its own default when empty
	Timeout      time.Duration // code/commit operations, default 60s
	ChatTimeout  time.Duration // default 10m
	ProbeTimeout time.Duration // default 5s
	Workspace    string        // default working directory
}

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = "claude"
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
	return c
}

// Adapter drives the Claude Code CLI. --print puts the tool in
// non-interactive mode; the rendered prompt is the last positional argument
// and code/diff payloads travel on stdin.
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
		ID:          "claude",
		DisplayName: "Claude Code CLI",
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

	return a.textOutcome(a.run(ctx, prompt, "", in.Model, in.Workspace, a.cfg.ChatTimeout))
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

	return a.textOutcome(a.run(ctx, prompt, in.Code, in.Model, in.Workspace, a.cfg.Timeout))
}

// ModifyCode implements assistant.Adapter.
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
		out.Content = extractCode(out.Content)
	}
	return out
}

// GenerateCommitMessage implements assistant.Adapter. Unlike the Copilot
// adapter this one requires the diff in the request: the Claude CLI is often
// pointed at repositories the server has no business running git inside.
func (a *Adapter) GenerateCommitMessage(ctx context.Context, in assistant.CommitInput) assistant.Outcome {
	if strings.TrimSpace(in.Diff) == "" {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, "diff is required", 0)
	}

	prompt, err := assistant.RenderPrompt(a.prompts.CommitMessage, assistant.PromptData{Diff: in.Diff})
	if err != nil {
		return assistant.FailureOutcome(assistant.ErrorKindInvalidPayload, err.Error(), 0)
	}

	return a.textOutcome(a.run(ctx, prompt, in.Diff, in.Model, in.Workspace, a.cfg.Timeout))
}

// IsAvailable implements assistant.Adapter.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	res, err := a.runner.Run(ctx, invoke.Request{
		Executable: a.cfg.Command,
		Args:       []string{"--version"},
		Timeout:    a.cfg.ProbeTimeout,
	})
	if err != nil {
		getLog().Warn().Err(err).Msg("Claude CLI not available")
		return false
	}
	return !res.TimedOut && res.ExitStatus == 0
}

// run executes: claude --print [--model m] <prompt>
// --print is required for non-interactive output; the prompt is the last
// positional argument.
func (a *Adapter) run(ctx context.Context, prompt, stdin, model, workspace string, timeout time.Duration) (invoke.Result, error) {
	args := []string{"--print"}
	if model == "" {
		model = a.cfg.DefaultModel
	}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, prompt)

	workDir := workspace
	if workDir == "" {
		workDir = a.cfg.Workspace
	}

	return a.runner.Run(ctx, invoke.Request{
		Executable: a.cfg.Command,
		Args:       args,
		Stdin:      stdin,
		WorkDir:    workDir,
		Timeout:    timeout,
	})
}

// textOutcome applies the shared outcome mapping. Claude prints a clean
// answer in --print mode, so no banner scrubbing is needed; stderr
// diagnostics on exit 0 are discarded unless stdout came back empty.
func (a *Adapter) textOutcome(res invoke.Result, err error) assistant.Outcome {
	if err != nil {
		if errors.Is(err, invoke.ErrExecutableNotFound) {
			return assistant.FailureOutcome(assistant.ErrorKindExecutableNotFound, err.Error(), 0)
		}
		return assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed, err.Error(), 0)
	}
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

	content := strings.TrimSpace(res.Stdout)
	if content == "" {
		content = strings.TrimSpace(res.Stderr)
	}
	return assistant.SuccessOutcome(content, res.Elapsed)
}

// extractCode pulls the body of the largest markdown fence out of a
// modify_code response, falling back to the full response when there is none.
func extractCode(output string) string {
	matches := fencedCodeRe.FindAllStringSubmatch(output, -1)
	best := ""
	for _, m := range matches {
		if len(m) > 1 && len(m[1]) > len(best) {
			best = m[1]
		}
	}
	if best == "" {
		return output
	}
	return best
}
