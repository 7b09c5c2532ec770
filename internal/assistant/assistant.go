// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant defines the capability contract every AI-assistant CLI
// adapter implements, the registry that resolves adapters by identifier, and
// the normalizer that shapes adapter outcomes into the API envelope.
package assistant

import (
	"context"
	"time"
)

// Operation names one capability of the adapter contract. These are the
// operation identifiers used on the wire and in capability declarations.
type Operation string

const (
	OpChat        Operation = "chat"
	OpExplainCode Operation = "explain_code"
	OpModifyCode  Operation = "modify_code"
	OpCommit      Operation = "commit"
)

// Descriptor is the static metadata an adapter declares at registration time.
// It is created once and read-only thereafter.
type Descriptor struct {
	// ID is the opaque identifier the adapter is registered under ("copilot").
	ID string `json:"id"`

	// DisplayName is the human-readable assistant name ("GitHub Copilot CLI").
	DisplayName string `json:"display_name"`

	// Command is the underlying executable the adapter drives.
	Command string `json:"command"`

	// Operations lists which contract operations the adapter supports.
	Operations []Operation `json:"operations"`
}

// Supports reports whether the adapter declared the given operation.
func (d Descriptor) Supports(op Operation) bool {
	for _, o := range d.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// ChatInput is the payload for the chat operation.
type ChatInput struct {
	Message   string
	Context   string // optional prior-conversation context
	Model     string // optional model override, passed through to the tool
	Workspace string // optional working directory for the invocation
}

// CodeInput is the payload for explain_code and modify_code.
// Instruction is required for modify_code and ignored by explain_code.
type CodeInput struct {
	Code        string
	Instruction string
	Language    string
	Model       string
	Workspace   string
}

// CommitInput is the payload for commit message generation. When Diff is
// empty the adapter collects the staged diff from the workspace itself.
type CommitInput struct {
	Diff      string
	Model     string
	Workspace string
}

// ErrorKind classifies a failed outcome. The zero value means no error.
type ErrorKind string

const (
	ErrorKindNone                ErrorKind = ""
	ErrorKindToolExecutionFailed ErrorKind = "tool_execution_failed"
	ErrorKindToolTimeout         ErrorKind = "tool_timeout"
	ErrorKindExecutableNotFound  ErrorKind = "executable_not_found"
	ErrorKindInvalidPayload      ErrorKind = "invalid_payload"
)

// Outcome is the normalized result of one operation, independent of which
// adapter produced it. Content and error detail are mutually exclusive: a
// failed outcome never carries content that could pass for a real answer.
type Outcome struct {
	Success     bool
	Content     string
	ErrorKind   ErrorKind
	ErrorDetail string
	Elapsed     time.Duration
}

// SuccessOutcome builds a successful outcome carrying content.
func SuccessOutcome(content string, elapsed time.Duration) Outcome {
	return Outcome{Success: true, Content: content, Elapsed: elapsed}
}

// FailureOutcome builds a failed outcome. Content is deliberately absent.
func FailureOutcome(kind ErrorKind, detail string, elapsed time.Duration) Outcome {
	return Outcome{Success: false, ErrorKind: kind, ErrorDetail: detail, Elapsed: elapsed}
}

// Adapter is the contract every assistant implements. Implementations must be
// safe for concurrent use: adapters live for the process lifetime and serve
// overlapping requests.
//
// Tool-execution failures (non-zero exit, timeout, missing binary) are
// reported inside the Outcome, never as panics or errors; callers always get
// a structured result once an adapter method is reached.
type Adapter interface {
	// Descriptor returns the adapter's static metadata.
	Descriptor() Descriptor

	// Chat relays a free-form message to the assistant.
	Chat(ctx context.Context, in ChatInput) Outcome

	// ExplainCode asks the assistant to explain a piece of code.
	ExplainCode(ctx context.Context, in CodeInput) Outcome

	// ModifyCode asks the assistant to rewrite code per an instruction.
	ModifyCode(ctx context.Context, in CodeInput) Outcome

	// GenerateCommitMessage produces a commit message for a diff.
	GenerateCommitMessage(ctx context.Context, in CommitInput) Outcome

	// IsAvailable is a cheap liveness probe (a --version style check). It
	// must return quickly and never fail hard: any probe error reads as false.
	IsAvailable(ctx context.Context) bool
}

// Status pairs a descriptor with the result of an availability probe. This is
// what GET /assistants reports per registered adapter.
type Status struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Available   bool   `json:"available"`
}
