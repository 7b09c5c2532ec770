// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"time"
)

// StubAdapter is an in-memory adapter used in tests and integration setups.
// It never spawns a process: chat and commit echo a canned reply, the code
// operations echo their payload back unchanged, which makes pass-through
// corruption visible in tests.
type StubAdapter struct {
	ID        string
	Name      string
	Available bool

	// Reply is returned by Chat and GenerateCommitMessage. Empty defaults to "OK".
	Reply string

	// FailWith, when set, forces every operation to a failed outcome of that kind.
	FailWith ErrorKind
}

// NewStubAdapter creates an available stub registered under id "stub".
func NewStubAdapter() *StubAdapter {
	return &StubAdapter{ID: "stub", Name: "Stub Assistant", Available: true}
}

// Descriptor implements Adapter.
func (s *StubAdapter) Descriptor() Descriptor {
	id := s.ID
	if id == "" {
		id = "stub"
	}
	name := s.Name
	if name == "" {
		name = "Stub Assistant"
	}
	return Descriptor{
		ID:          id,
		DisplayName: name,
		Command:     "true",
		Operations:  []Operation{OpChat, OpExplainCode, OpModifyCode, OpCommit},
	}
}

func (s *StubAdapter) outcome(content string) Outcome {
	if s.FailWith != ErrorKindNone {
		return FailureOutcome(s.FailWith, "stub failure", time.Millisecond)
	}
	return SuccessOutcome(content, time.Millisecond)
}

func (s *StubAdapter) reply() string {
	if s.Reply == "" {
		return "OK"
	}
	return s.Reply
}

// Chat implements Adapter.
func (s *StubAdapter) Chat(_ context.Context, _ ChatInput) Outcome {
	return s.outcome(s.reply())
}

// ExplainCode implements Adapter. The code is echoed back unchanged.
func (s *StubAdapter) ExplainCode(_ context.Context, in CodeInput) Outcome {
	return s.outcome(in.Code)
}

// ModifyCode implements Adapter. The code is echoed back unchanged.
func (s *StubAdapter) ModifyCode(_ context.Context, in CodeInput) Outcome {
	return s.outcome(in.Code)
}

// GenerateCommitMessage implements Adapter.
func (s *StubAdapter) GenerateCommitMessage(_ context.Context, _ CommitInput) Outcome {
	return s.outcome(s.reply())
}

// IsAvailable implements Adapter.
func (s *StubAdapter) IsAvailable(_ context.Context) bool {
	return s.Available
}
