// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// InvocationLifecycleType defines the type of invocation lifecycle event
type InvocationLifecycleType string

const (
	// InvocationStarted - an assistant subprocess is about to be launched
	InvocationStarted InvocationLifecycleType = "started"
	// InvocationCompleted - the assistant subprocess finished (success or failure)
	InvocationCompleted InvocationLifecycleType = "completed"
)

// InvocationLifecycleEvent represents a state change of a single assistant
// invocation. One started event and one completed event are emitted per
// API call that reaches an adapter.
type InvocationLifecycleEvent struct {
	Metadata
	Type      InvocationLifecycleType `json:"type"`
	Assistant string                  `json:"assistant"`
	Operation string                  `json:"operation"`
	// The fields below are populated for InvocationCompleted events only.
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
}

func (e InvocationLifecycleEvent) GetMetadata() Metadata {
	return e.Metadata
}

// Helper constructors for common lifecycle events

// NewInvocationStartedEvent creates an InvocationStarted lifecycle event
func NewInvocationStartedEvent(requestID, assistant, operation string) InvocationLifecycleEvent {
	return InvocationLifecycleEvent{
		Metadata:  Metadata{RequestID: requestID, Version: CurrentProtocolVersion},
		Type:      InvocationStarted,
		Assistant: assistant,
		Operation: operation,
	}
}

// NewInvocationCompletedEvent creates an InvocationCompleted lifecycle event
func NewInvocationCompletedEvent(requestID, assistant, operation string, success bool, errorKind string, elapsedMS int64) InvocationLifecycleEvent {
	return InvocationLifecycleEvent{
		Metadata:  Metadata{RequestID: requestID, Version: CurrentProtocolVersion},
		Type:      InvocationCompleted,
		Assistant: assistant,
		Operation: operation,
		Success:   success,
		ErrorKind: errorKind,
		ElapsedMS: elapsedMS,
	}
}
