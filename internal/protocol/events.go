// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Here lies the definition of the data the API server can push to clients.
// All data a WebSocket client can receive is named: Event. Events originate
// from HTTP handlers - a POST that launches an assistant subprocess produces
// an InvocationStarted event, and its completion an InvocationCompleted one.
package protocol

// GetRequestID extracts the correlation request ID from any event
func GetRequestID(event Event) string {
	return event.GetMetadata().RequestID
}

// ErrorEvent is sent when an operation failed in a way that is not tied to
// a specific invocation outcome (e.g. broadcast plumbing errors).
type ErrorEvent struct {
	Metadata
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	Assistant string `json:"assistant,omitempty"`
}

func (e ErrorEvent) GetMetadata() Metadata {
	return e.Metadata
}

// NewErrorEvent creates an ErrorEvent
func NewErrorEvent(message, context string) ErrorEvent {
	return ErrorEvent{
		Metadata: Metadata{Version: CurrentProtocolVersion},
		Message:  message,
		Context:  context,
	}
}

// AssistantAvailabilityEvent is sent when an availability probe observes a
// change in whether an assistant executable can be found on the host.
type AssistantAvailabilityEvent struct {
	Metadata
	Assistant string `json:"assistant"`
	Available bool   `json:"available"`
}

func (e AssistantAvailabilityEvent) GetMetadata() Metadata {
	return e.Metadata
}

// NewAssistantAvailabilityEvent creates an AssistantAvailabilityEvent
func NewAssistantAvailabilityEvent(requestID, assistant string, available bool) AssistantAvailabilityEvent {
	return AssistantAvailabilityEvent{
		Metadata:  Metadata{RequestID: requestID, Version: CurrentProtocolVersion},
		Assistant: assistant,
		Available: available,
	}
}
