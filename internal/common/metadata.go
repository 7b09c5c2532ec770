// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package common provides shared types used across multiple packages.
package common

// Metadata contains common fields for all messages pushed to API clients.
type Metadata struct {
	// RequestID correlates an event with the HTTP request that triggered it.
	// Optional - only present for events originating from an API call.
	RequestID string `json:"request_id,omitempty"`

	// Version indicates the protocol version for backward compatibility.
	// Format: "v{major}.{minor}.{patch}" (e.g., "v1.0.0")
	Version string `json:"version"`
}

// CurrentProtocolVersion defines the current version of the protocol.
// This should be updated when making breaking changes to the protocol.
const CurrentProtocolVersion = "v1.0.0"

// Event represents events that can be sent to connected WebSocket clients.
// Any type implementing this interface can be broadcast.
type Event interface {
	GetMetadata() Metadata
}
