// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import "time"

// Envelope is the externally visible result shape returned for every
// operation, success or failure. Content and the error fields are mutually
// exclusive; elapsed time is always present.
type Envelope struct {
	Assistant   string    `json:"assistant"`
	Operation   Operation `json:"operation"`
	Success     bool      `json:"success"`
	Content     *string   `json:"content"`
	ErrorKind   *string   `json:"error_kind"`
	ErrorDetail *string   `json:"error_detail"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// Normalize is a pure mapping from an adapter outcome to the API envelope.
func Normalize(assistantID string, op Operation, out Outcome) Envelope {
	env := Envelope{
		Assistant: assistantID,
		Operation: op,
		Success:   out.Success,
		ElapsedMS: out.Elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	}

	if out.Success {
		content := out.Content
		env.Content = &content
		return env
	}

	kind := string(out.ErrorKind)
	detail := out.ErrorDetail
	env.ErrorKind = &kind
	env.ErrorDetail = &detail
	return env
}
