// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import "errors"

// Sentinel errors for request precondition failures. These are the only
// failures allowed past the core boundary; everything the tool itself does
// wrong is reported inside an Outcome instead.
var (
	// ErrAssistantNotFound indicates the requested identifier is not registered.
	ErrAssistantNotFound = errors.New("assistant not found")

	// ErrUnsupportedOperation indicates the adapter does not declare the
	// requested operation. No process is spawned in this case.
	ErrUnsupportedOperation = errors.New("operation not supported by assistant")

	// ErrNoDefaultConfigured indicates no default assistant could be resolved
	// because the registry is empty.
	ErrNoDefaultConfigured = errors.New("no default assistant configured")

	// ErrInvalidPayload indicates a required payload field is missing or empty.
	ErrInvalidPayload = errors.New("invalid payload")
)
