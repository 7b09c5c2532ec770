// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// GetAssistant / GetOperation methods allow the API server's WebSocket filter
// to match events without maintaining an exhaustive type switch.

func (e InvocationLifecycleEvent) GetAssistant() string   { return e.Assistant }
func (e InvocationLifecycleEvent) GetOperation() string   { return e.Operation }
func (e ErrorEvent) GetAssistant() string                 { return e.Assistant }
func (e AssistantAvailabilityEvent) GetAssistant() string { return e.Assistant }
