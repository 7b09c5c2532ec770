// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetAPILogger returns a logger for the HTTP API layer
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetInvokerLogger returns a logger for process invocations
func GetInvokerLogger() zerolog.Logger {
	return GetLogger("invoker")
}

// GetAdapterLogger returns a logger for assistant adapters
func GetAdapterLogger() zerolog.Logger {
	return GetLogger("adapter")
}
