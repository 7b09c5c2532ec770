// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	// An empty config file leaves every default in place.
	cfg, err := NewConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	// No configured default: the first enabled assistant becomes the default.
	assert.Empty(t, cfg.Assistants.Default)
	assert.True(t, cfg.Assistants.Copilot.Enabled)
	assert.False(t, cfg.Assistants.Claude.Enabled)
	assert.Equal(t, "claude-haiku-4.5", cfg.Assistants.Copilot.DefaultModel)
	assert.Equal(t, 60*time.Second, cfg.Assistants.Copilot.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Assistants.Copilot.ChatTimeout)
}

func TestNewConfig_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9001
assistants:
  default: claude
  claude:
    enabled: true
    command: /usr/local/bin/claude
    timeout: 90s
  copilot:
    enabled: false
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "claude", cfg.Assistants.Default)
	assert.True(t, cfg.Assistants.Claude.Enabled)
	assert.False(t, cfg.Assistants.Copilot.Enabled)
	assert.Equal(t, "/usr/local/bin/claude", cfg.Assistants.Claude.Command)
	assert.Equal(t, 90*time.Second, cfg.Assistants.Claude.Timeout)
	// Untouched values keep their defaults.
	assert.Equal(t, 10*time.Minute, cfg.Assistants.Claude.ChatTimeout)
}

func TestNewConfig_SoleEnabledAssistantNeedsNoDefault(t *testing.T) {
	// Swapping the enabled assistant must not require touching the default.
	path := writeConfig(t, `
assistants:
  copilot:
    enabled: false
  claude:
    enabled: true
`)

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Assistants.Default)
	assert.True(t, cfg.Assistants.Claude.Enabled)
}

func TestNewConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad port",
			content: "server:\n  port: 70000\n",
			wantErr: "invalid server port",
		},
		{
			name:    "bad log level",
			content: "log:\n  level: chatty\n",
			wantErr: "invalid log level",
		},
		{
			name:    "no assistant enabled",
			content: "assistants:\n  copilot:\n    enabled: false\n  claude:\n    enabled: false\n",
			wantErr: "at least one assistant",
		},
		{
			name:    "unknown default",
			content: "assistants:\n  default: cursor\n",
			wantErr: "unknown default assistant",
		},
		{
			name:    "default names a disabled assistant",
			content: "assistants:\n  default: copilot\n  copilot:\n    enabled: false\n  claude:\n    enabled: true\n",
			wantErr: "is disabled",
		},
		{
			name:    "enabled assistant without command",
			content: "assistants:\n  copilot:\n    enabled: true\n    command: \"\"\n",
			wantErr: "command is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "prompts.yaml"), expandPath("~/prompts.yaml"))

	t.Setenv("ASSISTGATE_TEST_DIR", "/srv/assistgate")
	assert.Equal(t, "/srv/assistgate/ws", expandPath("$ASSISTGATE_TEST_DIR/ws"))

	assert.Equal(t, "", expandPath(""))
}

func TestNewConfig_ExpandsPaths(t *testing.T) {
	t.Setenv("ASSISTGATE_TEST_WS", t.TempDir())
	path := writeConfig(t, "assistants:\n  workspace: $ASSISTGATE_TEST_WS/scratch\n")

	cfg, err := NewConfig(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getenv("ASSISTGATE_TEST_WS")+"/scratch", cfg.Assistants.Workspace)
}
