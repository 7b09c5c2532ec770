// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrompt_Chat(t *testing.T) {
	prompts := DefaultPrompts()

	t.Run("without context", func(t *testing.T) {
		got, err := RenderPrompt(prompts.Chat, PromptData{Message: "how do I rebase?"})
		require.NoError(t, err)
		assert.Equal(t, "how do I rebase?", got)
	})

	t.Run("with context", func(t *testing.T) {
		got, err := RenderPrompt(prompts.Chat, PromptData{
			Message: "and now?",
			Context: "we were discussing rebase",
		})
		require.NoError(t, err)
		assert.Equal(t, "Context: we were discussing rebase\n\nQuestion: and now?", got)
	})
}

func TestRenderPrompt_CodeOperations(t *testing.T) {
	prompts := DefaultPrompts()

	got, err := RenderPrompt(prompts.ExplainCode, PromptData{LanguageHint: LanguageHint("python")})
	require.NoError(t, err)
	assert.Equal(t, "Please explain the code provided on standard input (this is python code).", got)

	got, err = RenderPrompt(prompts.ModifyCode, PromptData{Instruction: "add docstrings", LanguageHint: ""})
	require.NoError(t, err)
	assert.Equal(t, "Please add docstrings for the code provided on standard input. Provide the modified code.", got)
}

func TestRenderPrompt_InvalidTemplate(t *testing.T) {
	_, err := RenderPrompt("{{.Unclosed", PromptData{})
	assert.Error(t, err)
}

func TestLanguageHint(t *testing.T) {
	assert.Equal(t, " (this is go code)", LanguageHint("go"))
	assert.Empty(t, LanguageHint(""))
	assert.Empty(t, LanguageHint("   "))
}

func TestLoadPromptFile(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		prompts, err := LoadPromptFile("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPrompts(), prompts)
	})

	t.Run("partial override merges over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("chat: \"custom {{.Message}}\"\n"), 0o644))

		prompts, err := LoadPromptFile(path)
		require.NoError(t, err)
		assert.Equal(t, "custom {{.Message}}", prompts.Chat)
		assert.Equal(t, DefaultPrompts().CommitMessage, prompts.CommitMessage)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadPromptFile("/nonexistent/prompts.yaml")
		assert.Error(t, err)
	})

	t.Run("malformed YAML is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":\n  - {"), 0o644))

		_, err := LoadPromptFile(path)
		assert.Error(t, err)
	})
}
