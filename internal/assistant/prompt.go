// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptSet holds the prompt templates adapters render before handing a
// request to the CLI tool. Templates use text/template syntax with the fields
// of PromptData. Operators can override individual templates via a YAML file;
// anything left empty falls back to the built-in default.
type PromptSet struct {
	Chat          string `yaml:"chat"`
	ExplainCode   string `yaml:"explain_code"`
	ModifyCode    string `yaml:"modify_code"`
	CommitMessage string `yaml:"commit_message"`
}

// PromptData is the variable set available inside prompt templates.
type PromptData struct {
	Message      string
	Context      string
	Code         string
	Instruction  string
	Diff         string
	LanguageHint string // pre-formatted, e.g. " (this is go code)" or ""
}

// DefaultPrompts returns the built-in templates. The wording follows what the
// assistants respond to best in non-interactive mode: explicit, single-answer
// instructions.
func DefaultPrompts() PromptSet {
	// Code and diff bodies travel on stdin rather than inside the prompt, so
	// the templates only shape the instruction text.
	return PromptSet{
		Chat:          "{{if .Context}}Context: {{.Context}}\n\nQuestion: {{.Message}}{{else}}{{.Message}}{{end}}",
		ExplainCode:   "Please explain the code provided on standard input{{.LanguageHint}}.",
		ModifyCode:    "Please {{.Instruction}} for the code provided on standard input{{.LanguageHint}}. Provide the modified code.",
		CommitMessage: "Please generate a concise and descriptive git commit message for the staged changes provided on standard input. Return only the commit message, nothing else.",
	}
}

// LoadPromptFile reads a PromptSet override from a YAML file and merges it
// over the defaults. A missing path returns the defaults unchanged.
func LoadPromptFile(path string) (PromptSet, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PromptSet{}, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var override PromptSet
	if err := yaml.Unmarshal(data, &override); err != nil {
		return PromptSet{}, fmt.Errorf("failed to parse prompt YAML: %w", err)
	}

	if override.Chat != "" {
		prompts.Chat = override.Chat
	}
	if override.ExplainCode != "" {
		prompts.ExplainCode = override.ExplainCode
	}
	if override.ModifyCode != "" {
		prompts.ModifyCode = override.ModifyCode
	}
	if override.CommitMessage != "" {
		prompts.CommitMessage = override.CommitMessage
	}
	return prompts, nil
}

// RenderPrompt renders a prompt template with the given data.
func RenderPrompt(promptTemplate string, data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// LanguageHint formats an optional language name the way the prompt templates
// expect it.
func LanguageHint(language string) string {
	if strings.TrimSpace(language) == "" {
		return ""
	}
	return fmt.Sprintf(" (this is %s code)", language)
}
