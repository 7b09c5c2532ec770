// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"
)

// codeCommand implements `assistgate explain` and `assistgate modify`.
// Code is read from -file, or stdin when the flag is absent or "-".
func codeCommand(args []string, mode string) error {
	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	serverURL := fs.String("server", serverURLDefault(), "assistgate server URL")
	assistantID := fs.String("assistant", "", "assistant to use (default: server default)")
	model := fs.String("model", "", "model override")
	workspace := fs.String("workspace", "", "working directory for the invocation")
	file := fs.String("file", "", "read code from this file instead of stdin")
	language := fs.String("language", "", "language hint for the assistant")
	instruction := fs.String("instruction", "", "modification instruction (modify only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if mode == "modify" && *instruction == "" {
		return fmt.Errorf("modify requires -instruction")
	}

	code, err := readSource(*file)
	if err != nil {
		return err
	}

	body := map[string]string{
		"code":        code,
		"instruction": *instruction,
		"language":    *language,
		"assistant":   *assistantID,
		"model":       *model,
		"workspace":   *workspace,
	}

	path := "/api/v1/code/explain"
	if mode == "modify" {
		path = "/api/v1/code/modify"
	}

	env, err := postEnvelope(*serverURL, path, body)
	if err != nil {
		return err
	}
	return printEnvelope(env)
}
