// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"
	"strings"
)

// chatCommand implements `assistgate chat [options] <message...>`.
func chatCommand(args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	serverURL := fs.String("server", serverURLDefault(), "assistgate server URL")
	assistantID := fs.String("assistant", "", "assistant to use (default: server default)")
	model := fs.String("model", "", "model override")
	workspace := fs.String("workspace", "", "working directory for the invocation")
	contextText := fs.String("context", "", "prior conversation context")
	if err := fs.Parse(args); err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		return fmt.Errorf("chat requires a message, e.g.: assistgate chat how do I revert a commit")
	}

	env, err := postEnvelope(*serverURL, "/api/v1/chat", map[string]string{
		"message":   message,
		"context":   *contextText,
		"assistant": *assistantID,
		"model":     *model,
		"workspace": *workspace,
	})
	if err != nil {
		return err
	}
	return printEnvelope(env)
}
