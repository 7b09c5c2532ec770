// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "flag"

// commitCommand implements `assistgate commit`. With -file the diff is read
// locally; without it the server collects the staged diff from the workspace.
func commitCommand(args []string) error {
	fs := flag.NewFlagSet("commit", flag.ExitOnError)
	serverURL := fs.String("server", serverURLDefault(), "assistgate server URL")
	assistantID := fs.String("assistant", "", "assistant to use (default: server default)")
	model := fs.String("model", "", "model override")
	workspace := fs.String("workspace", "", "repository to collect the staged diff from")
	file := fs.String("file", "", "read the diff from this file ('-' for stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	diff := ""
	if *file != "" {
		var err error
		diff, err = readSource(*file)
		if err != nil {
			return err
		}
	}

	env, err := postEnvelope(*serverURL, "/api/v1/git/commit", map[string]string{
		"diff":      diff,
		"assistant": *assistantID,
		"model":     *model,
		"workspace": *workspace,
	})
	if err != nil {
		return err
	}
	return printEnvelope(env)
}
