// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements a thin command-line client for a running assistgate
// server. It talks plain HTTP and prints the normalized result envelopes.
package cli

import (
	"fmt"
	"os"
)

const (
	appName    = "assistgate"
	appVersion = "0.1.0-alpha"
)

// Execute runs the CLI application
func Execute() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "chat":
		return chatCommand(args)
	case "explain":
		return codeCommand(args, "explain")
	case "modify":
		return codeCommand(args, "modify")
	case "commit":
		return commitCommand(args)
	case "assistants":
		return assistantsCommand(args)
	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return nil
	case "help", "-h", "--help":
		return printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		return printUsage()
	}
}

func printUsage() error {
	fmt.Printf(`%s - REST gateway client for AI coding assistants

Usage:
  %s <command> [options]

Commands:
  chat        Send a free-form message to an assistant
  explain     Explain code read from a file or stdin
  modify      Modify code read from a file or stdin
  commit      Generate a commit message for a diff
  assistants  List registered assistants and their availability
  version     Print the client version
  help        Show this help

Use "%s <command> -h" for command options.
`, appName, appName, appName)
	return nil
}
