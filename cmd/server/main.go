// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/assistant/claudecli"
	"github.com/assistgate/assistgate/internal/assistant/copilot"
	"github.com/assistgate/assistgate/internal/config"
	"github.com/assistgate/assistgate/internal/invoke"
	"github.com/assistgate/assistgate/internal/logger"
	"github.com/assistgate/assistgate/internal/server"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.NewConfig("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseGlobal()

	mainLog := logger.GetLogger("main")
	mainLog.Info().Str("version", version).Msg("Starting assistgate API server")

	registry, err := buildRegistry(cfg)
	if err != nil {
		mainLog.Error().Err(err).Msg("Error building assistant registry")
		fmt.Fprintf(os.Stderr, "Error building assistant registry: %v\n", err)
		os.Exit(1)
	}
	mainLog.Info().Int("assistants", registry.Len()).Msg("Assistant registry ready")

	// This context drives the event broadcaster's lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(&cfg.Server, registry, version)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Run(ctx)
	}()

	// Wait for signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info().Msgf("Received signal %v, shutting down...", sig)
	case err := <-serverErrChan:
		if err != nil {
			mainLog.Error().Err(err).Msg("Server error")
		}
	}

	// Graceful shutdown: fresh context with timeout, independent of the run ctx.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Error().Err(err).Msg("Error shutting down server")
	}

	mainLog.Info().Msg("API server shut down")
}

// buildRegistry wires the configured adapters onto a shared process invoker.
func buildRegistry(cfg *config.AppConfig) (*assistant.Registry, error) {
	prompts := assistant.DefaultPrompts()
	if cfg.Assistants.PromptFile != "" {
		loaded, err := assistant.LoadPromptFile(cfg.Assistants.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("loading prompt file: %w", err)
		}
		prompts = loaded
	}

	runner := invoke.New(invoke.WithMaxOutputBytes(cfg.Invoker.MaxOutputBytes))
	registry := assistant.NewRegistry()

	if cfg.Assistants.Copilot.Enabled {
		ad := copilot.New(runner, prompts, copilot.Config{
			Command:      cfg.Assistants.Copilot.Command,
			DefaultModel: cfg.Assistants.Copilot.DefaultModel,
			Timeout:      cfg.Assistants.Copilot.Timeout,
			ChatTimeout:  cfg.Assistants.Copilot.ChatTimeout,
			ProbeTimeout: cfg.Assistants.Copilot.ProbeTimeout,
			Workspace:    cfg.Assistants.Workspace,
		})
		if err := registry.Register(ad); err != nil {
			return nil, err
		}
	}

	if cfg.Assistants.Claude.Enabled {
		ad := claudecli.New(runner, prompts, claudecli.Config{
			Command:      cfg.Assistants.Claude.Command,
			DefaultModel: cfg.Assistants.Claude.DefaultModel,
			Timeout:      cfg.Assistants.Claude.Timeout,
			ChatTimeout:  cfg.Assistants.Claude.ChatTimeout,
			ProbeTimeout: cfg.Assistants.Claude.ProbeTimeout,
			Workspace:    cfg.Assistants.Workspace,
		})
		if err := registry.Register(ad); err != nil {
			return nil, err
		}
	}

	if cfg.Assistants.Default != "" {
		if err := registry.SetDefault(cfg.Assistants.Default); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
