// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all application configuration.
// It is instantiated by NewConfig() and passed to components that need it (dependency injection).
type AppConfig struct {
	Log        LogConfig        `mapstructure:"log"`
	Server     ServerConfig     `mapstructure:"server"`
	Invoker    InvokerConfig    `mapstructure:"invoker"`
	Assistants AssistantsConfig `mapstructure:"assistants"`
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file", "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeLevel      bool   `mapstructure:"include_level"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"` // Level at which to include stack trace
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // Empty = allow all (development); set for production
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

// InvokerConfig holds process invocation limits shared by all adapters.
type InvokerConfig struct {
	MaxOutputBytes int `mapstructure:"max_output_bytes"` // 0 = unlimited
}

// AssistantsConfig selects and tunes the registered assistant adapters.
type AssistantsConfig struct {
	Default    string          `mapstructure:"default"`     // identifier of the default assistant
	PromptFile string          `mapstructure:"prompt_file"` // optional prompt template overrides (YAML)
	Workspace  string          `mapstructure:"workspace"`   // default working directory for invocations
	Copilot    AssistantConfig `mapstructure:"copilot"`
	Claude     AssistantConfig `mapstructure:"claude"`
}

// AssistantConfig holds per-assistant settings. Zero values fall back to each
// adapter's built-in defaults.
type AssistantConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Command      string        `mapstructure:"command"`       // executable name or path
	DefaultModel string        `mapstructure:"default_model"` // model used when requests don't name one
	Timeout      time.Duration `mapstructure:"timeout"`       // code/commit operations
	ChatTimeout  time.Duration `mapstructure:"chat_timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	// Create a new config struct with default values
	cfg := defaultConfig()

	v := viper.New()

	// Set config file if provided, otherwise search in standard locations
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/assistgate/")
		v.AddConfigPath("$HOME/.assistgate")
	}

	// Configure viper to use environment variables
	v.SetEnvPrefix("ASSISTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file. It's okay if it doesn't exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal the viper configuration into our config struct.
	// This will overwrite the default values with any values found in the config file or env vars.
	// We use a decoder hook to correctly handle nested structs.
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand paths that may contain ~ or environment variables
	cfg.expandPaths()

	// Validate the final configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// defaultConfig returns an AppConfig with default values.
// This is more type-safe than using viper.SetDefault().
func defaultConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "./logs/assistgate.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  100,
						MaxBackups: 7,
						MaxAgeDays: 30,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: true,
				},
			},
			Levels: map[string]string{
				"api":     "INFO",
				"invoker": "INFO",
				"adapter": "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:     true,
				IncludeTimestamp:  true,
				IncludeLevel:      true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			MaxBodyBytes: 1 << 20,
		},
		Invoker: InvokerConfig{
			MaxOutputBytes: 0,
		},
		Assistants: AssistantsConfig{
			// Empty default: the first enabled assistant wins. Disabling
			// copilot and enabling claude then works without extra config.
			Default:   "",
			Workspace: "./tmp",
			Copilot: AssistantConfig{
				Enabled:      true,
				Command:      "copilot",
				DefaultModel: "claude-haiku-4.5",
				Timeout:      60 * time.Second,
				ChatTimeout:  10 * time.Minute,
				ProbeTimeout: 5 * time.Second,
			},
			Claude: AssistantConfig{
				Enabled:      false,
				Command:      "claude",
				Timeout:      60 * time.Second,
				ChatTimeout:  10 * time.Minute,
				ProbeTimeout: 5 * time.Second,
			},
		},
	}
}

// expandPaths expands ~ and environment variables in path configuration values
func (c *AppConfig) expandPaths() {
	if c.Assistants.PromptFile != "" {
		c.Assistants.PromptFile = expandPath(c.Assistants.PromptFile)
	}
	if c.Assistants.Workspace != "" {
		c.Assistants.Workspace = expandPath(c.Assistants.Workspace)
	}
	for i := range c.Log.Output {
		if c.Log.Output[i].Path != "" {
			c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
		}
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	return path
}

// validate checks if the configuration is valid.
func (c *AppConfig) validate() error {
	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}

	if !c.Assistants.Copilot.Enabled && !c.Assistants.Claude.Enabled {
		return fmt.Errorf("at least one assistant must be enabled")
	}

	switch c.Assistants.Default {
	case "":
		// Empty means the first enabled assistant becomes the default.
	case "copilot":
		if !c.Assistants.Copilot.Enabled {
			return fmt.Errorf("default assistant %q is disabled; enable it or change assistants.default", c.Assistants.Default)
		}
	case "claude":
		if !c.Assistants.Claude.Enabled {
			return fmt.Errorf("default assistant %q is disabled; enable it or change assistants.default", c.Assistants.Default)
		}
	default:
		return fmt.Errorf("unknown default assistant: %s", c.Assistants.Default)
	}

	for name, ac := range map[string]AssistantConfig{
		"copilot": c.Assistants.Copilot,
		"claude":  c.Assistants.Claude,
	} {
		if !ac.Enabled {
			continue
		}
		if ac.Command == "" {
			return fmt.Errorf("assistants.%s.command is required when enabled", name)
		}
		if ac.Timeout < 0 || ac.ChatTimeout < 0 || ac.ProbeTimeout < 0 {
			return fmt.Errorf("assistants.%s timeouts must not be negative", name)
		}
	}

	return nil
}
