// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger builds zerolog loggers from the log section of the service
// configuration. One Manager owns the output writers; packages obtain their
// logger through GetLogger or the static getters in factory.go.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/assistgate/assistgate/internal/config"
)

// Manager hands out per-package loggers that share one set of output writers.
// Package loggers are created lazily and cached.
type Manager struct {
	cfg     *config.LogConfig
	root    zerolog.Logger
	mu      sync.RWMutex
	byPkg   map[string]zerolog.Logger
	closers []io.Closer
}

// NewManager opens the writers named by cfg.Output and builds the root logger
// every package logger derives from.
func NewManager(cfg *config.LogConfig) (*Manager, error) {
	m := &Manager{cfg: cfg, byPkg: make(map[string]zerolog.Logger)}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var writers []io.Writer
	for _, out := range cfg.Output {
		if !out.Enabled {
			continue
		}
		w, err := m.openWriter(out, cfg.Format)
		if err != nil {
			m.Close()
			return nil, err
		}
		writers = append(writers, w)
	}

	var sink io.Writer
	switch len(writers) {
	case 0:
		// Nothing enabled still has to log somewhere.
		sink = os.Stderr
	case 1:
		sink = writers[0]
	default:
		sink = io.MultiWriter(writers...)
	}

	m.root = m.newLogger(sink, parseLevel(cfg.Level))
	return m, nil
}

// openWriter opens one configured output. File outputs always receive JSON
// lines; the console format only applies to the console output.
func (m *Manager) openWriter(out config.LogOutputConfig, format string) (io.Writer, error) {
	switch out.Type {
	case "console":
		if format == "console" {
			return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}, nil
		}
		return os.Stderr, nil

	case "file":
		if err := os.MkdirAll(filepath.Dir(out.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		if out.Rotate.MaxSizeMB > 0 {
			w := &lumberjack.Logger{
				Filename:   out.Path,
				MaxSize:    out.Rotate.MaxSizeMB,
				MaxBackups: out.Rotate.MaxBackups,
				MaxAge:     out.Rotate.MaxAgeDays,
				Compress:   out.Rotate.Compress,
			}
			m.closers = append(m.closers, w)
			return w, nil
		}
		f, err := os.OpenFile(out.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", out.Path, err)
		}
		m.closers = append(m.closers, f)
		return f, nil

	default:
		return nil, fmt.Errorf("unknown log output type %q", out.Type)
	}
}

func (m *Manager) newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	l := zerolog.New(w).Level(level)
	if m.cfg.Context.IncludeTimestamp {
		l = l.With().Timestamp().Logger()
	}
	if m.cfg.Context.IncludeCaller {
		l = l.With().Caller().Logger()
	}
	if m.cfg.Context.IncludeStackTrace != "" {
		l = l.With().Stack().Logger()
	}
	if m.cfg.Sampling.Enabled {
		l = l.Sample(&zerolog.BurstSampler{
			Burst:       m.cfg.Sampling.Initial,
			Period:      m.cfg.Sampling.Tick,
			NextSampler: &zerolog.BasicSampler{N: m.cfg.Sampling.Thereafter},
		})
	}
	return l
}

// GetLogger returns the logger for pkg, tagged with a "pkg" field and set to
// the per-package level from cfg.Levels (global level when absent).
func (m *Manager) GetLogger(pkg string) zerolog.Logger {
	m.mu.RLock()
	l, ok := m.byPkg[pkg]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.byPkg[pkg]; ok {
		return l
	}

	level := parseLevel(m.cfg.Level)
	if pkgLevel, ok := m.cfg.Levels[pkg]; ok {
		level = parseLevel(pkgLevel)
	}
	l = m.root.With().Str("pkg", pkg).Logger().Level(level)
	m.byPkg[pkg] = l
	return l
}

// SetPackageLevel changes the level of an already-issued package logger and
// records it for loggers issued later.
func (m *Manager) SetPackageLevel(pkg, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Levels == nil {
		m.cfg.Levels = make(map[string]string)
	}
	m.cfg.Levels[pkg] = level

	if l, ok := m.byPkg[pkg]; ok {
		m.byPkg[pkg] = l.Level(parseLevel(level))
	}
}

// Close closes every file writer the Manager opened.
func (m *Manager) Close() error {
	var firstErr error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Global manager, shared by the static getters. Initialize wins exactly once;
// before it runs GetLogger hands out discard loggers so nothing pollutes
// stdout/stderr.
var (
	globalManager *Manager
	once          sync.Once
)

// Initialize sets up the global logger manager. Calls after the first are
// no-ops.
func Initialize(cfg *config.LogConfig) error {
	var err error
	once.Do(func() {
		globalManager, err = NewManager(cfg)
	})
	return err
}

// GetLogger returns a logger for the specified package.
func GetLogger(pkg string) zerolog.Logger {
	if globalManager == nil {
		return zerolog.New(io.Discard).With().Timestamp().Logger()
	}
	return globalManager.GetLogger(pkg)
}

// CloseGlobal closes the global manager's writers.
func CloseGlobal() error {
	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}
