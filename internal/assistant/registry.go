// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"fmt"

	"github.com/samber/lo"
)

// Registry maps assistant identifiers to adapter instances. It is populated
// once at startup and read-only afterward, so concurrent reads need no
// locking. There is deliberately no package-level instance: the registry is
// constructed explicitly and handed to whatever needs assistant resolution.
type Registry struct {
	byID      map[string]Adapter
	order     []string // registration order, drives List()
	defaultID string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Adapter)}
}

// Register adds an adapter under its descriptor identifier. Registration
// happens during startup only; registering the same identifier twice is a
// programming error and is rejected.
func (r *Registry) Register(a Adapter) error {
	id := a.Descriptor().ID
	if id == "" {
		return fmt.Errorf("adapter descriptor has empty identifier")
	}
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("assistant %q already registered", id)
	}
	r.byID[id] = a
	r.order = append(r.order, id)
	return nil
}

// SetDefault selects which assistant Default() resolves to. The identifier
// must already be registered.
func (r *Registry) SetDefault(id string) error {
	if _, exists := r.byID[id]; !exists {
		return fmt.Errorf("%w: %s", ErrAssistantNotFound, id)
	}
	r.defaultID = id
	return nil
}

// Resolve returns the adapter registered under id.
func (r *Registry) Resolve(id string) (Adapter, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssistantNotFound, id)
	}
	return a, nil
}

// ResolveFor resolves id (or the default when id is empty) and verifies the
// adapter supports op before any process is spawned.
func (r *Registry) ResolveFor(id string, op Operation) (Adapter, error) {
	var (
		a   Adapter
		err error
	)
	if id == "" {
		a, err = r.Default()
	} else {
		a, err = r.Resolve(id)
	}
	if err != nil {
		return nil, err
	}
	if !a.Descriptor().Supports(op) {
		return nil, fmt.Errorf("%w: %s does not support %s", ErrUnsupportedOperation, a.Descriptor().ID, op)
	}
	return a, nil
}

// Default returns the configured default adapter. When no default was set,
// the first registered adapter is used. An empty registry has no default.
func (r *Registry) Default() (Adapter, error) {
	if r.defaultID != "" {
		return r.Resolve(r.defaultID)
	}
	if len(r.order) == 0 {
		return nil, ErrNoDefaultConfigured
	}
	return r.byID[r.order[0]], nil
}

// List returns the descriptors of all registered adapters in registration order.
func (r *Registry) List() []Descriptor {
	return lo.Map(r.order, func(id string, _ int) Descriptor {
		return r.byID[id].Descriptor()
	})
}

// Statuses probes every registered adapter and reports its availability, in
// registration order. Probe failures read as unavailable, never as errors.
func (r *Registry) Statuses(ctx context.Context) []Status {
	return lo.Map(r.order, func(id string, _ int) Status {
		a := r.byID[id]
		d := a.Descriptor()
		return Status{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Available:   a.IsAvailable(ctx),
		}
	})
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.order)
}
