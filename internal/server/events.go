// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides a REST + WebSocket API. Handlers call assistant
// adapters directly for invocations and broadcast resulting lifecycle events
// to connected WebSocket clients.
package server

import (
	"context"
	"sync"

	"github.com/assistgate/assistgate/internal/logger"
	"github.com/assistgate/assistgate/internal/protocol"

	"github.com/rs/zerolog"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetLogger("api")
		log = &l
	})
	return log
}

// EventBroadcaster reads every event published by the HTTP handlers and
// fans them out to all connected WebSocket clients.
type EventBroadcaster struct {
	eventChan chan protocol.Event
	clients   *ClientRegistry
}

// NewEventBroadcaster creates a broadcaster with an internal buffered event
// channel. Handlers write into it via Publish; Run drains it.
func NewEventBroadcaster(clients *ClientRegistry) *EventBroadcaster {
	return &EventBroadcaster{
		eventChan: make(chan protocol.Event, 256),
		clients:   clients,
	}
}

// Publish enqueues an event for broadcast. It never blocks a handler: when
// the buffer is full the event is dropped with a warning.
func (b *EventBroadcaster) Publish(event protocol.Event) {
	select {
	case b.eventChan <- event:
	default:
		getLog().Warn().Msg("Event buffer full, dropping broadcast event")
	}
}

// Run reads events until the context is cancelled.
func (b *EventBroadcaster) Run(ctx context.Context) {
	for {
		select {
		case event, ok := <-b.eventChan:
			if !ok {
				getLog().Info().Msg("Event broadcaster stopped (channel closed)")
				return
			}
			b.dispatch(event)
		case <-ctx.Done():
			getLog().Info().Msg("Event broadcaster stopped (context cancelled)")
			return
		}
	}
}

func (b *EventBroadcaster) dispatch(event protocol.Event) {
	if b.clients != nil {
		b.clients.Broadcast(event)
	}
}
