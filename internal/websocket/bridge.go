// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
)

// EventSource is the subscribe side of the engine event bus.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// EventBridge forwards every engine event to the hub. Each message is
// acked once queued, so a slow websocket never stalls the engines.
type EventBridge struct {
	hub    *Hub
	source EventSource
}

// NewEventBridge creates a bridge from source to hub.
func NewEventBridge(hub *Hub, source EventSource) *EventBridge {
	return &EventBridge{hub: hub, source: source}
}

// Serve implements suture.Service.
func (b *EventBridge) Serve(ctx context.Context) error {
	messages, err := b.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	logging.Info().Str("topic", engine.Topic).Msg("event bridge started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// The bus closed; let the supervisor decide whether to restart.
				return nil
			}
			b.forward(msg)
		}
	}
}

func (b *EventBridge) forward(msg *message.Message) {
	defer msg.Ack()

	ev, err := engine.DecodeEvent(msg)
	if err != nil {
		logging.Warn().Err(err).Msg("dropping undecodable event")
		return
	}
	b.hub.BroadcastJSON(ev.Type, ev)
}

// String implements fmt.Stringer for suture logging.
func (b *EventBridge) String() string {
	return "event-bridge"
}
