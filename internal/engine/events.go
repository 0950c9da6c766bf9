// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/metrics"
	"github.com/tomtom215/feedloom/internal/models"
)

// Topic carries every subscriber event.
const Topic = "feed.events"

// Event types.
const (
	EventRefreshed           = "refreshed"
	EventCapabilitiesChanged = "capabilities-changed"
	EventUserChanged         = "user-changed"
	EventAvatarRetrieved     = "avatar-retrieved"
	EventStatusUpdated       = "status-updated"
)

// Event is the wire form of a subscriber event.
type Event struct {
	Type         string          `json:"type"`
	Service      string          `json:"service"`
	ViewID       string          `json:"view_id,omitempty"`
	Query        string          `json:"query,omitempty"`
	Items        *models.ItemSet `json:"items,omitempty"`
	Capabilities []string        `json:"capabilities,omitempty"`
	Path         string          `json:"path,omitempty"`
	Success      *bool           `json:"success,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Bus is the in-process event bus.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates a bus. Publishing blocks until every subscriber has
// acknowledged the message, which keeps events of one publisher in order.
func NewBus(logger *slog.Logger) *Bus {
	var wmLogger watermill.LoggerAdapter = watermill.NopLogger{}
	if logger != nil {
		wmLogger = watermill.NewSlogLogger(logger)
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: true,
		}, wmLogger),
	}
}

// Publish sends ev on Topic.
func (b *Bus) Publish(ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("type", ev.Type)
	msg.Metadata.Set("service", ev.Service)

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Type).Inc()
	return nil
}

// Subscribe returns the raw message stream of Topic. Every message must
// be acked.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, Topic)
}

// Close shuts the bus down.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeEvent parses a bus message.
func DecodeEvent(msg *message.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	return ev, nil
}
