// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package websocket

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// clientIDCounter hands out monotonically increasing client IDs, which
// give broadcasts a stable order.
var clientIDCounter atomic.Uint64

var errNoViews = errors.New("view control unavailable")

// OpenViewRequest is the payload of an open-view message.
type OpenViewRequest struct {
	Service string            `json:"service"`
	Query   string            `json:"query"`
	Params  map[string]string `json:"params,omitempty"`
}

// CloseViewRequest is the payload of a close-view message.
type CloseViewRequest struct {
	ID string `json:"id"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Request string `json:"request"`
	Message string `json:"message"`
}

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is a middleman between the websocket connection and the hub.
// Views opened through a client are owned by it and closed when it
// disconnects.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	mu    sync.Mutex
	views map[string]struct{}
}

// NewClient creates a new Client with a unique ID
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    clientIDCounter.Add(1),
		hub:   hub,
		conn:  conn,
		send:  make(chan Message, 256),
		views: make(map[string]struct{}),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

// Views returns the handles of the views this client owns, sorted.
func (c *Client) Views() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.views))
	for id := range c.views {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.closeViews()
		select {
		case c.hub.Unregister <- c:
		case <-time.After(writeWait):
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}
		metrics.WSMessagesReceived.Inc()

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(MessageTypeError, ErrorData{Message: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg inbound) {
	switch msg.Type {
	case MessageTypePing:
		c.reply(MessageTypePong, nil)

	case MessageTypeOpenView:
		var req OpenViewRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: "malformed payload"})
			return
		}
		if c.hub.views == nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: errNoViews.Error()})
			return
		}
		info, err := c.hub.views.OpenView(req.Service, req.Query, req.Params)
		if err != nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: err.Error()})
			return
		}
		c.mu.Lock()
		c.views[info.ID] = struct{}{}
		c.mu.Unlock()
		c.reply(MessageTypeViewOpened, info)

	case MessageTypeCloseView:
		var req CloseViewRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: "malformed payload"})
			return
		}
		c.mu.Lock()
		_, owned := c.views[req.ID]
		delete(c.views, req.ID)
		c.mu.Unlock()
		if !owned || c.hub.views == nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: "view not owned by this connection"})
			return
		}
		if err := c.hub.views.CloseView(req.ID); err != nil {
			c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: err.Error()})
			return
		}
		c.reply(MessageTypeViewClosed, req)

	default:
		c.reply(MessageTypeError, ErrorData{Request: msg.Type, Message: "unknown message type"})
	}
}

// reply queues a direct message without blocking the read loop.
func (c *Client) reply(messageType string, data interface{}) {
	select {
	case c.send <- Message{Type: messageType, Data: data}:
	default:
	}
}

// closeViews closes every view this client opened.
func (c *Client) closeViews() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.views))
	for id := range c.views {
		ids = append(ids, id)
	}
	c.views = make(map[string]struct{})
	c.mu.Unlock()

	if c.hub.views == nil {
		return
	}
	for _, id := range ids {
		if err := c.hub.views.CloseView(id); err != nil {
			logging.Debug().Err(err).Str("view_id", id).Msg("view already closed")
		}
	}
	if len(ids) > 0 {
		logging.Info().Uint64("client_id", c.id).Int("views", len(ids)).Msg("closed views of disconnected client")
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			data, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to marshal message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Error().Err(err).Msg("failed to write message")
				return
			}
			metrics.WSMessagesSent.Inc()

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
