// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// rawMessage is the client-side view of a Message.
type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func setupServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(Message{Type: msgType, Data: data}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func read(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	var msg rawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestClient_Constants(t *testing.T) {
	t.Parallel()
	if pingPeriod >= pongWait {
		t.Errorf("pingPeriod %v must be shorter than pongWait %v", pingPeriod, pongWait)
	}
	if maxMessageSize != 512*1024 {
		t.Errorf("maxMessageSize = %d", maxMessageSize)
	}
}

func TestClient_PingPong(t *testing.T) {
	t.Parallel()
	hub := setupHub(t, nil)
	conn := dialWebSocket(t, setupServer(t, hub))
	defer conn.Close()

	send(t, conn, MessageTypePing, nil)
	if msg := read(t, conn); msg.Type != MessageTypePong {
		t.Errorf("reply type = %q, want pong", msg.Type)
	}
}

func TestClient_ReceivesBroadcast(t *testing.T) {
	t.Parallel()
	hub := setupHub(t, nil)
	conn := dialWebSocket(t, setupServer(t, hub))
	defer conn.Close()
	waitForClients(t, hub, 1)

	hub.BroadcastJSON("capabilities-changed", map[string]interface{}{"service": "digg"})
	msg := read(t, conn)
	if msg.Type != "capabilities-changed" || !strings.Contains(string(msg.Data), "digg") {
		t.Errorf("broadcast = %s %s", msg.Type, msg.Data)
	}
}

func TestClient_UnknownMessage(t *testing.T) {
	t.Parallel()
	hub := setupHub(t, nil)
	conn := dialWebSocket(t, setupServer(t, hub))
	defer conn.Close()

	send(t, conn, "subscribe", nil)
	msg := read(t, conn)
	if msg.Type != MessageTypeError {
		t.Fatalf("reply type = %q, want error", msg.Type)
	}
	var data ErrorData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if data.Request != "subscribe" {
		t.Errorf("error request = %q", data.Request)
	}
}

func TestClient_OpenViewWithoutController(t *testing.T) {
	t.Parallel()
	hub := setupHub(t, nil)
	conn := dialWebSocket(t, setupServer(t, hub))
	defer conn.Close()

	send(t, conn, MessageTypeOpenView, OpenViewRequest{Service: "digg", Query: "feed"})
	if msg := read(t, conn); msg.Type != MessageTypeError {
		t.Errorf("reply type = %q, want error", msg.Type)
	}
}

func TestClient_OpenAndCloseView(t *testing.T) {
	t.Parallel()
	views := newFakeViews()
	hub := setupHub(t, views)
	conn := dialWebSocket(t, setupServer(t, hub))
	defer conn.Close()

	send(t, conn, MessageTypeOpenView, OpenViewRequest{Service: "digg", Query: "feed"})
	msg := read(t, conn)
	if msg.Type != MessageTypeViewOpened {
		t.Fatalf("reply type = %q (%s), want view-opened", msg.Type, msg.Data)
	}
	var info struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(msg.Data, &info); err != nil || info.ID == "" {
		t.Fatalf("view-opened payload = %s, err = %v", msg.Data, err)
	}

	send(t, conn, MessageTypeCloseView, CloseViewRequest{ID: info.ID})
	if msg := read(t, conn); msg.Type != MessageTypeViewClosed {
		t.Errorf("reply type = %q, want view-closed", msg.Type)
	}

	// A second close is rejected: the view is no longer owned.
	send(t, conn, MessageTypeCloseView, CloseViewRequest{ID: info.ID})
	if msg := read(t, conn); msg.Type != MessageTypeError {
		t.Errorf("reply type = %q, want error", msg.Type)
	}

	send(t, conn, MessageTypeOpenView, OpenViewRequest{Service: "nope", Query: "feed"})
	if msg := read(t, conn); msg.Type != MessageTypeError {
		t.Errorf("open on unknown service reply = %q, want error", msg.Type)
	}
}

func TestClient_DisconnectClosesViews(t *testing.T) {
	t.Parallel()
	views := newFakeViews()
	hub := setupHub(t, views)
	conn := dialWebSocket(t, setupServer(t, hub))

	for i := 0; i < 2; i++ {
		send(t, conn, MessageTypeOpenView, OpenViewRequest{Service: "digg", Query: "feed"})
		if msg := read(t, conn); msg.Type != MessageTypeViewOpened {
			t.Fatalf("reply type = %q, want view-opened", msg.Type)
		}
	}
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(views.closedIDs()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("closed views = %v, want 2", views.closedIDs())
		}
		time.Sleep(5 * time.Millisecond)
	}
	waitForClients(t, hub, 0)
}

func TestCheckOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"same host", "http://example.com:8080", true},
		{"foreign host", "http://evil.test", false},
		{"malformed", "://", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "http://example.com:8080/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
