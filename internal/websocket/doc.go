// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package websocket is the push channel of the presentation surface.

A Hub fans messages out to every connected Client. An EventBridge
subscribes to the engine event bus and forwards each event (refreshed,
capabilities-changed, user-changed, avatar-retrieved, status-updated) as a
message whose type is the event type and whose data is the event.

Clients may also drive views directly:

	-> {"type":"open-view","data":{"service":"digg","query":"feed"}}
	<- {"type":"view-opened","data":{"id":"...","service":"digg",...}}
	-> {"type":"close-view","data":{"id":"..."}}
	<- {"type":"view-closed","data":{"id":"..."}}

Views opened over a connection belong to it and are closed when the
connection goes away.

Each client runs a read and a write goroutine. The write side pings every
54s and the read side drops the connection after 60s without a pong.
Broadcasts are delivered in client ID order; a client whose 256-message
buffer is full is disconnected.
*/
package websocket
