// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package main is the entry point for the Feedloom server.

Feedloom aggregates the activity feeds of Digg, MySpace, Sina, Plurk and
YouTube into one normalized item stream. Every enabled service gets its own
engine that runs the credential state machine, owns the service's live views
and refreshes them on a timer. Clients drive the engines through a REST API
and receive refresh notifications over a websocket.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("feedloom")
	├── DataSupervisor ("data-layer")
	│   ├── Connectivity monitor
	│   └── Config watcher (when a config file exists)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── Event bridge (engine bus -> websocket)
	│   └── One engine per enabled service
	└── APISupervisor ("api-layer")
	    └── HTTP server

Initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment
 2. Logging: zerolog, bridged to slog for suture and watermill
 3. Storage: BadgerDB item cache, encrypted BadgerDB secret store, SQLite banlist
 4. Engines: one connector and engine per enabled service
 5. Realtime: watermill event bus and websocket hub
 6. HTTP: chi router with rate limiting and Prometheus metrics

# Configuration

Environment variables (highest priority):

	HTTP_PORT=3858
	LOG_LEVEL=info
	SECRET_KEY=change-me
	CACHE_PATH=/data/cache
	SECRETS_PATH=/data/secrets
	BANLIST_PATH=/data/banlist.db
	CONNECTIVITY_CHECK_URL=https://example.com

Each service reads <SERVICE>_ENABLED, <SERVICE>_API_KEY, <SERVICE>_API_SECRET,
<SERVICE>_USERNAME, <SERVICE>_PASSWORD and friends, for example:

	PLURK_ENABLED=true
	PLURK_API_KEY=...
	PLURK_API_SECRET=...

A service enabled without its API key is logged and skipped; the rest of the
server keeps running.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server,
the engines and the hub, then the stores are closed.
*/
package main
