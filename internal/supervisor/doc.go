// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package supervisor runs the process as a thejerf/suture tree.

	feedloom
	├── data-layer       connectivity monitor, config watcher
	├── messaging-layer  websocket hub, event bridge, one engine per service
	└── api-layer        HTTP server

Each layer is its own supervisor, so a crash loop in one layer backs off
without taking the others down. Supervisor events are logged through
sutureslog on the process slog logger.

EngineSupervisor tracks the engines added to the messaging layer so they
can be stopped individually, for example when a service is disabled.
*/
package supervisor
