// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

// Package logging provides the process-wide zerolog logger for Feedloom.
//
// Every component logs through this package rather than holding its own
// logger. The global logger is safe to use before Init is called; Init
// reconfigures it from the loaded configuration.
//
// # Usage
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//
//	logging.Info().Str("service", "plurk").Msg("Engine started")
//	logging.Err(err).Str("view_id", id).Msg("Fetch cycle failed")
//
// Fetch cycles carry a correlation ID in their context so that every log
// line emitted during one cycle can be grouped:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Debug().Msg("Issuing remote call")
//
// # Adapters
//
// SlogHandler bridges log/slog onto zerolog so that libraries which only
// accept a *slog.Logger (sutureslog, watermill) write through the same
// sink and level.
//
// # Environment Variables
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
