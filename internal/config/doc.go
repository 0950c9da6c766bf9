// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package config provides layered configuration for Feedloom.

# Configuration Sources

Values are loaded with koanf in increasing priority:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file, found via CONFIG_PATH or DefaultConfigPaths
 3. Environment variables, mapped explicitly by envTransformFunc

Unmapped environment variables are ignored.

# Configuration Structure

  - ServerConfig: HTTP listen address and timeouts
  - LoggingConfig: zerolog level, format and caller info
  - StorageConfig: badger, sqlite and avatar locations
  - SecurityConfig: secret-store key and API rate limiting
  - ConnectivityConfig: reachability probe
  - ServicesConfig: one ServiceConfig per social service

# Environment Variables

Per-service settings use the service name as prefix, for example:

	PLURK_ENABLED=true
	PLURK_API_KEY=...
	PLURK_USERNAME=alice
	SINA_MODE=both
	YOUTUBE_REFRESH_INTERVAL=10m

# Watching

Watcher follows the YAML file and reports changes to service usernames
and passwords as KeyChanged events, which drive the credentials-updated
path of the aggregation engine.

# Validation

Validate rejects malformed values (bad port, unknown log level or mode,
non-positive refresh interval, malformed base URL of an enabled
service). Missing API keys are not rejected here; each service reports
them when it initializes.
*/
package config
