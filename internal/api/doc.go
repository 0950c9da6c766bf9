// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

/*
Package api exposes the presentation operations of the engine registry over
HTTP with a chi router.

Routes (all under /api/v1 unless noted):

	GET    /health/live                      liveness
	GET    /health/performance               per-route latency percentiles
	GET    /services                         every enabled service
	GET    /services/{service}/capabilities  static + dynamic capabilities
	POST   /services/{service}/views         open an item view
	POST   /services/{service}/status        post a status update
	POST   /services/{service}/avatar        download the session avatar
	POST   /services/{service}/credentials   store credentials, re-authenticate
	GET    /views                            every open view
	DELETE /views/{id}                       close a view
	POST   /views/{id}/refresh               out-of-band fetch
	GET    /views/{id}/items                 current published items
	POST   /views/{id}/hide                  retract (and optionally ban) an item
	GET    /ws                               websocket push channel
	GET    /metrics                          prometheus (root, not versioned)

Every JSON response uses the models.APIResponse envelope:

	{"status":"success","data":...,"metadata":{"timestamp":"..."}}
	{"status":"error","error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}
*/
package api
