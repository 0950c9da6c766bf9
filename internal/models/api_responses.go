// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package models

import "time"

// APIResponse is the envelope written by every HTTP endpoint.
//
//	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
//	{"status":"error","error":{"code":"NOT_FOUND","message":"view not found"},"metadata":{...}}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response bookkeeping.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	// RequestID echoes X-Request-ID on error responses.
	RequestID string `json:"request_id,omitempty"`
}

// APIError is the machine-readable error body.
//
// Codes in use: VALIDATION_ERROR, NOT_FOUND, UNSUPPORTED, CONFLICT,
// NOT_CONNECTED, UPSTREAM_ERROR, CONFIG_ERROR, RATE_LIMITED,
// METHOD_NOT_ALLOWED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ViewInfo describes an open item view.
type ViewInfo struct {
	ID      string            `json:"id"`
	Service string            `json:"service"`
	Query   string            `json:"query"`
	Params  map[string]string `json:"params,omitempty"`
	Running bool              `json:"running"`
}

// ServiceInfo describes one configured service.
type ServiceInfo struct {
	Name         string   `json:"name"`
	State        string   `json:"state"`
	Capabilities []string `json:"capabilities"`
	OpenViews    int      `json:"open_views"`
}
