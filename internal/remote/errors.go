// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized marks service-detected credential rejections that do not
// arrive as HTTP 401/403 (for example an error document returned with 200).
var ErrUnauthorized = errors.New("credentials rejected")

// TransportError is a failure below HTTP: DNS, TCP, TLS, timeouts.
type TransportError struct {
	Service string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: transport failure: %v", e.Service, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-success HTTP response.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	// Auth is set by connectors that recognise a credential rejection in
	// the body even though the status code does not say so.
	Auth bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: api error %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: api error %d: %s", e.Service, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match auth-shaped API errors.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.isAuth()
}

func (e *APIError) isAuth() bool {
	return e.Auth || e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ParseError reports a malformed or unexpected response body.
type ParseError struct {
	Service string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Service, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError aborts a service's initialization.
type ConfigError struct {
	Service string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Service, e.Reason)
}

// NewConfigError builds a ConfigError.
func NewConfigError(service, reason string) error {
	return &ConfigError{Service: service, Reason: reason}
}

// IsAuthError reports whether err means the credentials were rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Outcome classifies err into a metrics label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		te *TransportError
		ae *APIError
		pe *ParseError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &ae):
		return "api"
	case errors.As(err, &pe):
		return "parse"
	default:
		return "other"
	}
}
