// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/engine"
	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/models"
	"github.com/tomtom215/feedloom/internal/remote"
	"github.com/tomtom215/feedloom/internal/validation"
	"github.com/tomtom215/feedloom/internal/view"
)

// Error codes carried in models.APIError.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnsupported  = "UNSUPPORTED"
	CodeConflict     = "CONFLICT"
	CodeNotConnected = "NOT_CONNECTED"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeConfig       = "CONFIG_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// sanitizeLogValue replaces control characters so client-supplied values
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes response with status.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// respondError writes an error envelope. err is logged, never sent.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message},
	})
}

func respondValidationError(w http.ResponseWriter, errs validation.Errors) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    errs.APIError(),
	})
}

// respondEngineError maps an engine-layer error to a status and code.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *remote.APIError
	switch {
	case errors.Is(err, engine.ErrServiceNotFound), errors.Is(err, engine.ErrViewNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, engine.ErrInvalidQuery):
		respondError(w, r, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	case errors.Is(err, engine.ErrUnsupported):
		respondError(w, r, http.StatusConflict, CodeUnsupported, err.Error(), nil)
	case errors.Is(err, engine.ErrNotConnected):
		respondError(w, r, http.StatusConflict, CodeNotConnected, err.Error(), nil)
	case errors.Is(err, view.ErrNotRunning), errors.Is(err, view.ErrAlreadyRunning):
		respondError(w, r, http.StatusConflict, CodeConflict, err.Error(), nil)
	case remote.IsConfigError(err):
		respondError(w, r, http.StatusServiceUnavailable, CodeConfig, err.Error(), err)
	case errors.As(err, &apiErr):
		respondError(w, r, http.StatusBadGateway, CodeUpstream, apiErr.Error(), err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "internal error", err)
	}
}
