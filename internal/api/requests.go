// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/feedloom/internal/validation"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 * 1024

// OpenViewRequest opens an item view.
type OpenViewRequest struct {
	Query  string            `json:"query" validate:"required,max=64,printascii"`
	Params map[string]string `json:"params" validate:"omitempty,max=16,dive,keys,param_key,endkeys,max=256"`
}

// HideItemRequest retracts an item from a view.
type HideItemRequest struct {
	ID      string `json:"id" validate:"required,max=256"`
	Persist bool   `json:"persist"`
}

// StatusRequest posts a status update.
type StatusRequest struct {
	Message string `json:"message" validate:"required,max=1024"`
}

// CredentialsRequest replaces the stored credentials of a service: a
// username/password pair or an OAuth access token pair.
type CredentialsRequest struct {
	Key    string `json:"key" validate:"required,max=256"`
	Secret string `json:"secret" validate:"max=1024"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeAndValidate reads a JSON body into dst and validates it. It writes
// the error response itself and reports whether the handler may proceed.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		respondError(w, r, http.StatusBadRequest, CodeValidation, "invalid JSON body", err)
		return false
	}
	if verr := validation.Struct(dst); verr != nil {
		respondValidationError(w, verr)
		return false
	}
	return true
}
