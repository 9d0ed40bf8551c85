// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// response.go - Standardized JSON response envelope
//
// Every JSON endpoint answers with the same wrapper so clients handle
// success and failure uniformly. Error codes are machine-readable; the
// request ID ties a response to its log lines.

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tradewatch/tradewatch/internal/logging"
	"github.com/tradewatch/tradewatch/internal/middleware"
)

// Response is the wrapper for all JSON endpoints.
type Response struct {
	// Success indicates whether the request succeeded.
	Success bool `json:"success"`

	// Data contains the response payload (null on error).
	Data any `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *ResponseError `json:"error,omitempty"`

	// Meta contains response metadata.
	Meta *ResponseMeta `json:"meta,omitempty"`
}

// ResponseError carries a machine-readable code and a human message.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Details holds structured error context, e.g. field validation
	// failures.
	Details any `json:"details,omitempty"`
}

// ResponseMeta ties a response to its request for tracing.
type ResponseMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error codes used across the JSON API.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"
)

// respondJSON writes a success envelope with the given status and data.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, r, status, Response{
		Success: true,
		Data:    data,
		Meta:    newMeta(r),
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeEnvelope(w, r, status, Response{
		Success: false,
		Error: &ResponseError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: newMeta(r),
	})
}

func newMeta(r *http.Request) *ResponseMeta {
	return &ResponseMeta{
		RequestID: middleware.GetRequestID(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, envelope Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		// Headers are gone; all we can do is log.
		logging.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("failed to encode response")
	}
}
