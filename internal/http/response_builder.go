// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses. It keeps
// status codes, headers and error bodies consistent across handlers.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"finanse/internal/core"
	"finanse/internal/period"
)

// VersionHeader reports the ledger version a response was derived from.
const VersionHeader = "X-Ledger-Version"

// ErrBadRequest marks malformed query parameters or bodies.
var ErrBadRequest = errors.New("bad request")

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Version stamps the ledger version the body was derived from.
func (b *ResponseBuilder) Version(v int64) *ResponseBuilder {
	return b.Header(VersionHeader, strconv.FormatInt(v, 10))
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrInvalidType,
	core.ErrInvalidCategoryType,
	core.ErrMissingCategory,
	core.ErrCategoryTypeMismatch,
	core.ErrEmptyName,
	core.ErrMissingIcon,
	core.ErrInvalidColor,
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, period.ErrUnknownOption):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCategoryInUse):
		return http.StatusConflict
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// ErrorFrom builds the response for err. Internal errors are not echoed.
func ErrorFrom(err error) *ResponseBuilder {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		return InternalServerError("internal error")
	}
	return ErrorResponse(status, err.Error())
}
