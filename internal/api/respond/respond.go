// Package respond writes the shared JSON response envelope: payloads
// under {"data": ...}, failures under {"error": {code, message, detail}}.
package respond

import (
	"encoding/json"
	"log"
	"net/http"
)

// Error is the wire form of an API failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"` // populated only in development mode
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Message
}

// Error codes shared across handlers.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeStorageFailure   = "STORAGE_FAILURE"
	CodeGatewayFailure   = "GATEWAY_FAILURE"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error *Error `json:"error"`
}

// JSON writes data under the envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// OK writes a 200 OK response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Err writes the error envelope using the error's status code.
func Err(w http.ResponseWriter, e *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Error: e}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// BadRequest builds a 400 error for a malformed request.
func BadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

// Validation builds a 400 error for a failed field validation.
func Validation(message string) *Error {
	return &Error{Code: CodeValidationFailed, Message: message, Status: http.StatusBadRequest}
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// Internal builds a 500 error with a fixed message.
func Internal() *Error {
	return &Error{Code: CodeInternalError, Message: "internal server error", Status: http.StatusInternalServerError}
}

// Storage builds a 500 error for a failed required collaborator. The
// detail is attached only in development mode.
func Storage(detail string, development bool) *Error {
	e := &Error{Code: CodeStorageFailure, Message: "storage failure", Status: http.StatusInternalServerError}
	if development {
		e.Detail = detail
	}
	return e
}

// Gateway builds a 502 error for a failed messaging-gateway call.
func Gateway(detail string, development bool) *Error {
	e := &Error{Code: CodeGatewayFailure, Message: "messaging gateway unavailable", Status: http.StatusBadGateway}
	if development {
		e.Detail = detail
	}
	return e
}
