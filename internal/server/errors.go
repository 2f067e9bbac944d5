package server

import (
	"fmt"
	"net/http"
)

// ErrorKind enumerates the failures a request can end with.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindBadRequest
	KindValidation
	KindDatabase
	KindInternal
)

const databaseErrorMessage = "A database error occurred"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError carries a failure from a handler to the error responder. Cause is
// logged but never sent to the client.
type APIError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return "Not found: " + e.Message
	case KindBadRequest:
		return "Bad request: " + e.Message
	case KindValidation:
		return "Validation error: " + e.Message
	case KindDatabase:
		return fmt.Sprintf("Database error: %v", e.Cause)
	default:
		return "Internal error: " + e.Message
	}
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Status maps the error kind to its HTTP status code.
func (e *APIError) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Response renders the client-facing body.
func (e *APIError) Response() ErrorResponse {
	switch e.Kind {
	case KindNotFound:
		return ErrorResponse{Error: "not_found", Message: e.Message}
	case KindBadRequest:
		return ErrorResponse{Error: "bad_request", Message: e.Message}
	case KindValidation:
		return ErrorResponse{Error: "validation", Message: e.Message}
	case KindDatabase:
		return ErrorResponse{Error: "database", Message: databaseErrorMessage}
	default:
		return ErrorResponse{Error: "internal", Message: e.Message}
	}
}

func errNotFound(msg string) *APIError {
	return &APIError{Kind: KindNotFound, Message: msg}
}

func errBadRequest(msg string, cause error) *APIError {
	return &APIError{Kind: KindBadRequest, Message: msg, Cause: cause}
}

func errValidation(msg string) *APIError {
	return &APIError{Kind: KindValidation, Message: msg}
}

func errDatabase(cause error) *APIError {
	return &APIError{Kind: KindDatabase, Cause: cause}
}

func errInternal(msg string, cause error) *APIError {
	return &APIError{Kind: KindInternal, Message: msg, Cause: cause}
}

func todoNotFound(id int64) *APIError {
	return errNotFound(fmt.Sprintf("Todo with id %d not found", id))
}
