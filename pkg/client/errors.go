package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the dispatcher.
var (
	// ErrDispatcherClosed is returned by Submit once Close has been called.
	ErrDispatcherClosed = errors.New("dispatcher closed")

	// ErrRetryExhausted is wrapped into the final failure when every attempt was throttled.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassNetwork represents connection and timeout failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassRateLimit represents 429 throttling responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNotFound represents 404 responses.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassClient represents other 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassSchema represents bodies that do not decode into the expected shape.
	ErrorClassSchema ErrorClass = "schema"

	// ErrorClassConsistency represents well-formed but contradictory upstream data.
	ErrorClassConsistency ErrorClass = "consistency"
)

// APIError is the typed failure surfaced for every unsuccessful call.
// StatusCode is HTTP-shaped so callers can special-case 429 and 404.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// NewSchemaError reports a body that could not be decoded or lacks a required field.
func NewSchemaError(message string, err error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		ErrorClass: ErrorClassSchema,
		Message:    message,
		Err:        err,
	}
}

// NewConsistencyError reports upstream data that contradicts the request.
func NewConsistencyError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		ErrorClass: ErrorClassConsistency,
		Message:    message,
	}
}

// classifyStatus maps a non-2xx status to its error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status == http.StatusNotFound:
		return ErrorClassNotFound
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// ClassOf returns the error class of err, or "" if err is not an *APIError.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ""
}

// StatusCodeOf returns the HTTP-shaped status carried by err.
// Errors that are not an *APIError map to 500.
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsThrottled reports whether err is a throttling failure.
func IsThrottled(err error) bool {
	return ClassOf(err) == ErrorClassRateLimit
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	return ClassOf(err) == ErrorClassNotFound
}
