package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes the client assigns itself when the server does not provide one.
const (
	CodeUnknown         = "UNKNOWN_ERROR"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeUploadFailed    = "UPLOAD_FAILED"
	CodeNotFound        = "NOT_FOUND"
)

const (
	defaultRetryAfter       = 60
	defaultErrorMessage     = "Request failed"
	defaultRateLimitMessage = "Too many requests. Please try again later."
)

// RateLimitError is returned when the backend throttled us, or when the
// client refused to send a request because an earlier 429 has not expired.
type RateLimitError struct {
	Message    string
	RetryAfter int // seconds
}

// NewRateLimitError builds a RateLimitError. RetryAfter defaults to 60 seconds.
func NewRateLimitError(message string, retryAfter ...int) *RateLimitError {
	wait := defaultRetryAfter
	if len(retryAfter) > 0 {
		wait = retryAfter[0]
	}
	return &RateLimitError{Message: message, RetryAfter: wait}
}

func (e *RateLimitError) Error() string { return e.Message }

// Status always reports 429.
func (e *RateLimitError) Status() int { return http.StatusTooManyRequests }

// APIError is any other failed call: a non-2xx response, or a transport or
// decoding failure normalized into the same shape (Status 0 for the former).
type APIError struct {
	Message string
	Status  int
	Code    string
	Err     error
}

// NewAPIError builds an APIError. Code defaults to UNKNOWN_ERROR.
func NewAPIError(message string, status int, code ...string) *APIError {
	c := CodeUnknown
	if len(code) > 0 && code[0] != "" {
		c = code[0]
	}
	return &APIError{Message: message, Status: status, Code: c}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) withCause(err error) *APIError {
	e.Err = err
	return e
}

// IsUnauthorized reports whether err is an APIError with status 401 or 403.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsRateLimited reports whether err is a RateLimitError.
func IsRateLimited(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
