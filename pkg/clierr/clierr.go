package clierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/laelblog/blogctl/client"
)

// Type categorizes a CLI-facing error for consistent messaging & exit codes.
type Type string

const (
	Validation  Type = "validation"
	NotFound    Type = "not_found"
	RateLimited Type = "rate_limited"
	Auth        Type = "auth"
	API         Type = "api"
	Network     Type = "network"
	Internal    Type = "internal"
)

var exitCodes = map[Type]int{
	Validation:  2,
	NotFound:    3,
	Auth:        4,
	RateLimited: 5,
	API:         6,
	Network:     7,
	Internal:    1,
}

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// ExitCode is the process exit status for this error.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Type]; ok {
		return code
	}
	return 1
}

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// FromAPI turns an error from the blog client into what the user sees:
// a countdown for rate limits, a login hint for 401/403, and the server's
// message with status and code for anything else.
func FromAPI(err error) *Error {
	if err == nil {
		return nil
	}

	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var rlErr *client.RateLimitError
	if errors.As(err, &rlErr) {
		return New(RateLimited, fmt.Sprintf("Too many requests. Try again in %d seconds.", rlErr.RetryAfter), err)
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return New(Auth, "Authentication failed. Run 'blogctl login'.", err)
		case apiErr.Status == http.StatusNotFound:
			return New(NotFound, apiErr.Message, err)
		case apiErr.Status == 0 && apiErr.Code == client.CodeNetworkError:
			return New(Network, apiErr.Error(), err)
		case apiErr.Status == 0:
			return New(Internal, apiErr.Error(), err)
		default:
			return New(API, fmt.Sprintf("%s (status %d, code %s)", apiErr.Message, apiErr.Status, apiErr.Code), err)
		}
	}

	return New(Internal, err.Error(), err)
}

// ExitCode maps any error to a process exit status; nil is 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return FromAPI(err).ExitCode()
}
