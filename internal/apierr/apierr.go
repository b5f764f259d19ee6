// Package apierr defines the error kinds the decision engine reports to
// its dispatcher: client input faults, operator configuration faults,
// transient upstream faults, and rate limit rejections.
package apierr

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"
)

// ClientError reports invalid caller input, such as a capability the
// requested model does not support. Never retried.
type ClientError struct {
	Message string
}

// NewClientError constructs a ClientError with a formatted message.
func NewClientError(format string, args ...any) *ClientError {
	return &ClientError{Message: fmt.Sprintf(format, args...)}
}

func (e *ClientError) Error() string {
	return e.Message
}

// StatusCode implements the HTTP status mapping used by the API layer.
func (e *ClientError) StatusCode() int {
	return http.StatusBadRequest
}

// ConfigError reports a server-side misconfiguration, such as a missing
// provider credential slot. Requires operator action; never retried.
type ConfigError struct {
	Message string
}

// NewConfigError constructs a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return e.Message
}

// StatusCode implements the HTTP status mapping used by the API layer.
func (e *ConfigError) StatusCode() int {
	return http.StatusInternalServerError
}

// TransientError wraps a retryable upstream failure such as an OAuth
// token exchange error or a store timeout. Retry policy belongs to the
// caller.
type TransientError struct {
	Op  string
	Err error
}

// NewTransientError wraps err as a transient failure for op.
func NewTransientError(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Op + ": transient failure"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// StatusCode implements the HTTP status mapping used by the API layer.
func (e *TransientError) StatusCode() int {
	return http.StatusBadGateway
}

// RateLimitError is a deliberate rejection carrying the window reset so
// callers can compute a Retry-After value.
type RateLimitError struct {
	ResetIn time.Time
}

// NewRateLimitError constructs a RateLimitError for the given reset time.
func NewRateLimitError(reset time.Time) *RateLimitError {
	return &RateLimitError{ResetIn: reset}
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded"
}

// StatusCode implements the HTTP status mapping used by the API layer.
func (e *RateLimitError) StatusCode() int {
	return http.StatusTooManyRequests
}

// Headers returns the Retry-After header derived from the window reset.
func (e *RateLimitError) Headers() http.Header {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	resetSeconds := int(math.Ceil(time.Until(e.ResetIn).Seconds()))
	if resetSeconds < 0 {
		resetSeconds = 0
	}
	headers.Set("Retry-After", strconv.Itoa(resetSeconds))
	return headers
}
