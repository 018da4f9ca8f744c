package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// InputError signals a missing or malformed request input (400).
type InputError struct{ msg string }

func (e InputError) Error() string   { return e.msg }
func (e InputError) StatusCode() int { return http.StatusBadRequest }

// ErrInput constructs an InputError.
func ErrInput(msg string) error { return InputError{msg: msg} }

// IsInput reports whether err is an InputError.
func IsInput(err error) bool {
	var e InputError
	return errors.As(err, &e)
}

// ConfigurationError signals an operator-fixable problem such as a missing
// API credential. It is fatal for the call and not retryable.
type ConfigurationError struct{ msg string }

func (e ConfigurationError) Error() string   { return e.msg }
func (e ConfigurationError) StatusCode() int { return http.StatusInternalServerError }

// ErrConfiguration constructs a ConfigurationError.
func ErrConfiguration(msg string) error { return ConfigurationError{msg: msg} }

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var e ConfigurationError
	return errors.As(err, &e)
}

// RetryableError signals that the upstream model is still warming up (503).
type RetryableError struct {
	// Estimate is the upstream warm-up estimate; zero when unknown.
	Estimate time.Duration
}

func (e RetryableError) Error() string {
	if e.Estimate > 0 {
		secs := int(math.Ceil(e.Estimate.Seconds()))
		return fmt.Sprintf("Model is loading. Please try again in about %d seconds.", secs)
	}
	return "Model is loading. Please try again in a few seconds."
}
func (e RetryableError) StatusCode() int { return http.StatusServiceUnavailable }

// RetryAfter is the suggested client wait before re-submitting.
func (e RetryableError) RetryAfter() time.Duration {
	if e.Estimate > 0 {
		return e.Estimate
	}
	return 5 * time.Second
}

// IsRetryable reports whether err is a RetryableError.
func IsRetryable(err error) bool {
	var e RetryableError
	return errors.As(err, &e)
}

// RateLimitError signals upstream throttling (429).
type RateLimitError struct{}

func (RateLimitError) Error() string   { return "Rate limit exceeded. Please try again later." }
func (RateLimitError) StatusCode() int { return http.StatusTooManyRequests }

// IsRateLimit reports whether err is a RateLimitError.
func IsRateLimit(err error) bool {
	var e RateLimitError
	return errors.As(err, &e)
}

// UpstreamError is the catch-all for upstream and transport failures (500).
type UpstreamError struct {
	msg string
	err error
}

func (e UpstreamError) Error() string {
	if e.msg == "" {
		return "Inference failed. Please try again."
	}
	return e.msg
}
func (e UpstreamError) StatusCode() int { return http.StatusInternalServerError }
func (e UpstreamError) Unwrap() error   { return e.err }

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var e UpstreamError
	return errors.As(err, &e)
}

// Outcome labels err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsInput(err):
		return "input"
	case IsConfiguration(err):
		return "configuration"
	case IsRetryable(err):
		return "loading"
	case IsRateLimit(err):
		return "rate_limit"
	case IsUpstream(err):
		return "upstream"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "upstream"
	}
}
