package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"modelfolio/internal/listing"
	"modelfolio/internal/service"
	"modelfolio/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// retryAfter is implemented by errors that suggest a client back-off.
type retryAfter interface {
	RetryAfter() time.Duration
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// statusFor maps a service error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	if listing.IsNotFound(err) {
		return http.StatusNotFound, "model not found"
	}
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), he.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "Inference timed out. Please try again."
	}
	return http.StatusInternalServerError, err.Error()
}

// writeServiceError writes err with its mapped status, adding Retry-After
// when the error carries a back-off hint. It returns the status written.
func writeServiceError(w http.ResponseWriter, err error) int {
	status, msg := statusFor(err)
	var ra retryAfter
	if errors.As(err, &ra) {
		secs := int(math.Ceil(ra.RetryAfter().Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	if status == http.StatusTooManyRequests {
		IncrementBackpressure(backpressureReason(err))
	}
	writeJSONError(w, status, msg)
	return status
}

func backpressureReason(err error) string {
	if service.IsTooBusy(err) {
		return "queue"
	}
	return "upstream_rate_limit"
}
