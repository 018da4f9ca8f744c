package hfapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the inference API.
type APIError struct {
	StatusCode int
	Message    string
	// EstimatedTime is the warm-up estimate in seconds sent with cold-start
	// responses; zero when absent.
	EstimatedTime float64
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "inference API error: " + http.StatusText(e.StatusCode)
}

// Loading reports whether the upstream model is still warming up.
func (e *APIError) Loading() bool {
	if e.StatusCode == http.StatusServiceUnavailable && e.EstimatedTime > 0 {
		return true
	}
	return strings.Contains(e.Message, "is currently loading")
}

// RateLimited reports whether the upstream throttled the caller.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || strings.Contains(strings.ToLower(e.Message), "rate limit")
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

type errorBody struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time"`
}

func decodeAPIError(status int, b []byte) *APIError {
	e := &APIError{StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(b, &body); err != nil || len(body.Error) == 0 {
		e.Message = strings.TrimSpace(truncate(b, 512))
		return e
	}
	e.EstimatedTime = body.EstimatedTime
	var s string
	if err := json.Unmarshal(body.Error, &s); err == nil {
		e.Message = s
		return e
	}
	var list []string
	if err := json.Unmarshal(body.Error, &list); err == nil {
		e.Message = strings.Join(list, "; ")
		return e
	}
	e.Message = string(body.Error)
	return e
}
