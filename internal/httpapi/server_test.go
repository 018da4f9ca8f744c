package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"modelfolio/internal/dispatch"
	"modelfolio/internal/listing"
	"modelfolio/pkg/types"
)

type mockService struct {
	listings []types.Listing
	ready    bool
	demoErr  error
	lastReq  types.DemoRequest
	lastView string
}

func (m *mockService) RunDemo(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	m.lastReq = req
	if m.demoErr != nil {
		return types.DemoResult{}, m.demoErr
	}
	return types.DemoResult{Output: "hi", Type: types.OutputText, Model: "m"}, nil
}

func (m *mockService) RunListingDemo(ctx context.Context, id, viewer string, in types.ListingDemoRequest) (types.DemoResult, error) {
	m.lastView = viewer
	if _, err := m.Listing(ctx, id, viewer); err != nil {
		return types.DemoResult{}, err
	}
	if m.demoErr != nil {
		return types.DemoResult{}, m.demoErr
	}
	return types.DemoResult{Output: in.Input, Type: types.OutputText, Model: id}, nil
}

func (m *mockService) Listing(_ context.Context, id, viewer string) (types.Listing, error) {
	for _, l := range m.listings {
		if l.ID == id && l.VisibleTo(viewer) {
			return l, nil
		}
	}
	return types.Listing{}, listing.ErrNotFound
}

func (m *mockService) PublicListings(context.Context) ([]types.Listing, error) {
	var out []types.Listing
	for _, l := range m.listings {
		if l.IsPublic {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockService) OwnerListings(_ context.Context, owner, viewer string) ([]types.Listing, error) {
	m.lastView = viewer
	var out []types.Listing
	for _, l := range m.listings {
		if l.UserID == owner && l.VisibleTo(viewer) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockService) Ready(context.Context) bool { return m.ready }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func newListingService() *mockService {
	return &mockService{listings: []types.Listing{
		{ID: "m1", Title: "One", IsPublic: true, UserID: "alice", DemoType: types.DemoTextToText},
		{ID: "m2", Title: "Two", IsPublic: false, UserID: "alice", DemoType: types.DemoSentimentAnalysis},
	}}
}

func postJSON(h http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var e types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return e
}

func TestPublicListingsHandler(t *testing.T) {
	h := NewMux(newListingService())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.ListingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Listings) != 1 || body.Listings[0].ID != "m1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListingHandler_Visibility(t *testing.T) {
	h := NewMux(newListingService())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models/m2", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("anonymous private: status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/models/m2", nil)
	req.Header.Set(ViewerHeader, "alice")
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("owner private: status=%d", w.Code)
	}
	var l types.Listing
	if err := json.Unmarshal(w.Body.Bytes(), &l); err != nil || l.ID != "m2" {
		t.Fatalf("unexpected listing %+v err=%v", l, err)
	}
}

func TestOwnerListingsHandler(t *testing.T) {
	svc := newListingService()
	h := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users/alice/models", nil)
	req.Header.Set(ViewerHeader, " bob ")
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if svc.lastView != "bob" {
		t.Fatalf("viewer not trimmed: %q", svc.lastView)
	}
	var body types.ListingsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Listings) != 1 {
		t.Fatalf("expected only public listing, got %d", len(body.Listings))
	}
}

func TestInferenceHandler_OK(t *testing.T) {
	svc := &mockService{}
	w := postJSON(NewMux(svc), "/api/inference", `{"model":"x/y","input":"hello","demoType":"text-to-text"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastReq.ModelOverride != "x/y" || svc.lastReq.RawInput != "hello" || svc.lastReq.DemoType != types.DemoTextToText {
		t.Fatalf("unexpected request: %+v", svc.lastReq)
	}
	var res types.DemoResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("json: %v", err)
	}
	if s, ok := res.Text(); !ok || s != "hi" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestListingDemoHandler(t *testing.T) {
	h := NewMux(newListingService())
	w := postJSON(h, "/api/models/m1/demo", `{"input":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	w = postJSON(h, "/api/models/m2/demo", `{"input":"hello"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("private listing demo: status=%d", w.Code)
	}
	w = postJSON(h, "/api/models/nope/demo", `{"input":"hello"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing listing demo: status=%d", w.Code)
	}
}

func TestInferenceErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"input", dispatch.ErrInput("Input is required"), http.StatusBadRequest, "Input is required"},
		{"configuration", dispatch.ErrConfiguration("HuggingFace API token not configured"), http.StatusInternalServerError, "HuggingFace API token not configured"},
		{"loading", dispatch.RetryableError{Estimate: 20 * time.Second}, http.StatusServiceUnavailable, "Model is loading. Please try again in about 20 seconds."},
		{"rate limit", dispatch.RateLimitError{}, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"custom http error", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot, "teapot"},
		{"generic", io.EOF, http.StatusInternalServerError, "EOF"},
		{"not found", listing.ErrNotFound, http.StatusNotFound, "model not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(NewMux(&mockService{demoErr: tc.err}), "/api/inference", `{"input":"x"}`)
			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			e := decodeError(t, w)
			if e.Error != tc.msg || e.Code != tc.status {
				t.Fatalf("unexpected error body: %+v", e)
			}
		})
	}
}

func TestInferenceRetryAfterHeader(t *testing.T) {
	w := postJSON(NewMux(&mockService{demoErr: dispatch.RetryableError{Estimate: 12500 * time.Millisecond}}), "/api/inference", `{"input":"x"}`)
	if got := w.Header().Get("Retry-After"); got != "13" {
		t.Fatalf("Retry-After=%q", got)
	}
	w = postJSON(NewMux(&mockService{demoErr: dispatch.RetryableError{Estimate: 19200 * time.Millisecond}}), "/api/inference", `{"input":"x"}`)
	if got := w.Header().Get("Retry-After"); got != "20" {
		t.Fatalf("Retry-After=%q", got)
	}
	if !strings.Contains(w.Body.String(), "about 20 seconds") {
		t.Fatalf("header and message disagree: %s", w.Body.String())
	}
	w = postJSON(NewMux(&mockService{demoErr: dispatch.RetryableError{}}), "/api/inference", `{"input":"x"}`)
	if got := w.Header().Get("Retry-After"); got != "5" {
		t.Fatalf("default Retry-After=%q", got)
	}
	w = postJSON(NewMux(&mockService{demoErr: dispatch.RateLimitError{}}), "/api/inference", `{"input":"x"}`)
	if got := w.Header().Get("Retry-After"); got != "" {
		t.Fatalf("unexpected Retry-After on 429: %q", got)
	}
}

func TestInferenceBadJSON(t *testing.T) {
	w := postJSON(NewMux(&mockService{}), "/api/inference", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestInferenceUnsupportedMediaType(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/inference", bytes.NewBufferString(`{"input":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestContentTypeCaseInsensitive(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/inference", bytes.NewBufferString(`{"input":"hi"}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with mixed-case content-type, got %d", w.Code)
	}
}

func TestInferenceBodyTooLarge(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(64)
	big := `{"input":"` + strings.Repeat("a", 128) + `"}`
	w := postJSON(NewMux(&mockService{}), "/api/inference", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for too-large body, got %d", w.Code)
	}
}

// Service that blocks until the context is done; used to exercise timeout path.
type blockService struct{ mockService }

func (b *blockService) RunDemo(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	<-ctx.Done()
	return types.DemoResult{}, ctx.Err()
}

func TestInferenceTimeoutReturns504(t *testing.T) {
	defer SetInferTimeout(0)
	SetInferTimeout(50 * time.Millisecond)
	w := postJSON(NewMux(&blockService{}), "/api/inference", `{"input":"x"}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on timeout, got %d", w.Code)
	}
}

func TestInferenceShutdownWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	defer SetBaseContext(nil)
	cancel()
	w := postJSON(NewMux(&blockService{}), "/api/inference", `{"input":"x"}`)
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body after shutdown, got %q", w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{ready: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unavailable") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(newListingService())
	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}
