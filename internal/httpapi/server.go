package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"modelfolio/internal/dispatch"
	"modelfolio/internal/service"
	"modelfolio/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	RunDemo(ctx context.Context, req types.DemoRequest) (types.DemoResult, error)
	RunListingDemo(ctx context.Context, id, viewer string, in types.ListingDemoRequest) (types.DemoResult, error)
	Listing(ctx context.Context, id, viewer string) (types.Listing, error)
	PublicListings(ctx context.Context) ([]types.Listing, error)
	OwnerListings(ctx context.Context, owner, viewer string) ([]types.Listing, error)
	Ready(ctx context.Context) bool
}

// ViewerHeader carries the current user id. An absent header means anonymous.
const ViewerHeader = "X-User-ID"

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/inference", func(w http.ResponseWriter, r *http.Request) {
			var req types.InferenceRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			dr := types.DemoRequest{ModelOverride: req.Model, RawInput: req.Input, DemoType: req.DemoType}
			label := string(req.DemoType)
			if !req.DemoType.Valid() {
				label = "default"
			}
			runDemo(w, r, label, req.Model, func(ctx context.Context) (types.DemoResult, error) {
				return svc.RunDemo(ctx, dr)
			})
		})

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			ls, err := svc.PublicListings(r.Context())
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, types.ListingsResponse{Listings: ls})
		})

		r.Get("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
			l, err := svc.Listing(r.Context(), chi.URLParam(r, "id"), viewer(r))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, l)
		})

		r.Post("/models/{id}/demo", func(w http.ResponseWriter, r *http.Request) {
			var in types.ListingDemoRequest
			if !decodeJSON(w, r, &in) {
				return
			}
			id := chi.URLParam(r, "id")
			runDemo(w, r, "listing", id, func(ctx context.Context) (types.DemoResult, error) {
				return svc.RunListingDemo(ctx, id, viewer(r), in)
			})
		})

		r.Get("/users/{userID}/models", func(w http.ResponseWriter, r *http.Request) {
			ls, err := svc.OwnerListings(r.Context(), chi.URLParam(r, "userID"), viewer(r))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, types.ListingsResponse{Listings: ls})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// runDemo executes fn under the joined server/request context and writes
// the result or the mapped error. Nothing is written when the client is gone.
func runDemo(w http.ResponseWriter, r *http.Request, demoType, subject string, fn func(ctx context.Context) (types.DemoResult, error)) {
	il := startInference(r, demoType, subject)
	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if inferTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, inferTimeout)
		defer tcancel()
	}

	res, err := fn(ctx)
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			RecordInference(demoType, "canceled")
			il.end(499, err)
			return
		}
		RecordInference(demoType, outcome(err))
		il.end(writeServiceError(w, err), err)
		return
	}
	RecordInference(demoType, "ok")
	writeJSON(w, res)
	il.end(http.StatusOK, nil)
}

func outcome(err error) string {
	if service.IsTooBusy(err) {
		return "busy"
	}
	return dispatch.Outcome(err)
}

// decodeJSON enforces a JSON content type and the body size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

func viewer(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ViewerHeader))
}
