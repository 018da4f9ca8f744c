package httpapi

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = func() LogLevel {
	if v := os.Getenv("MODELFOLIO_REQUEST_LOG"); v != "" {
		return parseLevel(v)
	}
	return LevelInfo
}()

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// inferenceLog carries the fields of one demo request's start/end lines.
type inferenceLog struct {
	r        *http.Request
	lvl      LogLevel
	demoType string
	model    string
	start    time.Time
}

func startInference(r *http.Request, demoType, model string) *inferenceLog {
	il := &inferenceLog{r: r, lvl: requestLogLevel(r), demoType: demoType, model: model, start: time.Now()}
	if il.lvl < LevelInfo {
		return il
	}
	if zlog != nil {
		z := zlog.Info().Str("path", r.URL.Path).Str("demo_type", demoType).Str("model", model)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("inference start")
		return il
	}
	log.Printf("inference start path=%s demo_type=%s model=%s", r.URL.Path, demoType, model)
	return il
}

// end logs the final status. Failures are logged at LevelError and above,
// successes at LevelInfo and above.
func (il *inferenceLog) end(status int, err error) {
	if il.lvl < LevelError || (err == nil && il.lvl < LevelInfo) {
		return
	}
	dur := time.Since(il.start)
	if zlog != nil {
		ev := zlog.Info()
		if err != nil {
			ev = zlog.Warn().Err(err)
		}
		ev = ev.Int("status", status).Dur("dur", dur).Str("demo_type", il.demoType)
		if rid := middleware.GetReqID(il.r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
		if il.lvl >= LevelDebug {
			ev = ev.Str("remote", il.r.RemoteAddr)
		}
		ev.Msg("inference end")
		return
	}
	if err != nil {
		log.Printf("inference end status=%d dur=%s err=%v", status, dur, err)
		return
	}
	log.Printf("inference end status=%d dur=%s", status, dur)
}
