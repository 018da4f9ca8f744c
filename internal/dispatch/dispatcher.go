// Package dispatch maps a demo request to a concrete upstream inference call
// and normalizes the upstream result into a DemoResult.
//
// Dispatch is table driven: each demo type owns a route holding its default
// model, its input decoding, and its upstream call plus normalization. An
// unrecognized demo type uses the text-generation fallback route. A model
// override replaces the route's default model but never the route itself.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelfolio/internal/hfapi"
	"modelfolio/pkg/types"
)

// Upstream is the set of inference operations the dispatcher needs.
// *hfapi.Client satisfies it.
type Upstream interface {
	Summarize(ctx context.Context, token, model, text string, p hfapi.SummarizationParams) (string, error)
	ImageToText(ctx context.Context, token, model string, img hfapi.Image) (string, error)
	TextToImage(ctx context.Context, token, model, prompt string) (hfapi.Image, error)
	TextClassification(ctx context.Context, token, model, text string) ([]hfapi.Label, error)
	QuestionAnswering(ctx context.Context, token, model, question, passage string) (hfapi.Answer, error)
	TextGeneration(ctx context.Context, token, model, text string, p hfapi.GenerationParams) (string, error)
	FetchImage(ctx context.Context, rawURL string) (hfapi.Image, error)
}

// TokenSource returns the upstream API credential. It is consulted on every
// dispatch; an empty value fails the call with a ConfigurationError.
type TokenSource func() string

// Config holds Dispatcher dependencies.
type Config struct {
	Upstream Upstream
	Token    TokenSource
	// DefaultModels overrides the built-in default model per demo type.
	// The empty key overrides the text-generation fallback.
	DefaultModels map[types.DemoType]string
	Logger        *zerolog.Logger
}

// Dispatcher runs demo requests against the upstream API.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	up       Upstream
	token    TokenSource
	routes   map[types.DemoType]route
	fallback route
	log      zerolog.Logger
}

// New constructs a Dispatcher.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		up:       cfg.Upstream,
		token:    cfg.Token,
		routes:   defaultRoutes(),
		fallback: fallbackRoute(),
		log:      zerolog.Nop(),
	}
	if cfg.Logger != nil {
		d.log = *cfg.Logger
	}
	for t, m := range cfg.DefaultModels {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if t == "" {
			d.fallback.defaultModel = m
			continue
		}
		if rt, ok := d.routes[t]; ok {
			rt.defaultModel = m
			d.routes[t] = rt
		}
	}
	return d
}

func (d *Dispatcher) route(t types.DemoType) route {
	if rt, ok := d.routes[t]; ok {
		return rt
	}
	return d.fallback
}

// DefaultModel returns the model used for t when no override is given.
func (d *Dispatcher) DefaultModel(t types.DemoType) string { return d.route(t).defaultModel }

// ResolveModel returns override when non-empty, else the default for t.
func (d *Dispatcher) ResolveModel(t types.DemoType, override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	return d.DefaultModel(t)
}

// Dispatch validates req, performs one upstream call, and normalizes the
// result. Errors are one of InputError, ConfigurationError, RetryableError,
// RateLimitError, UpstreamError, or the caller's context error.
func (d *Dispatcher) Dispatch(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	var token string
	if d.token != nil {
		token = strings.TrimSpace(d.token())
	}
	if token == "" {
		return types.DemoResult{}, ErrConfiguration("HuggingFace API token not configured")
	}
	if d.up == nil {
		return types.DemoResult{}, ErrConfiguration("inference client not configured")
	}
	if strings.TrimSpace(req.RawInput) == "" {
		return types.DemoResult{}, ErrInput("Input is required")
	}
	rt := d.route(req.DemoType)
	in, err := rt.decode(req.RawInput)
	if err != nil {
		return types.DemoResult{}, err
	}
	model := d.ResolveModel(req.DemoType, req.ModelOverride)
	if !hfapi.ValidModelID(model) {
		return types.DemoResult{}, ErrInput("invalid model id")
	}

	start := time.Now()
	res, err := rt.run(ctx, d.up, token, model, in)
	if err != nil {
		if ctx.Err() != nil {
			return types.DemoResult{}, ctx.Err()
		}
		mapped := classify(err)
		d.log.Warn().Err(err).
			Str("demo_type", string(req.DemoType)).
			Str("model", model).
			Str("outcome", Outcome(mapped)).
			Dur("dur", time.Since(start)).
			Msg("inference failed")
		return types.DemoResult{}, mapped
	}
	res.Model = model
	d.log.Debug().
		Str("demo_type", string(req.DemoType)).
		Str("model", model).
		Str("type", string(res.Type)).
		Dur("dur", time.Since(start)).
		Msg("inference ok")
	return res, nil
}

// classify maps an upstream failure onto the dispatcher's error kinds.
func classify(err error) error {
	if ae, ok := hfapi.AsAPIError(err); ok {
		if ae.Loading() {
			return RetryableError{Estimate: time.Duration(ae.EstimatedTime * float64(time.Second))}
		}
		if ae.RateLimited() {
			return RateLimitError{}
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "Model") && strings.Contains(msg, "is currently loading") {
		return RetryableError{}
	}
	if strings.Contains(strings.ToLower(msg), "rate limit") {
		return RateLimitError{}
	}
	return UpstreamError{msg: msg, err: err}
}

// Run implements demo.Runner so a widget can dispatch in process.
func (d *Dispatcher) Run(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	return d.Dispatch(ctx, req)
}
