package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modelfolio/pkg/types"
)

// Runner executes a DemoRequest. *Client and *dispatch.Dispatcher both satisfy it.
type Runner interface {
	Run(ctx context.Context, req types.DemoRequest) (types.DemoResult, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, req types.DemoRequest) (types.DemoResult, error)

func (f RunnerFunc) Run(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	return f(ctx, req)
}

// RemoteError is a non-200 answer from the inference endpoint.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client posts demo requests to a modelfolio server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL. A nil hc uses a client with a 2 minute timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + "/api/inference",
		httpClient: hc,
	}
}

// Run sends req and decodes the normalized result.
func (c *Client) Run(ctx context.Context, req types.DemoRequest) (types.DemoResult, error) {
	body, err := json.Marshal(types.InferenceRequest{
		Model:    req.ModelOverride,
		Input:    req.RawInput,
		DemoType: req.DemoType,
	})
	if err != nil {
		return types.DemoResult{}, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.DemoResult{}, err
	}
	hr.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		if ctx.Err() != nil {
			return types.DemoResult{}, ctx.Err()
		}
		return types.DemoResult{}, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return types.DemoResult{}, err
	}
	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		if json.Unmarshal(b, &e) != nil || e.Error == "" {
			e.Error = "Inference failed"
		}
		return types.DemoResult{}, &RemoteError{Status: resp.StatusCode, Message: e.Error}
	}
	var res types.DemoResult
	if err := json.Unmarshal(b, &res); err != nil {
		return types.DemoResult{}, fmt.Errorf("decode result: %w", err)
	}
	return res, nil
}
