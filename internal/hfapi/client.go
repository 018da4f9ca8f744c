// Package hfapi is a small client for the Hugging Face hosted inference API.
// Each task method posts to {base}/models/{model} and decodes the task's
// response shape; upstream field names stay inside this package.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the public hosted inference endpoint.
const DefaultBaseURL = "https://api-inference.huggingface.co"

const (
	defaultMaxImageBytes    = 10 << 20
	defaultMaxResponseBytes = 32 << 20
)

// ErrImageTooLarge is returned by FetchImage when the body exceeds the configured cap.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	MaxImageBytes  int64
	HTTPClient     *http.Client
}

// Client calls the hosted inference API. It is safe for concurrent use.
type Client struct {
	baseURL       string
	reqTimeout    time.Duration
	maxImageBytes int64
	httpClient    *http.Client
}

// New constructs a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	maxImg := opts.MaxImageBytes
	if maxImg <= 0 {
		maxImg = defaultMaxImageBytes
	}
	cli := opts.HTTPClient
	if cli == nil {
		connect := opts.ConnectTimeout
		if connect <= 0 {
			connect = 10 * time.Second
		}
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connect,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		// Deadlines are applied per request through the context.
		cli = &http.Client{Transport: tr, Timeout: 0}
	}
	return &Client{
		baseURL:       base,
		reqTimeout:    opts.RequestTimeout,
		maxImageBytes: maxImg,
		httpClient:    cli,
	}
}

// BaseURL returns the normalized API base.
func (c *Client) BaseURL() string { return c.baseURL }

// Summarize runs a summarization model.
func (c *Client) Summarize(ctx context.Context, token, model, text string, p SummarizationParams) (string, error) {
	body, err := json.Marshal(taskRequest{Inputs: text, Parameters: p})
	if err != nil {
		return "", err
	}
	b, _, err := c.post(ctx, token, model, "application/json", body)
	if err != nil {
		return "", err
	}
	out, err := decodeOne[summarizationOutput](b)
	if err != nil {
		return "", err
	}
	return out.SummaryText, nil
}

// ImageToText captions raw image bytes.
func (c *Client) ImageToText(ctx context.Context, token, model string, img Image) (string, error) {
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	b, _, err := c.post(ctx, token, model, ct, img.Data)
	if err != nil {
		return "", err
	}
	out, err := decodeOne[generatedOutput](b)
	if err != nil {
		return "", err
	}
	return out.GeneratedText, nil
}

// TextToImage generates an image from a prompt and returns the binary body.
func (c *Client) TextToImage(ctx context.Context, token, model, prompt string) (Image, error) {
	body, err := json.Marshal(taskRequest{Inputs: prompt})
	if err != nil {
		return Image{}, err
	}
	b, ct, err := c.post(ctx, token, model, "application/json", body)
	if err != nil {
		return Image{}, err
	}
	if mt, _, _ := mime.ParseMediaType(ct); mt == "application/json" {
		return Image{}, fmt.Errorf("unexpected JSON response from image model: %s", truncate(b, 200))
	}
	return Image{Data: b, ContentType: ct}, nil
}

// TextClassification returns labels ranked by descending score.
func (c *Client) TextClassification(ctx context.Context, token, model, text string) ([]Label, error) {
	body, err := json.Marshal(taskRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	b, _, err := c.post(ctx, token, model, "application/json", body)
	if err != nil {
		return nil, err
	}
	labels, err := decodeLabels(b)
	if err != nil {
		return nil, err
	}
	sortLabels(labels)
	return labels, nil
}

// QuestionAnswering extracts an answer span from passage.
func (c *Client) QuestionAnswering(ctx context.Context, token, model, question, passage string) (Answer, error) {
	body, err := json.Marshal(taskRequest{Inputs: qaInputs{Question: question, Context: passage}})
	if err != nil {
		return Answer{}, err
	}
	b, _, err := c.post(ctx, token, model, "application/json", body)
	if err != nil {
		return Answer{}, err
	}
	out, err := decodeOne[qaOutput](b)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: out.Answer, Score: out.Score, Start: out.Start, End: out.End}, nil
}

// TextGeneration continues a prompt.
func (c *Client) TextGeneration(ctx context.Context, token, model, text string, p GenerationParams) (string, error) {
	body, err := json.Marshal(taskRequest{Inputs: text, Parameters: p})
	if err != nil {
		return "", err
	}
	b, _, err := c.post(ctx, token, model, "application/json", body)
	if err != nil {
		return "", err
	}
	out, err := decodeOne[generatedOutput](b)
	if err != nil {
		return "", err
	}
	return out.GeneratedText, nil
}

// FetchImage downloads the image at rawURL, bounded by the configured size cap.
func (c *Client) FetchImage(ctx context.Context, rawURL string) (Image, error) {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Image{}, ctx.Err()
		}
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("fetch image: %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	if int64(len(b)) > c.maxImageBytes {
		return Image{}, ErrImageTooLarge
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(b)
	}
	return Image{Data: b, ContentType: ct}, nil
}

// post sends body to the model endpoint and returns the raw 2xx body and its content type.
func (c *Client) post(ctx context.Context, token, model, contentType string, body []byte) ([]byte, string, error) {
	if c.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.reqTimeout)
		defer cancel()
	}
	u, err := c.modelURL(model)
	if err != nil {
		return nil, "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", decodeAPIError(resp.StatusCode, b)
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// modelIDPattern matches "name" or "owner/name" hub ids. Segments start
// with a letter or digit, so "." and ".." never match.
var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*(/[A-Za-z0-9][A-Za-z0-9._-]*)?$`)

// ErrInvalidModel is returned for model ids that are not hub ids.
var ErrInvalidModel = errors.New("invalid model id")

// ValidModelID reports whether model is a well-formed hub model id.
func ValidModelID(model string) bool {
	return len(model) <= 256 && modelIDPattern.MatchString(model)
}

func (c *Client) modelURL(model string) (string, error) {
	if !ValidModelID(model) {
		return "", ErrInvalidModel
	}
	parts := strings.Split(model, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/models/" + strings.Join(parts, "/"), nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
