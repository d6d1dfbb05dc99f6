package ekyc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"simreg/internal/config"
	"simreg/internal/metrics"
)

// SessionHeader carries the eKYC session id on every call after validation.
const SessionHeader = "X-Session-Id"

const (
	defaultBaseURL = "https://devapi.bluwyre.ai/"
	defaultPath    = "v1/ekyc/"
)

// Client implements port.EkycClient over the eKYC REST API. It never retries.
type Client struct {
	base    *url.URL
	client  *http.Client
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records call outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a client for the configured eKYC service.
func NewClient(cfg *config.EkycConfig, opts ...Option) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return newClient(cfg, baseURL, opts...)
}

// NewClientWithEndpoint creates a client pointing at a custom base URL (for testing).
func NewClientWithEndpoint(cfg *config.EkycConfig, endpoint string, opts ...Option) (*Client, error) {
	return newClient(cfg, endpoint, opts...)
}

func newClient(cfg *config.EkycConfig, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ekyc base url: %w", err)
	}
	path := cfg.BasePath
	if path == "" {
		path = defaultPath
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		base:   u.JoinPath(path),
		client: &http.Client{Timeout: timeout},
		tracer: otel.Tracer("simreg/internal/ekyc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type response struct {
	status int
	header http.Header
	isJSON bool
	body   []byte
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, sessionID string, payload interface{}) (*response, error) {
	ctx, span := c.tracer.Start(ctx, "ekyc."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ekyc.op", op),
			attribute.String("http.request.method", method),
			attribute.Bool("ekyc.session", sessionID != ""),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, op, method, path, query, sessionID, payload)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		c.metrics.ObserveCall(op, "network", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))

	if resp.status < 200 || resp.status >= 300 {
		c.metrics.ObserveCall(op, fmt.Sprintf("%dxx", resp.status/100), elapsed)
		apiErr := newAPIError(op, resp)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}
	c.metrics.ObserveCall(op, "ok", elapsed)
	return resp, nil
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, sessionID string, payload interface{}) (*response, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ekyc.%s: marshaling request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("ekyc.%s: creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ekyc.%s: %w", op, ctx.Err())
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	return &response{
		status: resp.StatusCode,
		header: resp.Header,
		isJSON: strings.Contains(resp.Header.Get("Content-Type"), "application/json"),
		body:   raw,
	}, nil
}

// decode parses a JSON response body into v. Bodies wrapped in a top-level
// "data" object are unwrapped when the wrapper is present.
func decode(op string, resp *response, v interface{}) error {
	if !resp.isJSON {
		return fmt.Errorf("ekyc.%s: expected a JSON response, got %q", op, truncate(string(resp.body), 120))
	}
	if err := json.Unmarshal(unwrapData(resp.body), v); err != nil {
		return fmt.Errorf("ekyc.%s: decoding response: %w", op, err)
	}
	return nil
}

func unwrapData(body []byte) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	if data, ok := env["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return body
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
