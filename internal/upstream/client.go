// Package upstream talks to the design-reference site's private API.
//
// Every call goes through Client.Do, which returns the upstream status and
// JSON body for any HTTP status. Only transport failures and bodies that are
// not JSON are reported as errors, and those wrap ErrUnavailable.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobbind-dev/mobbind/internal/config"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

	// maxBodyBytes bounds how much of an upstream response is read into memory
	maxBodyBytes = 16 << 20
)

// ErrUnavailable marks network failures, timeouts and non-JSON upstream responses
var ErrUnavailable = errors.New("upstream unavailable")

// Request describes a single outbound call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any    // marshalled as JSON when non-nil
	Token  string // sent as a bearer token when non-empty
}

// Response is the upstream's status and verbatim JSON body
type Response struct {
	Status int
	Body   json.RawMessage
}

// OK reports whether the upstream answered with a 2xx status
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client represents an HTTP client for the upstream API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a new upstream client with a fixed request timeout
func New(cfg config.UpstreamConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.With().Str("component", "upstream").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// BaseURL returns the upstream base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do issues the request and returns the upstream status and body.
// A non-2xx status is not an error.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	endpoint := c.baseURL + r.Path
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("apikey", c.apiKey)
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", r.Method).Str("path", r.Path).Msg("Upstream request failed")
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	c.logger.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Upstream request")

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s %s returned non-JSON body (status %d)", ErrUnavailable, r.Method, r.Path, resp.StatusCode)
	}

	return &Response{Status: resp.StatusCode, Body: json.RawMessage(raw)}, nil
}
