// Package webhook posts ncplot reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ccollicutt/ncplot/pkg/output"
)

// DefaultTimeout bounds one delivery when SendOptions.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Headers set on every delivery so receivers can route a report without
// decoding it.
const (
	RunIDHeader  = "X-Ncplot-Run-Id"
	IssuesHeader = "X-Ncplot-Issues"
	SourceHeader = "X-Ncplot-Source"
)

const (
	defaultUserAgent = "ncplot-webhook"
	maxResponseBody  = 1 << 20
)

// Client delivers reports.
type Client struct {
	http      *http.Client
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a webhook client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendOptions configures one delivery.
type SendOptions struct {
	URL string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout falls back to DefaultTimeout when zero.
	Timeout time.Duration
}

// Response is the outcome of one delivery. Error is set for transport
// failures and for 4xx/5xx replies.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success reports a 2xx reply with no error.
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts report as JSON to opts.URL.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	defer func() { resp.Duration = time.Since(start) }()

	req, err := c.newRequest(ctx, report, opts.URL)
	if err != nil {
		resp.Error = err
		return resp
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()

	httpResp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		resp.Error = fmt.Errorf("posting report to %s: %w", opts.URL, err)
		return resp
	}
	defer httpResp.Body.Close()

	resp.StatusCode = httpResp.StatusCode
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		resp.Error = fmt.Errorf("reading webhook reply: %w", err)
		return resp
	}
	resp.Body = string(body)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp
}

func (c *Client) newRequest(ctx context.Context, report *output.Report, url string) (*http.Request, error) {
	payload, err := sonic.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(IssuesHeader, strconv.Itoa(report.Summary.TotalIssues))
	if id := report.Metadata.RunID; id != "" {
		req.Header.Set(RunIDHeader, id)
	}
	if src := report.Metadata.Source; src != "" {
		req.Header.Set(SourceHeader, filepath.Base(src))
	}
	return req, nil
}
