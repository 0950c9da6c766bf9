// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package remote

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedloom/internal/logging"
	"github.com/tomtom215/feedloom/internal/metrics"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// Request describes one API call.
type Request struct {
	// Function is the path relative to the service base URL, e.g. "2.0/story.getTopNews".
	// An absolute http(s) URL is used as-is.
	Function string
	// Method defaults to GET.
	Method  string
	Params  url.Values
	Headers http.Header
}

// Document is a raw response body.
type Document struct {
	Service     string
	StatusCode  int
	ContentType string
	Body        []byte
}

// DecodeJSON unmarshals the body, wrapping failures in ParseError.
func (d *Document) DecodeJSON(v interface{}) error {
	if err := json.Unmarshal(d.Body, v); err != nil {
		return &ParseError{Service: d.Service, Err: err}
	}
	return nil
}

// DecodeXML unmarshals the body, wrapping failures in ParseError.
func (d *Document) DecodeXML(v interface{}) error {
	if err := xml.Unmarshal(d.Body, v); err != nil {
		return &ParseError{Service: d.Service, Err: err}
	}
	return nil
}

// Caller performs a synchronous API call.
type Caller interface {
	Call(ctx context.Context, req Request) (*Document, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(ctx context.Context, req Request) (*Document, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, req Request) (*Document, error) {
	return f(ctx, req)
}

// Result is the completion of an asynchronous call.
type Result struct {
	Doc *Document
	Err error
}

// CallAsync runs c.Call on a new goroutine. The returned channel receives
// exactly one Result and is then closed. Cancelling ctx aborts the request
// only as far as the underlying transport honours it.
func CallAsync(ctx context.Context, c Caller, req Request) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		doc, err := c.Call(ctx, req)
		ch <- Result{Doc: doc, Err: err}
	}()
	return ch
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Service string
	BaseURL string
	// Timeout applies when HTTPClient is nil. Default 30s.
	Timeout time.Duration
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// HTTPClient overrides the transport, e.g. an OAuth-signing client.
	HTTPClient *http.Client
}

// Client issues requests against one service's API.
type Client struct {
	service    string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Caller = (*Client)(nil)

// NewClient creates a client for cfg.Service.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "feedloom/1.0"
	}

	return &Client{
		service:    cfg.Service,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent:  ua,
		httpClient: hc,
		limiter:    limiter,
	}
}

// WithHTTPClient returns a copy of c that sends through hc. The rate
// limiter is shared with the original.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.httpClient = hc
	return &cp
}

// HTTPClient returns the underlying transport client.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// Service returns the service name used in errors and metrics.
func (c *Client) Service() string { return c.service }

// URL resolves function against the base URL.
func (c *Client) URL(function string) string {
	if strings.HasPrefix(function, "http://") || strings.HasPrefix(function, "https://") {
		return function
	}
	return c.baseURL + "/" + strings.TrimPrefix(function, "/")
}

// Call performs req and returns the response document.
func (c *Client) Call(ctx context.Context, req Request) (*Document, error) {
	start := time.Now()
	doc, err := c.do(ctx, req)
	metrics.RecordRemoteCall(c.service, Outcome(err), time.Since(start))
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).
			Str("service", c.service).
			Str("function", req.Function).
			Msg("Remote call failed")
	}
	return doc, err
}

func (c *Client) do(ctx context.Context, req Request) (*Document, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Service: c.service, Op: req.Function, Err: err}
	}

	httpReq, err := c.buildRequest(ctx, method, req)
	if err != nil {
		return nil, &TransportError{Service: c.service, Op: req.Function, Err: err}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Service: c.service, Op: req.Function, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Service: c.service, Op: req.Function, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
		}
	}

	return &Document{
		Service:     c.service,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	target, err := url.Parse(c.URL(req.Function))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	var body io.Reader = http.NoBody
	form := false
	if method == http.MethodGet || method == http.MethodDelete || method == http.MethodHead {
		if len(req.Params) > 0 {
			q := target.Query()
			for k, vs := range req.Params {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			target.RawQuery = q.Encode()
		}
	} else if len(req.Params) > 0 {
		body = bytes.NewBufferString(req.Params.Encode())
		form = true
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	if form {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

// errorMessage extracts a human-readable message from an error body.
// Services use a handful of shapes: {"error_text":..}, {"error":..},
// <error><statusdescription>, <error_response><error_msg>, <hash><error>.
func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return http.StatusText(status)
	}

	if trimmed[0] == '{' {
		var obj map[string]interface{}
		if json.Unmarshal(trimmed, &obj) == nil {
			for _, key := range []string{"error_text", "error", "message", "error_msg"} {
				if s, ok := obj[key].(string); ok && s != "" {
					return s
				}
			}
		}
	}

	if trimmed[0] == '<' {
		var x struct {
			StatusDescription string `xml:"statusdescription"`
			ErrorMsg          string `xml:"error_msg"`
			Error             string `xml:"error"`
		}
		if xml.Unmarshal(trimmed, &x) == nil {
			for _, s := range []string{x.StatusDescription, x.ErrorMsg, x.Error} {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}

	msg := string(trimmed)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// IsContextError reports whether err stems from ctx cancellation.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
