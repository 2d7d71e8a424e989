// Package http is a fluent, retry-aware client for outgoing calls, used by the
// payment provider.
//
//	resp, err := http.Post(base+"/v1/payment_intents").
//	    WithContext(ctx).
//	    Bearer(key).
//	    Header("Idempotency-Key", key).
//	    Form(url.Values{"amount": {"1999"}}).
//	    Retry(3, 200*time.Millisecond).
//	    Send()
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is shared by every outgoing request. Tests can swap its
// Transport and restore it with ResetTransport.
var DefaultClient = &gohttp.Client{Transport: defaultTransport}

func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

// Request is a fluent request builder.
type Request struct {
	ctx       context.Context
	method    string
	url       string
	headers   map[string]string
	err       error
	bodyBytes []byte
	ctype     string
	timeout   time.Duration
	retries   int
	retryWait time.Duration
}

func Get(url string) *Request  { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		ctx:       context.Background(),
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   15 * time.Second,
		retries:   1,
		retryWait: 300 * time.Millisecond,
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// JSON sends v marshalled as a JSON body.
func (r *Request) JSON(v any) *Request {
	b, err := json.Marshal(v)
	if err != nil {
		r.err = fmt.Errorf("http: marshal body: %w", err)
		return r
	}
	r.bodyBytes, r.ctype = b, "application/json"
	return r
}

// Form sends values as an application/x-www-form-urlencoded body.
func (r *Request) Form(values url.Values) *Request {
	r.bodyBytes, r.ctype = []byte(values.Encode()), "application/x-www-form-urlencoded"
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total number of attempts and the initial backoff, which
// doubles after every failed attempt.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries, r.retryWait = n, wait
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Send runs the request. Transport errors, 429 and 5xx responses are retried;
// the last response is returned once attempts run out. Any other status is
// returned to the caller as is.
func (r *Request) Send() (*Response, error) {
	var (
		resp    *Response
		lastErr error
		backoff = r.retryWait
	)

	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, lastErr = r.do()
		if lastErr == nil && !resp.retryable() {
			return resp, nil
		}
		if attempt == r.retries {
			break
		}

		logger.Warn("http: request failed, retrying",
			"method", r.method, "url", r.url, "attempt", attempt, "backoff", backoff, "error", lastErr)

		select {
		case <-r.ctx.Done():
			return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, r.ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	if lastErr != nil {
		return nil, fmt.Errorf("http: all %d attempts failed for %s %s: %w", r.retries, r.method, r.url, lastErr)
	}
	return resp, nil
}

func (r *Request) do() (*Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	var body io.Reader
	if r.bodyBytes != nil {
		body = bytes.NewReader(r.bodyBytes)
	}

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}

	res, err := DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	return &Response{StatusCode: res.StatusCode, Headers: res.Header, Raw: raw}, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) retryable() bool {
	return r.StatusCode == gohttp.StatusTooManyRequests || r.StatusCode >= 500
}

func (r *Response) Decode(dest any) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error for any non-2xx status.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: request failed with status %d: %s", r.StatusCode, strings.TrimSpace(string(r.Raw)))
	}
	return nil
}
