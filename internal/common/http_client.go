// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const UserAgent = "databus-snippets"

// Options for building an http client; the zero value is a client
// with no timeout, no retries and no extra headers
type HTTPOptions struct {
	// Timeout for the entire request; zero means no timeout
	Timeout time.Duration
	// Total number of attempts for idempotent requests; values
	// below 2 mean the request is only sent once
	Retries int
	// Backoff is multiplied by the attempt number between retries
	Backoff time.Duration
	// Headers set on every outgoing request
	Headers map[string]string
}

// NewHTTPClient returns a client configured with the given options.
// Requests are traced with otelhttp; spans are only exported if
// a tracer provider has been registered
func NewHTTPClient(opts HTTPOptions) *http.Client {
	var transport http.RoundTripper = newLongLivedHttpTransport()

	if opts.Retries > 1 {
		backoff := opts.Backoff
		if backoff == 0 {
			backoff = time.Second
		}
		transport = &RetryTransport{Base: transport, Retries: opts.Retries, Backoff: backoff}
	}

	transport = &headerTransport{base: transport, headers: opts.Headers}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			span := trace.SpanFromContext(req.Context())
			if span != nil {
				span.AddEvent("HTTP redirect")
			}
			return nil
		},
	}
}

// headerTransport sets static headers and the user agent on each request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}
	return h.base.RoundTrip(req)
}

// RetryTransport implements retries and linear backoff at the transport level.
// Only requests without a body are retried since the body cannot be replayed
type RetryTransport struct {
	Base    http.RoundTripper
	Retries int
	Backoff time.Duration
}

// An error returned when the maximum number of retries is exceeded.
type MaxRetryError struct {
	Err error
}

func (e *MaxRetryError) Error() string {
	return e.Err.Error()
}

func (e *MaxRetryError) Unwrap() error {
	return e.Err
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		return t.Base.RoundTrip(req)
	}

	var lastErr error
	for attempt := 1; attempt <= t.Retries; attempt++ {
		resp, err := t.Base.RoundTrip(req)

		if err != nil {
			var netErr net.Error
			var urlErr *url.Error
			if (errors.As(err, &netErr) && netErr.Timeout()) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
				log.Warnf("retrying after timeout on %s (attempt %d)", req.URL.String(), attempt)
				lastErr = err
				time.Sleep(time.Duration(attempt) * t.Backoff)
				continue
			}
			return nil, err
		}

		if resp.StatusCode >= 500 && attempt < t.Retries {
			log.Warnf("got a %d from %s, retrying (attempt %d)", resp.StatusCode, req.URL.String(), attempt)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			time.Sleep(time.Duration(attempt) * t.Backoff)
			continue
		}
		return resp, nil
	}
	return nil, &MaxRetryError{Err: fmt.Errorf("failed to get a successful response from %s after %d attempts: %v", req.URL.String(), t.Retries, lastErr)}
}

// An http transport optimized for long-lived connections
func newLongLivedHttpTransport() http.RoundTripper {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   20 * time.Second,
		ExpectContinueTimeout: 2 * time.Second,
		ForceAttemptHTTP2:     true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			span := trace.SpanFromContext(ctx)
			if span != nil {
				span.AddEvent("HTTP connection")
			}
			dialer := net.Dialer{Timeout: 30 * time.Second}
			return dialer.DialContext(ctx, network, addr)
		},
	}
}

// A canned response for a mocked url
type MockResponse struct {
	// path to a file used as the body
	File string
	// literal body; takes precedence over File
	Body        string
	StatusCode  int
	ContentType string
	// If true, the request returns an error
	// signifying that the request timed out
	Timeout bool
}

// A request seen by the MockTransport
type RecordedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   string
}

// MockTransport answers requests for known urls with canned responses
type MockTransport struct {
	// Deny requests that are not mocked
	denyReqNotMocked bool
	transport        http.RoundTripper
	responses        map[string]MockResponse

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewMockTransport returns a transport with mocked responses keyed by full url.
// if strictMode is true, all http requests that are not mocked will return an error
func NewMockTransport(strictMode bool, urlToMock map[string]MockResponse) *MockTransport {
	return &MockTransport{
		denyReqNotMocked: strictMode,
		transport:        newLongLivedHttpTransport(),
		responses:        urlToMock,
	}
}

// NewMockedClient returns an http client with mocked responses
func NewMockedClient(strictMode bool, urlToMock map[string]MockResponse) *http.Client {
	return &http.Client{Transport: NewMockTransport(strictMode, urlToMock)}
}

// Requests returns a copy of every request the transport has seen
func (m *MockTransport) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

func (m *MockTransport) record(req *http.Request) error {
	recorded := RecordedRequest{Method: req.Method, URL: req.URL.String(), Header: req.Header.Clone()}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return err
		}
		_ = req.Body.Close()
		recorded.Body = string(body)
	}
	m.mu.Lock()
	m.requests = append(m.requests, recorded)
	m.mu.Unlock()
	return nil
}

// If the req url is in the map, return the associated mock response
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	fullURL := req.URL.String()

	mocked, ok := m.responses[fullURL]
	if !ok {
		if m.denyReqNotMocked {
			return nil, fmt.Errorf("request not mocked: %s", fullURL)
		}
		return m.transport.RoundTrip(req)
	}

	if err := m.record(req); err != nil {
		return nil, err
	}

	if mocked.Timeout {
		return nil, &MaxRetryError{Err: fmt.Errorf("mocked a timeout for %s", fullURL)}
	}

	var body io.ReadCloser
	switch {
	case mocked.Body != "":
		body = io.NopCloser(strings.NewReader(mocked.Body))
	case mocked.File != "":
		file, err := os.Open(mocked.File)
		if err != nil {
			return nil, err
		}
		body = file
	default:
		body = http.NoBody
	}

	status := mocked.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       body,
		Header: http.Header{
			"Content-Type": []string{mocked.ContentType},
		},
		Request: req,
	}, nil
}
