// ABOUTME: HTTP requester abstraction used to reach the WHOOP API.
// ABOUTME: Requests carry a path relative to a fixed base URL; bodies are read whole and bounded.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the production WHOOP API host.
	DefaultBaseURL = "https://api.prod.whoop.com"
	// DefaultTimeout bounds one request including reading the body.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes caps a response body.
	DefaultMaxBodyBytes = 1 << 20
)

// ErrBodyTooLarge is returned when a response exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Request is one outbound call. Path may include a query string.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is a fully read reply.
type Response struct {
	Status int
	Body   []byte
}

// Requester performs HTTP requests against the API host.
type Requester interface {
	Perform(ctx context.Context, req *Request) (*Response, error)
}

// Config holds configuration for creating an HTTPRequester.
type Config struct {
	// BaseURL is the scheme and host every path is appended to.
	BaseURL string
	// HTTPClient is used for all requests. If nil, a client with Timeout is created.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
	// MaxBodyBytes caps response bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// HTTPRequester implements Requester over net/http.
type HTTPRequester struct {
	baseURL string
	client  *http.Client
	maxBody int64
	logger  *slog.Logger
}

// Compile-time check that HTTPRequester implements Requester.
var _ Requester = (*HTTPRequester)(nil)

// NewHTTP creates a requester for cfg.BaseURL.
func NewHTTP(cfg Config) (*HTTPRequester, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs scheme and host", base)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPRequester{
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
		maxBody: maxBody,
		logger:  logger,
	}, nil
}

// BaseURL returns the host requests are sent to.
func (t *HTTPRequester) BaseURL() string { return t.baseURL }

// Perform sends req and reads the whole response body.
func (t *HTTPRequester) Perform(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, t.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > t.maxBody {
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, ErrBodyTooLarge)
	}

	t.logger.Debug("request complete",
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start))

	return &Response{Status: resp.StatusCode, Body: data}, nil
}
