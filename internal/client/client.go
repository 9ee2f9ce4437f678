// ABOUTME: Authenticated request cycle: GET a variant's endpoint, refresh on 401, ingest on 200.
// ABOUTME: Fetches are serialized so ingestion has a single writer.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/harperreed/whoop/internal/transport"
)

// Outcome summarizes one Fetch.
type Outcome int

const (
	// OK means a 200 response was handed to ingestion.
	OK Outcome = iota
	// Deferred means the token was refreshed after a 401; fetch again later.
	Deferred
	// Failed means the request did not produce data and was dropped.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Deferred:
		return "deferred"
	default:
		return "failed"
	}
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Variant models.Variant
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.Variant, e.Status)
}

// Tokens is the slice of the token manager the client needs.
type Tokens interface {
	AccessToken() string
	Refresh(ctx context.Context) error
}

// Ingester stores a payload of a variant.
type Ingester interface {
	Ingest(v models.Variant, payload []byte) (storage.Handle, error)
}

var endpoints = map[models.Variant]string{
	models.VariantCycle:    "/developer/v1/cycle?limit=1",
	models.VariantRecovery: "/developer/v1/recovery?limit=1",
	models.VariantSleep:    "/developer/v1/activity/sleep?limit=1",
	models.VariantWorkout:  "/developer/v1/activity/workout?limit=1",
}

// Endpoint returns the API path of a variant's latest-record query.
func Endpoint(v models.Variant) (string, bool) {
	p, ok := endpoints[v]
	return p, ok
}

// Config holds configuration for creating a Client.
type Config struct {
	Requester transport.Requester
	Tokens    Tokens
	Ingester  Ingester
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client performs authenticated fetches.
type Client struct {
	requester transport.Requester
	tokens    Tokens
	ingester  Ingester
	logger    *slog.Logger

	mu sync.Mutex
}

// New creates a client. Every collaborator is required.
func New(cfg Config) (*Client, error) {
	if cfg.Requester == nil || cfg.Tokens == nil || cfg.Ingester == nil {
		return nil, fmt.Errorf("client: requester, tokens and ingester are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		requester: cfg.Requester,
		tokens:    cfg.Tokens,
		ingester:  cfg.Ingester,
		logger:    logger,
	}, nil
}

// Fetch retrieves the latest record of v. On 200 the outcome is OK and the
// error is the ingestion result. On 401 the token is refreshed once and the
// outcome is Deferred; the request is not retried. Anything else is Failed.
func (c *Client) Fetch(ctx context.Context, v models.Variant) (Outcome, error) {
	path, ok := Endpoint(v)
	if !ok {
		return Failed, fmt.Errorf("fetch: unknown variant %s", v)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.requester.Perform(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   path,
		Header: http.Header{"Authorization": {"Bearer " + c.tokens.AccessToken()}},
	})
	if err != nil {
		c.logger.Error("fetch failed", "variant", v.String(), "error", err)
		return Failed, fmt.Errorf("fetch %s: %w", v, err)
	}

	switch resp.Status {
	case http.StatusOK:
		if _, err := c.ingester.Ingest(v, resp.Body); err != nil {
			return OK, fmt.Errorf("ingest %s: %w", v, err)
		}
		return OK, nil

	case http.StatusUnauthorized:
		c.logger.Info("access token rejected, refreshing", "variant", v.String())
		if err := c.tokens.Refresh(ctx); err != nil {
			c.logger.Error("token refresh failed", "error", err)
			return Deferred, fmt.Errorf("refresh after 401: %w", err)
		}
		return Deferred, nil

	default:
		c.logger.Warn("unexpected status", "variant", v.String(), "status", resp.Status)
		return Failed, &StatusError{Variant: v, Status: resp.Status}
	}
}
