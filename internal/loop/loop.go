// ABOUTME: Periodic tick driving input sampling, display selection, fetching and rendering.
// ABOUTME: Each tick fetches one variant round-robin and renders the selected variant.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = 90 * time.Second

// Fetcher retrieves the latest record of a variant.
type Fetcher interface {
	Fetch(ctx context.Context, v models.Variant) (client.Outcome, error)
}

// Config holds configuration for creating a Loop.
type Config struct {
	Fetcher  Fetcher
	Store    storage.Repository
	Renderer *display.Renderer
	// Input is sampled every tick. If nil the selection never moves.
	Input    display.Input
	Interval time.Duration
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Result describes what one tick did.
type Result struct {
	Fetched  models.Variant
	Outcome  client.Outcome
	Err      error
	Selected models.Variant
	Rendered bool
}

// Loop owns the display selection and fetch rotation.
type Loop struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	selected  models.Variant
	lastInput uint64
	nextFetch int
}

// New creates a loop. The selection starts on the last variant of the
// rotation so the first press lands on recovery.
func New(cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		cfg:      cfg,
		logger:   logger,
		selected: models.AllVariants[len(models.AllVariants)-1],
	}
	if cfg.Input != nil {
		l.lastInput = cfg.Input.Sample()
	}
	return l
}

// Selected returns the variant currently shown.
func (l *Loop) Selected() models.Variant {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Tick runs one iteration.
func (l *Loop) Tick(ctx context.Context) Result {
	l.mu.Lock()
	if l.cfg.Input != nil {
		if state := l.cfg.Input.Sample(); state != l.lastInput {
			l.lastInput = state
			l.selected = l.advance(l.selected)
			l.logger.Info("display selection", "variant", l.selected.String())
		}
	}
	fetch := models.AllVariants[l.nextFetch%len(models.AllVariants)]
	l.nextFetch++
	l.mu.Unlock()

	res := Result{Fetched: fetch}
	res.Outcome, res.Err = l.cfg.Fetcher.Fetch(ctx, fetch)
	if res.Err != nil {
		l.logger.Warn("tick fetch", "variant", fetch.String(), "outcome", res.Outcome.String(), "error", res.Err)
	} else {
		l.logger.Debug("tick fetch", "variant", fetch.String(), "outcome", res.Outcome.String())
	}

	res.Selected = l.Selected()
	if l.cfg.Renderer != nil {
		rendered, err := l.cfg.Renderer.Render(res.Selected)
		if err != nil {
			l.logger.Error("render failed", "variant", res.Selected.String(), "error", err)
		}
		res.Rendered = rendered
	}
	return res
}

// advance returns the next variant after cur that has a record. When none
// has data the selection wraps back onto cur.
func (l *Loop) advance(cur models.Variant) models.Variant {
	n := len(models.AllVariants)
	start := 0
	for i, v := range models.AllVariants {
		if v == cur {
			start = i
		}
	}
	for i := 1; i <= n; i++ {
		v := models.AllVariants[(start+i)%n]
		if l.cfg.Store.Has(v) {
			return v
		}
	}
	return cur
}

// Run ticks immediately and then every interval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	l.logger.Info("tick loop started", "interval", l.cfg.Interval)
	l.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("tick loop stopped")
			return nil
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}
