// ABOUTME: Tests for the tick loop.
// ABOUTME: Uses a scripted fetcher and the software button to drive selection.
package loop

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []models.Variant
}

func (f *fakeFetcher) Fetch(_ context.Context, v models.Variant) (client.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, v)
	return client.OK, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type nopActuator struct{ shown []display.Reading }

func (a *nopActuator) Show(r display.Reading) error {
	a.shown = append(a.shown, r)
	return nil
}

func newTestLoop(store *storage.Store, f Fetcher, b *display.Button, act display.Actuator) *Loop {
	return New(Config{
		Fetcher:  f,
		Store:    store,
		Renderer: display.NewRenderer(store, act),
		Input:    b,
		Interval: 10 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestTickFetchesRoundRobin(t *testing.T) {
	f := &fakeFetcher{}
	l := newTestLoop(storage.New(2), f, &display.Button{}, &nopActuator{})

	for i := 0; i < 5; i++ {
		l.Tick(context.Background())
	}
	assert.Equal(t, []models.Variant{
		models.VariantRecovery, models.VariantSleep, models.VariantCycle, models.VariantWorkout, models.VariantRecovery,
	}, f.fetched)
}

func TestButtonAdvancesToVariantsWithData(t *testing.T) {
	store := storage.New(2)
	_, err := store.Create(models.VariantSleep, 1)
	require.NoError(t, err)
	h, err := store.Create(models.VariantWorkout, 2)
	require.NoError(t, err)
	require.NoError(t, store.SetFloat(h, models.WorkoutStrain, 8))

	b := &display.Button{}
	act := &nopActuator{}
	l := newTestLoop(store, &fakeFetcher{}, b, act)
	assert.Equal(t, models.VariantWorkout, l.Selected())

	res := l.Tick(context.Background())
	assert.Equal(t, models.VariantWorkout, res.Selected, "selection moved without a press")

	b.Press()
	res = l.Tick(context.Background())
	assert.Equal(t, models.VariantSleep, res.Selected)
	assert.True(t, res.Rendered)

	b.Press()
	res = l.Tick(context.Background())
	assert.Equal(t, models.VariantWorkout, res.Selected)

	last := act.shown[len(act.shown)-1]
	assert.Equal(t, display.Green, last.Color)
}

func TestButtonWithNoDataKeepsSelection(t *testing.T) {
	b := &display.Button{}
	l := newTestLoop(storage.New(2), &fakeFetcher{}, b, &nopActuator{})

	b.Press()
	res := l.Tick(context.Background())
	assert.Equal(t, models.VariantWorkout, res.Selected)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{}
	l := newTestLoop(storage.New(2), f, &display.Button{}, &nopActuator{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return f.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
