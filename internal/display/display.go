// ABOUTME: Maps a variant's headline reading onto an RGB colour and pushes it to an actuator.
// ABOUTME: The terminal actuator draws the colour as a swatch using fatih/color.
package display

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
)

// Color is an RGB triple for the status light.
type Color struct {
	R, G, B uint8
}

var (
	Off    = Color{}
	Green  = Color{G: 255}
	Yellow = Color{R: 255, G: 255}
	Orange = Color{R: 255, G: 127}
	Red    = Color{R: 255}
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Orange:
		return "orange"
	case Red:
		return "red"
	default:
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
}

// ColorFor grades a headline value of variant v.
func ColorFor(v models.Variant, value float64) Color {
	switch v {
	case models.VariantRecovery:
		switch {
		case value > 67:
			return Green
		case value > 34:
			return Yellow
		default:
			return Red
		}
	case models.VariantSleep:
		switch {
		case value > 90:
			return Green
		case value > 70:
			return Yellow
		default:
			return Red
		}
	case models.VariantCycle, models.VariantWorkout:
		switch {
		case value < 10:
			return Green
		case value < 14:
			return Yellow
		case value < 19:
			return Orange
		default:
			return Red
		}
	}
	return Off
}

// Reading is what an actuator shows.
type Reading struct {
	Variant models.Variant
	Field   models.Option
	Value   float64
	Color   Color
	// Present is false when the variant has no record yet.
	Present bool
	// State is the score state of the record. Unscored records read as Off.
	State models.ScoreState
}

func (r Reading) String() string {
	if !r.Present {
		return fmt.Sprintf("%s: no data", r.Variant)
	}
	if r.State != models.ScoreScored {
		return fmt.Sprintf("%s: %s", r.Variant, r.State)
	}
	unit := ""
	if f, ok := models.FieldFor(r.Field); ok && f.Unit != "strain" {
		unit = f.Unit
	}
	return fmt.Sprintf("%s %.1f%s (%s)", r.Variant, r.Value, unit, r.Color)
}

// Actuator shows readings on some output device.
type Actuator interface {
	Show(r Reading) error
}

// ReadHeadline builds the reading for the most recent record of v.
func ReadHeadline(store storage.Repository, v models.Variant) (Reading, error) {
	opt := models.HeadlineField(v)
	r := Reading{Variant: v, Field: opt, Color: Off}

	h, err := store.Find(v, 0)
	if errors.Is(err, storage.ErrNoRecordings) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	state, err := store.Get(h, models.ScoreStateField(v).Option)
	if err != nil {
		return r, err
	}
	r.Present = true
	r.State = models.ScoreState(state.Int)
	if r.State != models.ScoreScored {
		return r, nil
	}

	val, err := store.Get(h, opt)
	if err != nil {
		return r, err
	}

	r.Value = val.Number()
	r.Color = ColorFor(v, r.Value)
	return r, nil
}

// Renderer pushes readings to an actuator, skipping unchanged ones.
type Renderer struct {
	store    storage.Repository
	actuator Actuator

	mu   sync.Mutex
	last *Reading
}

// NewRenderer creates a renderer over store.
func NewRenderer(store storage.Repository, actuator Actuator) *Renderer {
	return &Renderer{store: store, actuator: actuator}
}

// Render shows the headline of v if it differs from the last pushed reading.
// It reports whether the actuator was updated.
func (r *Renderer) Render(v models.Variant) (bool, error) {
	reading, err := ReadHeadline(r.store, v)
	if err != nil {
		return false, fmt.Errorf("read %s headline: %w", v, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && *r.last == reading {
		return false, nil
	}
	if err := r.actuator.Show(reading); err != nil {
		return false, fmt.Errorf("show %s: %w", v, err)
	}
	r.last = &reading
	return true, nil
}

// Last returns the most recently pushed reading.
func (r *Renderer) Last() (Reading, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Reading{}, false
	}
	return *r.last, true
}

// TerminalActuator prints a coloured swatch line per reading.
type TerminalActuator struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalActuator writes to w.
func NewTerminalActuator(w io.Writer) *TerminalActuator {
	return &TerminalActuator{w: w}
}

// Show prints the reading.
func (t *TerminalActuator) Show(r Reading) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	swatch := color.RGB(int(r.Color.R), int(r.Color.G), int(r.Color.B)).Sprint("●")
	if r.Color == Off {
		swatch = color.New(color.Faint).Sprint("○")
	}
	_, err := fmt.Fprintf(t.w, "%s %s\n", swatch, r)
	return err
}
