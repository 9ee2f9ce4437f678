// ABOUTME: Value tagged union and the option-addressed accessors of the Store.
// ABOUTME: One Get/Set pair reads and writes any field of any variant by option code.
package storage

import (
	"fmt"
	"strconv"

	"github.com/harperreed/whoop/internal/models"
)

// Value holds one field value; Kind says which member is meaningful.
type Value struct {
	Kind  models.FieldKind
	Int   int64
	Float float64
}

// IntValue wraps an integer field value.
func IntValue(i int64) Value { return Value{Kind: models.KindInt, Int: i} }

// FloatValue wraps a float field value.
func FloatValue(f float64) Value { return Value{Kind: models.KindFloat, Float: f} }

// Number returns the value as a float64 regardless of kind.
func (v Value) Number() float64 {
	if v.Kind == models.KindFloat {
		return v.Float
	}
	return float64(v.Int)
}

func (v Value) String() string {
	if v.Kind == models.KindFloat {
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	}
	return strconv.FormatInt(v.Int, 10)
}

// Interface returns the underlying int64 or float64.
func (v Value) Interface() any {
	if v.Kind == models.KindFloat {
		return v.Float
	}
	return v.Int
}

// Assignment pairs an option with the value to store there.
type Assignment struct {
	Option models.Option
	Value  Value
}

// resolve decodes opt and checks it belongs to the handle's variant.
func resolve(h Handle, opt models.Option) (models.FieldKind, int, error) {
	v, kind, offset, err := opt.Decode()
	if err != nil {
		return 0, 0, err
	}
	if v != h.variant {
		return 0, 0, fmt.Errorf("%s on %s handle: %w", opt, h.variant, ErrInvalidOption)
	}
	return kind, offset, nil
}

// Get reads one field of the record behind h.
func (s *Store) Get(h Handle, opt models.Option) (Value, error) {
	r, err := s.ringFor(h)
	if err != nil {
		return Value{}, err
	}
	kind, offset, err := resolve(h, opt)
	if err != nil {
		return Value{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if kind == models.KindFloat {
		return FloatValue(r.floats[h.slot][offset]), nil
	}
	return IntValue(r.ints[h.slot][offset]), nil
}

// Set writes one field of the record behind h. The value kind must match the
// field kind.
func (s *Store) Set(h Handle, opt models.Option, val Value) error {
	return s.Apply(h, []Assignment{{Option: opt, Value: val}})
}

// Apply writes several fields under a single lock. Every assignment is
// checked before any is written.
func (s *Store) Apply(h Handle, assignments []Assignment) error {
	r, err := s.ringFor(h)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		kind, _, err := resolve(h, a.Option)
		if err != nil {
			return err
		}
		if kind != a.Value.Kind {
			return fmt.Errorf("%s is %s, got %s: %w", a.Option, kind, a.Value.Kind, ErrInvalidOption)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range assignments {
		offset := int(a.Option & 0xFF)
		if a.Value.Kind == models.KindFloat {
			r.floats[h.slot][offset] = a.Value.Float
		} else {
			r.ints[h.slot][offset] = a.Value.Int
		}
	}
	return nil
}

// GetInt reads an integer field.
func (s *Store) GetInt(h Handle, opt models.Option) (int64, error) {
	v, err := s.Get(h, opt)
	if err != nil {
		return 0, err
	}
	if v.Kind != models.KindInt {
		return 0, fmt.Errorf("%s is not an int field: %w", opt, ErrInvalidOption)
	}
	return v.Int, nil
}

// GetFloat reads a float field.
func (s *Store) GetFloat(h Handle, opt models.Option) (float64, error) {
	v, err := s.Get(h, opt)
	if err != nil {
		return 0, err
	}
	if v.Kind != models.KindFloat {
		return 0, fmt.Errorf("%s is not a float field: %w", opt, ErrInvalidOption)
	}
	return v.Float, nil
}

// SetInt writes an integer field.
func (s *Store) SetInt(h Handle, opt models.Option, i int64) error {
	return s.Set(h, opt, IntValue(i))
}

// SetFloat writes a float field.
func (s *Store) SetFloat(h Handle, opt models.Option, f float64) error {
	return s.Set(h, opt, FloatValue(f))
}
