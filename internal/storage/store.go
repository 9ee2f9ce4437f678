// ABOUTME: Fixed-capacity ring store holding the most recent WHOOP records per variant.
// ABOUTME: Slots are preallocated; the oldest record is overwritten when a ring wraps.
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/whoop/internal/models"
)

// DefaultCapacity is the number of records kept per variant.
const DefaultCapacity = 5

var (
	// ErrInvalidOption is returned when an option code does not address a
	// field of the handle's variant, or a value has the wrong kind.
	ErrInvalidOption = models.ErrInvalidOption
	// ErrIDNotFound is returned when no live slot carries the requested id.
	ErrIDNotFound = errors.New("id not found")
	// ErrNoRecordings is returned for a "most recent" lookup on an empty ring.
	ErrNoRecordings = errors.New("no recordings")
	// ErrInvalidHandle is returned for the zero Handle or a slot out of range.
	ErrInvalidHandle = errors.New("invalid handle")
)

// Handle refers to one slot of one ring. It stays valid until the ring wraps
// onto the slot again; the store does not detect that.
type Handle struct {
	variant models.Variant
	slot    int
}

// Variant returns the variant of the record the handle points at.
func (h Handle) Variant() models.Variant { return h.variant }

// Slot returns the ring index of the handle.
func (h Handle) Slot() int { return h.slot }

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.variant == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s[%d]", h.variant, h.slot)
}

type ring struct {
	mu      sync.RWMutex
	variant models.Variant
	ints    [][]int64
	floats  [][]float64
	seq     []uint64
	stamps  []time.Time
	created uint64
	latest  int
}

func newRing(v models.Variant, capacity int) *ring {
	r := &ring{
		variant: v,
		ints:    make([][]int64, capacity),
		floats:  make([][]float64, capacity),
		seq:     make([]uint64, capacity),
		stamps:  make([]time.Time, capacity),
		latest:  -1,
	}
	for i := 0; i < capacity; i++ {
		r.ints[i] = make([]int64, models.IntCount(v))
		r.floats[i] = make([]float64, models.FloatCount(v))
	}
	return r
}

// live returns the number of populated slots. Caller holds the lock.
func (r *ring) live() int {
	if r.created < uint64(len(r.ints)) {
		return int(r.created)
	}
	return len(r.ints)
}

// Store owns one ring per variant.
type Store struct {
	capacity int
	rings    map[models.Variant]*ring
	now      func() time.Time
}

// Compile-time check that Store implements Repository.
var _ Repository = (*Store)(nil)

// New creates a store with capacity slots per variant. A capacity below one
// falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	s := &Store{
		capacity: capacity,
		rings:    make(map[models.Variant]*ring, len(models.AllVariants)),
		now:      time.Now,
	}
	for _, v := range models.AllVariants {
		s.rings[v] = newRing(v, capacity)
	}
	return s
}

// Capacity returns the per-variant slot count.
func (s *Store) Capacity() int { return s.capacity }

func (s *Store) ring(v models.Variant) (*ring, error) {
	r, ok := s.rings[v]
	if !ok {
		return nil, fmt.Errorf("variant %s: %w", v, ErrInvalidOption)
	}
	return r, nil
}

func (s *Store) ringFor(h Handle) (*ring, error) {
	if h.IsZero() {
		return nil, ErrInvalidHandle
	}
	r, err := s.ring(h.variant)
	if err != nil {
		return nil, err
	}
	if h.slot < 0 || h.slot >= s.capacity {
		return nil, fmt.Errorf("slot %d: %w", h.slot, ErrInvalidHandle)
	}
	return r, nil
}

// Find returns the handle of the record with the given id. An id of zero
// returns the most recently created record.
func (s *Store) Find(v models.Variant, id int64) (Handle, error) {
	r, err := s.ring(v)
	if err != nil {
		return Handle{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == 0 {
		if r.latest < 0 {
			return Handle{}, fmt.Errorf("%s: %w", v, ErrNoRecordings)
		}
		return Handle{variant: v, slot: r.latest}, nil
	}

	for slot := 0; slot < r.live(); slot++ {
		if matchesID(v, r.ints[slot], id) {
			return Handle{variant: v, slot: slot}, nil
		}
	}
	return Handle{}, fmt.Errorf("%s %d: %w", v, id, ErrIDNotFound)
}

// matchesID compares id against the identity fields of a record.
// Recovery records match on either sleep id or cycle id.
func matchesID(v models.Variant, ints []int64, id int64) bool {
	if v == models.VariantRecovery {
		return ints[offsetOf(models.RecoverySleepID)] == id || ints[offsetOf(models.RecoveryCycleID)] == id
	}
	return ints[0] == id
}

func offsetOf(o models.Option) int {
	return int(o & 0xFF)
}

// Create claims the next slot of the variant's ring, zeroes it and writes the
// identity fields. Recovery takes (cycle id, sleep id); the others take one id.
func (s *Store) Create(v models.Variant, ids ...int64) (Handle, error) {
	r, err := s.ring(v)
	if err != nil {
		return Handle{}, err
	}
	idFields := models.IdentityFields(v)
	if len(ids) != len(idFields) {
		return Handle{}, fmt.Errorf("create %s: want %d ids, got %d", v, len(idFields), len(ids))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot := int(r.created % uint64(s.capacity))
	clear(r.ints[slot])
	clear(r.floats[slot])
	for i, f := range idFields {
		r.ints[slot][f.Offset] = ids[i]
	}
	r.created++
	r.seq[slot] = r.created
	r.stamps[slot] = s.now()
	r.latest = slot

	return Handle{variant: v, slot: slot}, nil
}

// Count returns how many records of a variant have ever been created.
func (s *Store) Count(v models.Variant) uint64 {
	r, err := s.ring(v)
	if err != nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.created
}

// Has reports whether the variant has at least one record.
func (s *Store) Has(v models.Variant) bool {
	return s.Count(v) > 0
}
