// ABOUTME: Repository interface for the record store.
// ABOUTME: Consumers depend on this contract so tests can substitute their own store.
package storage

import "github.com/harperreed/whoop/internal/models"

// Repository defines the record store operations used by ingestion,
// rendering and the servers.
type Repository interface {
	// Lookup and slot allocation
	Find(v models.Variant, id int64) (Handle, error)
	Create(v models.Variant, ids ...int64) (Handle, error)
	Has(v models.Variant) bool

	// Field access
	Get(h Handle, opt models.Option) (Value, error)
	Set(h Handle, opt models.Option, val Value) error
	Apply(h Handle, assignments []Assignment) error

	// Export
	Record(h Handle) (*Record, error)
	Snapshot() []*Record
}

// Lookup copies the record of v with the given id; id 0 means most recent.
func Lookup(repo Repository, v models.Variant, id int64) (*Record, error) {
	h, err := repo.Find(v, id)
	if err != nil {
		return nil, err
	}
	return repo.Record(h)
}
