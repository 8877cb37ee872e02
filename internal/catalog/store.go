package catalog

import (
	"context"
)

// Store defines the persistence interface for the identity catalogs.
// Implementations rewrite the whole catalog on every Append; insert volume
// is a handful of cinemas per run.
type Store interface {
	// Load returns the catalog, creating it with the canonical header when
	// absent and adding missing canonical columns with blank values.
	Load(ctx context.Context, kind Kind) (*Table, error)

	// Persist writes the full table back.
	Persist(ctx context.Context, kind Kind, t *Table) error

	// Append assigns the next id (max+1, or 1 when empty), writes the
	// record and persists immediately. The assigned id is returned even
	// when the write fails.
	Append(ctx context.Context, kind Kind, values map[string]string) (int, error)
}
