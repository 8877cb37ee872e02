// Package store keeps the run ledger: one record per extraction run, the
// best unique showtime count per (site, date) and the cumulative number of
// rows extracted.
package store

import (
	"context"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	SiteKey string `json:"site_key,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Ledger persists run records and the totals derived from them.
type Ledger interface {
	// Record stores run and returns the totals after it.
	Record(ctx context.Context, run *model.Run) (model.Totals, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	BestCounts(ctx context.Context) ([]model.BestCount, error)
	Cumulative(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
