package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// MemoryStore is a Ledger that lives for the process only.
type MemoryStore struct {
	mu   sync.Mutex
	runs []model.Run
	best map[[2]string]model.BestCount
}

var _ Ledger = (*MemoryStore)(nil)

// NewMemory returns an empty in-memory ledger.
func NewMemory() *MemoryStore {
	return &MemoryStore{best: make(map[[2]string]model.BestCount)}
}

func (m *MemoryStore) Record(_ context.Context, run *model.Run) (model.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	m.runs = append(m.runs, *run)

	key := [2]string{run.SiteKey, run.ShowDate}
	b, ok := m.best[key]
	if !ok || run.Unique > b.Best {
		m.best[key] = model.BestCount{SiteKey: run.SiteKey, ShowDate: run.ShowDate, Best: run.Unique, UpdatedAt: run.CreatedAt}
	}
	return model.Totals{Best: m.best[key].Best, Cumulative: m.cumulative()}, nil
}

func (m *MemoryStore) ListRuns(_ context.Context, filter RunFilter) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if filter.SiteKey != "" && r.SiteKey != filter.SiteKey {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) BestCounts(context.Context) ([]model.BestCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.BestCount, 0, len(m.best))
	for _, b := range m.best {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteKey != out[j].SiteKey {
			return out[i].SiteKey < out[j].SiteKey
		}
		return out[i].ShowDate < out[j].ShowDate
	})
	return out, nil
}

func (m *MemoryStore) Cumulative(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cumulative(), nil
}

func (m *MemoryStore) cumulative() int {
	n := 0
	for _, r := range m.runs {
		n += r.Rows
	}
	return n
}

func (m *MemoryStore) Migrate(context.Context) error { return nil }
func (m *MemoryStore) Close() error                  { return nil }
