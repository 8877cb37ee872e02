package resolve

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/showtimes-cli/internal/catalog"
)

// --- Catalog Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, kind catalog.Kind) (*catalog.Table, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Table), args.Error(1)
}

func (m *mockStore) Persist(ctx context.Context, kind catalog.Kind, t *catalog.Table) error {
	args := m.Called(ctx, kind, t)
	return args.Error(0)
}

func (m *mockStore) Append(ctx context.Context, kind catalog.Kind, values map[string]string) (int, error) {
	args := m.Called(ctx, kind, values)
	return args.Int(0), args.Error(1)
}
