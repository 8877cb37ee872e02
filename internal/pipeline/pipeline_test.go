package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/showtimes-cli/internal/browser/browsertest"
	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/model"
	"github.com/sells-group/showtimes-cli/internal/navigate"
	"github.com/sells-group/showtimes-cli/internal/resilience"
	"github.com/sells-group/showtimes-cli/internal/resolve"
	"github.com/sells-group/showtimes-cli/internal/scroll"
	"github.com/sells-group/showtimes-cli/internal/site"
	"github.com/sells-group/showtimes-cli/internal/store"
)

var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	catalogs *catalog.XLSXStore
	ledger   *store.MemoryStore
	registry *site.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	reg, err := site.NewRegistryFromConfig("")
	require.NoError(t, err)

	f := &fixture{
		catalogs: catalog.NewXLSXStore(filepath.Join(dir, "cinemas.xlsx"), filepath.Join(dir, "movies.xlsx")),
		ledger:   store.NewMemory(),
		registry: reg,
	}
	movies := catalog.NewTable(catalog.Movies)
	movies.AppendRecord(map[string]string{
		catalog.ColID:            "9",
		catalog.ColOriginalTitle: "Dune: Part Two",
		catalog.ColTitle:         "Dune Deux",
	})
	require.NoError(t, f.catalogs.Persist(context.Background(), catalog.Movies, movies))
	return f
}

// testConfig keeps production attempt counts but never sleeps.
func testConfig() Config {
	return Config{
		Navigation: navigate.Config{Attempts: navigate.DefaultAttempts()},
		Scroll: scroll.Config{
			StepsPerBatch:  8,
			MaxAttempts:    12,
			MaxBatches:     200,
			StepMin:        0.20,
			StepMax:        0.40,
			ReverseStepMax: 0.35,
		},
	}
}

func (f *fixture) pipeline(cs catalog.Store) *Pipeline {
	if cs == nil {
		cs = f.catalogs
	}
	p := New(testConfig(), f.registry, cs, f.ledger)
	p.now = func() time.Time { return testNow }
	return p
}

func (f *fixture) adapter(t *testing.T, key string) site.Adapter {
	t.Helper()
	a, err := f.registry.Get(key)
	require.NoError(t, err)
	return a
}

func texts(values ...string) []*browsertest.Node {
	out := make([]*browsertest.Node, 0, len(values))
	for _, v := range values {
		out = append(out, &browsertest.Node{Text: v})
	}
	return out
}

func standardSession(a site.Adapter) *browsertest.Session {
	loc := a.Standard
	s := browsertest.New()
	s.Set("body", &browsertest.Node{})
	s.Set(loc.ConsentButton, &browsertest.Node{Label: "consent"})
	s.Set(loc.CinemaLink, &browsertest.Node{Label: "cinema"})
	s.Set(loc.MovieCard,
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Title:    texts("Dune Deux"),
			loc.Duration: texts("2h46"),
			loc.Time:     texts("14h30", "20:15", "14:30"),
		}},
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Title:    texts("Xyzzy Nonexistent"),
			loc.Duration: texts("95 min"),
			loc.Time:     texts("16:00"),
		}},
	)
	return s
}

func TestRun_StandardEndToEnd(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")

	res := f.pipeline(nil).Run(context.Background(), standardSession(a), Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)

	assert.Equal(t, model.RunStatusOK, res.Status)
	assert.True(t, res.CardsReady)
	assert.Equal(t, "2026-10-14", res.ShowDate)
	assert.Equal(t, 1, res.CinemaID)
	assert.Equal(t, resolve.MatchCreated, res.CinemaMethod)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, 3, res.Persistable, "duplicate slots are kept")
	assert.Equal(t, 1, res.Films)
	assert.Equal(t, 2, res.Unique)
	require.Len(t, res.Unknown, 1)
	assert.Equal(t, "Xyzzy Nonexistent", res.Unknown[0].Title)
	assert.Equal(t, 95, *res.Unknown[0].DurationMinutes)

	for _, r := range res.Rows {
		assert.Equal(t, 1, r.CinemaID)
	}
	assert.Equal(t, 9, *res.Rows[0].MovieID)
	assert.Nil(t, res.Rows[3].MovieID)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, model.Totals{Best: 2, Cumulative: 3}, res.Totals)

	movies, err := f.catalogs.Load(context.Background(), catalog.Movies)
	require.NoError(t, err)
	assert.Equal(t, 1, movies.Len(), "movie catalog is never written by a run")
}

func TestRun_SecondRunReusesCinemaAndAccumulates(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	p := f.pipeline(nil)

	first := p.Run(context.Background(), standardSession(a), Request{SiteKey: "sn_dakar"})
	require.NoError(t, first.Err)

	s := standardSession(a)
	s.Set(a.Standard.MovieCard, &browsertest.Node{Children: map[string][]*browsertest.Node{
		a.Standard.Title: texts("Dune Deux"),
		a.Standard.Time:  texts("21:00"),
	}})
	second := p.Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	require.NoError(t, second.Err)

	assert.Equal(t, first.CinemaID, second.CinemaID)
	assert.Equal(t, resolve.MatchURL, second.CinemaMethod)
	assert.Equal(t, 2, second.Totals.Best, "best keeps the larger first run")
	assert.Equal(t, 4, second.Totals.Cumulative)
}

func TestRun_DeadSessionFails(t *testing.T) {
	f := newFixture(t)
	s := browsertest.New()
	s.Dead = true

	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	assert.ErrorIs(t, res.Err, resilience.ErrSessionUnavailable)
	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.Empty(t, res.Rows)
	assert.Empty(t, s.Log(), "nothing is driven on a dead session")

	runs, err := f.ledger.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Zero(t, runs[0].Rows)
}

func TestRun_NilSessionFails(t *testing.T) {
	f := newFixture(t)
	res := f.pipeline(nil).Run(context.Background(), nil, Request{SiteKey: "sn_dakar"})
	assert.ErrorIs(t, res.Err, resilience.ErrSessionUnavailable)
}

func TestRun_UnknownSiteFails(t *testing.T) {
	f := newFixture(t)
	res := f.pipeline(nil).Run(context.Background(), browsertest.New(), Request{SiteKey: "nowhere"})
	require.Error(t, res.Err)
	assert.Equal(t, model.RunStatusFailed, res.Status)
}

func TestRun_MalformedCinemaCatalogIsFatal(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	require.NoError(t, os.WriteFile(f.catalogs.Path(catalog.Cinemas), []byte("not a workbook"), 0o644))

	s := standardSession(a)
	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	assert.ErrorIs(t, res.Err, resilience.ErrCatalogRead)
	assert.True(t, resilience.IsFatal(res.Err))
	assert.Equal(t, model.RunStatusFailed, res.Status)
	assert.Zero(t, res.CinemaID, "a read failure never falls back to the configured id")
	assert.Empty(t, res.Rows)
	assert.Empty(t, s.Log())
}

// faultyStore injects cinema catalog failures in front of a real store.
type faultyStore struct {
	catalog.Store
	loadErr   error
	appendErr error
}

func (s *faultyStore) Load(ctx context.Context, kind catalog.Kind) (*catalog.Table, error) {
	if kind == catalog.Cinemas && s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Store.Load(ctx, kind)
}

func (s *faultyStore) Append(ctx context.Context, kind catalog.Kind, values map[string]string) (int, error) {
	id, err := s.Store.Append(ctx, kind, values)
	if err == nil && s.appendErr != nil {
		return id, s.appendErr
	}
	return id, err
}

func TestRun_CinemaErrorFallsBackToConfiguredID(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	cs := &faultyStore{Store: f.catalogs, loadErr: eris.New("share offline")}

	res := f.pipeline(cs).Run(context.Background(), standardSession(a), Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	assert.Equal(t, model.RunStatusDegraded, res.Status)
	assert.Equal(t, a.CinemaID, res.CinemaID)
	assert.Equal(t, 3, res.Persistable)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "cinema catalog")
}

func TestRun_CatalogWriteFailureKeepsAssignedID(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	cs := &faultyStore{Store: f.catalogs, appendErr: eris.Wrap(resilience.ErrCatalogWrite, "disk full")}

	res := f.pipeline(cs).Run(context.Background(), standardSession(a), Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	assert.Equal(t, model.RunStatusDegraded, res.Status)
	assert.Equal(t, 1, res.CinemaID, "assigned id is not rolled back")
	assert.Equal(t, resolve.MatchCreated, res.CinemaMethod)
}

func TestRun_NavigationWarningsDegrade(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	s := standardSession(a)
	s.Remove(a.Standard.CinemaLink)

	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	assert.Equal(t, model.RunStatusDegraded, res.Status)
	assert.Equal(t, 3, res.Persistable, "rows are still aggregated")
}

func TestRun_NoCardsIsDegradedNotFailed(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	s := standardSession(a)
	s.Remove(a.Standard.MovieCard)

	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	assert.Equal(t, model.RunStatusDegraded, res.Status)
	assert.False(t, res.CardsReady)
	assert.Empty(t, res.Rows)
	assert.Equal(t, model.Totals{Best: 0, Cumulative: 0}, res.Totals)
}

func TestRun_FutureDateUsesSlider(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	s := standardSession(a)
	s.Set(a.Standard.DateSliderNext, &browsertest.Node{Label: "tomorrow"})

	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar", Date: testNow.AddDate(0, 0, 1)})
	require.NoError(t, res.Err)
	assert.Equal(t, "2026-10-15", res.ShowDate)
	assert.Equal(t, 1, s.Count("click tomorrow"))
	assert.Equal(t, "2026-10-15", res.Rows[0].ShowDate)
	assert.Equal(t, 2, res.Unique)
}

func TestRun_StandardScrollsBeforeExtracting(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	s := standardSession(a)

	var scrolls []int
	s.ExecFunc = func(_ string, args []any) (any, error) {
		if len(args) == 1 {
			scrolls = append(scrolls, args[0].(int))
			return nil, nil
		}
		return []any{float64(1000), float64(1500), float64(0)}, nil
	}

	res := f.pipeline(nil).Run(context.Background(), s, Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	require.NotEmpty(t, scrolls)
	assert.Equal(t, 0, scrolls[len(scrolls)-1], "ends pinned at the top")
	assert.Equal(t, 3, res.Persistable)
}

func TestRun_CancelledContextFails(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.pipeline(nil).Run(ctx, standardSession(a), Request{SiteKey: "sn_dakar"})
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, model.RunStatusFailed, res.Status)

	runs, err := f.ledger.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1, "cancelled runs are still recorded")
}

func TestRun_NilLedger(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "sn_dakar")
	p := New(testConfig(), f.registry, f.catalogs, nil)
	p.now = func() time.Time { return testNow }

	res := p.Run(context.Background(), standardSession(a), Request{SiteKey: "sn_dakar"})
	require.NoError(t, res.Err)
	assert.Empty(t, res.RunID)
	assert.Zero(t, res.Totals)
}
