package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/browser/browsertest"
	"github.com/sells-group/showtimes-cli/internal/navigate"
	"github.com/sells-group/showtimes-cli/internal/site"
)

func builtin(t *testing.T, key string) site.Adapter {
	t.Helper()
	for _, a := range site.Defaults() {
		if a.Key == key {
			return a
		}
	}
	t.Fatalf("no built-in site %q", key)
	return site.Adapter{}
}

func testConfig() navigate.Config {
	return navigate.Config{Attempts: navigate.DefaultAttempts()}
}

func node(text string) *browsertest.Node { return &browsertest.Node{Text: text} }

func nodes(texts ...string) []*browsertest.Node {
	out := make([]*browsertest.Node, 0, len(texts))
	for _, s := range texts {
		out = append(out, node(s))
	}
	return out
}

type countingDismisser struct{ calls int }

func (d *countingDismisser) DismissAnnouncement(context.Context, []string) bool {
	d.calls++
	return true
}

func TestStandard_Cards(t *testing.T) {
	a := builtin(t, "sn_dakar")
	loc := a.Standard
	s := browsertest.New()
	s.Set(loc.MovieCard,
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Title:    nodes("  Dune Deux "),
			loc.Duration: nodes("2h46"),
			loc.Time:     nodes("14h30", "20:15", "  "),
		}},
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Time: nodes("16:00"),
		}},
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Title: nodes(""),
			loc.Time:  nodes("19:00"),
		}},
		&browsertest.Node{Children: map[string][]*browsertest.Node{
			loc.Title: nodes("Gladiator II"),
			loc.Time:  nodes("18h00"),
		}},
	)
	s.Set(loc.Duration, nodes("1h30", "2h28")...)

	rows, st, err := New(s, testConfig(), nil).Extract(context.Background(), a, "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, Stats{Cards: 4, Parsed: 2, Skipped: 2}, st)
	require.Len(t, rows, 3)

	assert.Equal(t, "Dune Deux", rows[0].MovieTitle)
	assert.Equal(t, "14:30", rows[0].StartTime)
	assert.Equal(t, "2026-10-14", rows[0].ShowDate)
	assert.Equal(t, "sn_dakar", rows[0].SiteKey)
	assert.Equal(t, a.CinemaName, rows[0].CinemaName)
	require.NotNil(t, rows[0].DurationMinutes)
	assert.Equal(t, 166, *rows[0].DurationMinutes)
	assert.Equal(t, "20:15", rows[1].StartTime)

	assert.Equal(t, "Gladiator II", rows[2].MovieTitle)
	assert.Equal(t, "18:00", rows[2].StartTime)
	require.NotNil(t, rows[2].DurationMinutes)
	assert.Equal(t, 148, *rows[2].DurationMinutes, "falls back to the second page-wide duration")
}

func TestStandard_SingleGlobalDurationIsIgnored(t *testing.T) {
	a := builtin(t, "sn_dakar")
	loc := a.Standard
	s := browsertest.New()
	s.Set(loc.MovieCard, &browsertest.Node{Children: map[string][]*browsertest.Node{
		loc.Title: nodes("Wicked"),
		loc.Time:  nodes("21:00"),
	}})
	s.Set(loc.Duration, nodes("2h40")...)

	rows, _, err := New(s, testConfig(), nil).Extract(context.Background(), a, "2026-10-15")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].DurationMinutes)
	assert.Empty(t, rows[0].Duration)
}

func TestStandard_NoCards(t *testing.T) {
	a := builtin(t, "sn_dakar")
	rows, st, err := New(browsertest.New(), testConfig(), nil).Extract(context.Background(), a, "2026-10-14")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, st.Cards)
}

const listingFixture = `<html><body>
<div class="card"><h3> Dune Deux </h3><span class="dur">2h46</span>
  <div class="time">14h30 VF</div><div class="time">20:15</div></div>
<div class="card"><h3>Gladiator II</h3><div class="time">18:00</div></div>
<div class="card"><h3>Wicked</h3><span class="dur">2h40</span><div class="time">21h00</div></div>
</body></html>`

func TestStandard_Snapshot(t *testing.T) {
	a := site.Adapter{
		Key:        "fixture",
		CinemaName: "Cinéma Fixture",
		Variant:    site.Standard,
		Standard: &site.StandardLocators{
			MovieCard: "div.card",
			Title:     "h3",
			Time:      "div.time",
			Duration:  "span.dur",
		},
	}
	s := browser.NewSnapshot(map[string][]byte{browser.IndexPage: []byte(listingFixture)})
	require.NoError(t, s.Navigate(context.Background(), "https://cinema.test/"))

	rows, st, err := New(s, testConfig(), nil).Extract(context.Background(), a, "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Parsed)
	require.Len(t, rows, 4)

	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.MovieTitle+"@"+r.StartTime)
	}
	assert.Equal(t, []string{"Dune Deux@14:30", "Dune Deux@20:15", "Gladiator II@18:00", "Wicked@21:00"}, got)
	require.NotNil(t, rows[2].DurationMinutes)
	assert.Equal(t, 160, *rows[2].DurationMinutes)
}

// majesticPage lays out a listing of two movies whose detail view has two
// date tabs; the second tab never shows its slots.
func majesticPage(a site.Adapter) *browsertest.Session {
	loc := a.Alternate
	s := browsertest.New()

	openDetail := func(title string) func() {
		return func() {
			s.Set(loc.DetailTitle, node(title))
			s.Set(loc.DetailDuration, node("1h50"))
		}
	}
	s.Set(loc.MovieCard,
		&browsertest.Node{Label: "card-venom", OnClick: openDetail("Venom")},
		&browsertest.Node{Label: "card-smile", OnClick: openDetail("Smile 2")},
	)
	s.Set(loc.DateTab,
		&browsertest.Node{Label: "tab-1", OnClick: func() {
			s.Set(loc.SlotContainer, node(""))
			s.Set(loc.DateHeader, &browsertest.Node{Children: map[string][]*browsertest.Node{
				loc.DateHeaderPart: nodes("Mer", "", "15", "Oct"),
			}})
			s.Set(loc.TimeSlot, nodes("14h00", " 17:30 ")...)
		}},
		&browsertest.Node{Label: "tab-2", OnClick: func() {
			s.Remove(loc.SlotContainer)
		}},
	)
	s.Set(loc.BackButton, &browsertest.Node{Label: "back-button"})
	return s
}

func TestAlternate_Details(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	s := majesticPage(a)
	d := &countingDismisser{}
	e := New(s, testConfig(), d)
	e.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }

	rows, st, err := e.Extract(context.Background(), a, "ignored")
	require.NoError(t, err)
	assert.Equal(t, Stats{Cards: 2, Parsed: 2}, st)
	require.Len(t, rows, 4)

	assert.Equal(t, "Venom", rows[0].MovieTitle)
	assert.Equal(t, "2026-10-15", rows[0].ShowDate)
	assert.Equal(t, "14:00", rows[0].StartTime)
	assert.Equal(t, "17:30", rows[1].StartTime)
	require.NotNil(t, rows[0].DurationMinutes)
	assert.Equal(t, 110, *rows[0].DurationMinutes)
	assert.Equal(t, "Smile 2", rows[2].MovieTitle)

	assert.Equal(t, 2, s.Count("click back-button"))
	assert.Equal(t, 0, s.Count("back"))
	assert.Equal(t, 4, d.calls)
	assert.Equal(t, 1, s.Count("scroll-into-view card-venom"))
}

func TestAlternate_HistoryFallback(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	s := majesticPage(a)
	s.Remove(a.Alternate.BackButton)
	e := New(s, testConfig(), nil)

	rows, _, err := e.Extract(context.Background(), a, "")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, 2, s.Count("back"))
}

func TestAlternate_DetailNeverOpens(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	loc := a.Alternate
	s := browsertest.New()
	s.Set(loc.MovieCard, &browsertest.Node{Label: "a"}, &browsertest.Node{Label: "b"})

	rows, st, err := New(s, testConfig(), nil).Extract(context.Background(), a, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, Stats{Cards: 2, Skipped: 2}, st)
}

func TestAlternate_FailedDetailReturnsToList(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	loc := a.Alternate
	s := browsertest.New()

	list := []*browsertest.Node{
		// Opens a view with neither the list nor a detail title.
		{Label: "card-broken", OnClick: func() { s.Remove(loc.MovieCard) }},
		{Label: "card-venom", OnClick: func() { s.Set(loc.DetailTitle, node("Venom")) }},
	}
	s.Set(loc.MovieCard, list...)
	s.Set(loc.BackButton, &browsertest.Node{Label: "back-button", OnClick: func() {
		s.Set(loc.MovieCard, list...)
	}})
	s.Set(loc.DateTab, &browsertest.Node{OnClick: func() {
		s.Set(loc.SlotContainer, node(""))
		s.Set(loc.TimeSlot, node("20h45"))
	}})

	rows, st, err := New(s, testConfig(), nil).Extract(context.Background(), a, "")
	require.NoError(t, err)
	assert.Equal(t, Stats{Cards: 2, Parsed: 1, Skipped: 1}, st)
	require.Len(t, rows, 1)
	assert.Equal(t, "Venom", rows[0].MovieTitle)
	assert.Equal(t, 2, s.Count("click back-button"))
}

func TestAlternate_FailedDetailOnListStaysPut(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	loc := a.Alternate
	s := browsertest.New()
	s.Set(loc.MovieCard, &browsertest.Node{Label: "a"})
	s.Set(loc.BackButton, &browsertest.Node{Label: "back-button"})

	_, st, err := New(s, testConfig(), nil).Extract(context.Background(), a, "")
	require.NoError(t, err)
	assert.Equal(t, Stats{Cards: 1, Skipped: 1}, st)
	assert.Zero(t, s.Count("click back-button"))
	assert.Zero(t, s.Count("back"))
}

func TestAlternate_UndatedTabUsesToday(t *testing.T) {
	a := builtin(t, "ci_maj_prima")
	loc := a.Alternate
	s := browsertest.New()
	s.Set(loc.MovieCard, &browsertest.Node{OnClick: func() { s.Set(loc.DetailTitle, node("Venom")) }})
	s.Set(loc.DateTab, &browsertest.Node{OnClick: func() {
		s.Set(loc.SlotContainer, node(""))
		s.Set(loc.TimeSlot, node("20h45"))
	}})
	e := New(s, testConfig(), nil)
	e.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }

	rows, _, err := e.Extract(context.Background(), a, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-14", rows[0].ShowDate)
	assert.Equal(t, "20:45", rows[0].StartTime)
	assert.Nil(t, rows[0].DurationMinutes)
}
