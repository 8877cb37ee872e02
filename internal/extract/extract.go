// Package extract turns the showtime cards of a navigated page into raw
// showtime rows.
//
// Cards are parsed independently: a card that fails to parse is logged and
// skipped, and the run goes on with the next one.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/model"
	"github.com/sells-group/showtimes-cli/internal/navigate"
	"github.com/sells-group/showtimes-cli/internal/resilience"
	"github.com/sells-group/showtimes-cli/internal/site"
)

const titleRetryMultiplier = 1.6

// Dismisser closes announcement dialogs that cover alternate-layout pages.
type Dismisser interface {
	DismissAnnouncement(ctx context.Context, locators []string) bool
}

// Stats counts what happened to the cards of one page.
type Stats struct {
	Cards   int
	Parsed  int
	Skipped int
}

// Extractor reads cards from a session.
type Extractor struct {
	session browser.Session
	cfg     navigate.Config
	dismiss Dismisser
	now     func() time.Time
}

// New creates an Extractor. dismiss may be nil for sites without
// announcement dialogs.
func New(session browser.Session, cfg navigate.Config, dismiss Dismisser) *Extractor {
	return &Extractor{session: session, cfg: cfg, dismiss: dismiss, now: time.Now}
}

// Extract reads every card of the current page. showDate (YYYY-MM-DD) is
// stamped on standard-variant rows; alternate-layout rows carry the date
// read from each tab. The error is non-nil only when ctx ends.
func (e *Extractor) Extract(ctx context.Context, a site.Adapter, showDate string) ([]model.RawShowtime, Stats, error) {
	switch a.Variant {
	case site.AlternateLayout:
		return e.alternate(ctx, a)
	default:
		return e.standard(ctx, a, showDate)
	}
}

func (e *Extractor) titleRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig().Attempts(
		max(1, e.cfg.Attempts.CardTitle), e.cfg.Timings.TitleRetryDelay, titleRetryMultiplier)
	cfg.ShouldRetry = resilience.RetryOn(resilience.ErrElementNotFound)
	return cfg
}

func (e *Extractor) standard(ctx context.Context, a site.Adapter, showDate string) ([]model.RawShowtime, Stats, error) {
	loc := a.Standard
	log := zap.L().With(zap.String("site", a.Key))

	cards, err := e.session.FindAll(ctx, loc.MovieCard)
	if err != nil {
		return nil, Stats{}, e.ctxOr(ctx, err, log, "list cards")
	}
	st := Stats{Cards: len(cards)}
	log.Info("extract: movie cards found", zap.Int("cards", len(cards)))

	var rows []model.RawShowtime
	for i, card := range cards {
		got, err := e.standardCard(ctx, a, card, showDate)
		if err != nil {
			if ctx.Err() != nil {
				return rows, st, ctx.Err()
			}
			st.Skipped++
			log.Warn("extract: card skipped", zap.Int("card", i), zap.Error(err))
			continue
		}
		if got == nil {
			st.Skipped++
			continue
		}
		st.Parsed++
		rows = append(rows, got...)
	}
	log.Info("extract: showtime rows extracted", zap.Int("rows", len(rows)))
	return rows, st, nil
}

// standardCard returns nil rows for a card without a title.
func (e *Extractor) standardCard(ctx context.Context, a site.Adapter, card browser.Element, showDate string) ([]model.RawShowtime, error) {
	loc := a.Standard

	titleEl, err := resilience.DoVal(ctx, e.titleRetry(), func(ctx context.Context) (browser.Element, error) {
		return card.Find(ctx, loc.Title)
	})
	if err != nil {
		return nil, eris.Wrap(err, "title")
	}
	title, err := text(ctx, titleEl)
	if err != nil {
		return nil, eris.Wrap(err, "title text")
	}
	if title == "" {
		return nil, nil
	}

	durText := e.standardDuration(ctx, loc, card)

	timeEls, err := card.FindAll(ctx, loc.Time)
	if err != nil {
		return nil, eris.Wrap(err, "times")
	}
	rows := make([]model.RawShowtime, 0, len(timeEls))
	for _, el := range timeEls {
		raw, err := text(ctx, el)
		if err != nil {
			return nil, eris.Wrap(err, "time text")
		}
		if raw == "" {
			continue
		}
		rows = append(rows, model.RawShowtime{
			SiteKey:         a.Key,
			CinemaName:      a.CinemaName,
			MovieTitle:      title,
			ShowDate:        showDate,
			StartTime:       ScanTime(raw),
			Duration:        durText,
			DurationMinutes: ParseDuration(durText),
		})
	}
	return rows, nil
}

// standardDuration reads the card's duration, falling back to the second
// page-wide match of the same locator. Missing durations yield "".
func (e *Extractor) standardDuration(ctx context.Context, loc *site.StandardLocators, card browser.Element) string {
	el, err := card.Find(ctx, loc.Duration)
	if err != nil {
		all, ferr := e.session.FindAll(ctx, loc.Duration)
		if ferr != nil || len(all) < 2 {
			return ""
		}
		el = all[1]
	}
	s, err := text(ctx, el)
	if err != nil {
		return ""
	}
	return s
}

func (e *Extractor) alternate(ctx context.Context, a site.Adapter) ([]model.RawShowtime, Stats, error) {
	loc := a.Alternate
	log := zap.L().With(zap.String("site", a.Key))

	cards, err := e.session.FindAll(ctx, loc.MovieCard)
	if err != nil {
		return nil, Stats{}, e.ctxOr(ctx, err, log, "list cards")
	}
	st := Stats{Cards: len(cards)}
	log.Info("extract: movie cards found", zap.Int("cards", len(cards)))

	var rows []model.RawShowtime
	for i := 0; i < st.Cards; i++ {
		// The list is rebuilt after each detail view, so handles are
		// looked up again by position.
		cards, err := e.session.FindAll(ctx, loc.MovieCard)
		if err != nil || i >= len(cards) {
			if ctx.Err() != nil {
				return rows, st, ctx.Err()
			}
			log.Warn("extract: card list changed, stopping", zap.Int("card", i), zap.Int("found", len(cards)))
			st.Skipped += st.Cards - i
			break
		}
		got, err := e.alternateCard(ctx, a, cards[i])
		if err != nil {
			if ctx.Err() != nil {
				return rows, st, ctx.Err()
			}
			st.Skipped++
			log.Warn("extract: movie detail skipped", zap.Int("card", i), zap.Error(err))
			if _, ferr := e.session.Find(ctx, loc.MovieCard); ferr != nil {
				e.backToList(ctx, a)
			}
			continue
		}
		st.Parsed++
		rows = append(rows, got...)
	}
	log.Info("extract: showtime rows extracted", zap.Int("rows", len(rows)))
	return rows, st, nil
}

func (e *Extractor) alternateCard(ctx context.Context, a site.Adapter, card browser.Element) ([]model.RawShowtime, error) {
	loc := a.Alternate
	t := e.cfg.Timings

	_ = card.ScrollIntoView(ctx)
	if err := resilience.Sleep(ctx, t.ClickSettle); err != nil {
		return nil, err
	}
	if err := card.Click(ctx); err != nil {
		return nil, eris.Wrap(err, "open detail")
	}
	titleEl, err := e.session.WaitFor(ctx, loc.DetailTitle, t.DetailWait)
	if err != nil {
		return nil, eris.Wrap(err, "detail title")
	}
	e.dismissAnnouncement(ctx, loc)

	title, err := text(ctx, titleEl)
	if err != nil {
		return nil, eris.Wrap(err, "detail title text")
	}
	if title == "" {
		e.backToList(ctx, a)
		return nil, nil
	}

	var durText string
	if el, err := e.session.Find(ctx, loc.DetailDuration); err == nil {
		durText, _ = text(ctx, el)
	}
	minutes := ParseDuration(durText)

	var rows []model.RawShowtime
	tabs, err := e.session.FindAll(ctx, loc.DateTab)
	if err != nil {
		return nil, eris.Wrap(err, "date tabs")
	}
	for i, tab := range tabs {
		date, slots, err := e.readTab(ctx, loc, tab)
		if err != nil {
			if ctx.Err() != nil {
				return rows, ctx.Err()
			}
			zap.L().Warn("extract: date tab skipped",
				zap.String("site", a.Key), zap.String("movie", title), zap.Int("tab", i), zap.Error(err))
			continue
		}
		for _, slot := range slots {
			rows = append(rows, model.RawShowtime{
				SiteKey:         a.Key,
				CinemaName:      a.CinemaName,
				MovieTitle:      title,
				ShowDate:        date,
				StartTime:       slot,
				Duration:        durText,
				DurationMinutes: minutes,
			})
		}
	}

	e.backToList(ctx, a)
	return rows, nil
}

// readTab opens a date tab and returns its date and normalized time slots.
func (e *Extractor) readTab(ctx context.Context, loc *site.AlternateLocators, tab browser.Element) (string, []string, error) {
	if err := tab.Click(ctx); err != nil {
		return "", nil, eris.Wrap(err, "open tab")
	}
	if _, err := e.session.WaitFor(ctx, loc.SlotContainer, e.cfg.Timings.TabWait); err != nil {
		return "", nil, err
	}

	date := e.now().Format(time.DateOnly)
	if header, err := e.session.Find(ctx, loc.DateHeader); err == nil {
		if parts, err := header.FindAll(ctx, loc.DateHeaderPart); err == nil {
			var texts []string
			for _, p := range parts {
				if s, err := text(ctx, p); err == nil && s != "" {
					texts = append(texts, s)
				}
			}
			if len(texts) > 0 {
				date = ParseDateParts(texts, e.now())
			}
		}
	}

	slotEls, err := e.session.FindAll(ctx, loc.TimeSlot)
	if err != nil {
		return "", nil, eris.Wrap(err, "time slots")
	}
	slots := make([]string, 0, len(slotEls))
	for _, el := range slotEls {
		s, err := text(ctx, el)
		if err != nil {
			return "", nil, eris.Wrap(err, "slot text")
		}
		if s != "" {
			slots = append(slots, NormalizeTime(s))
		}
	}
	return date, slots, nil
}

// backToList returns from a detail view with the dedicated control, or
// with history navigation if that fails.
func (e *Extractor) backToList(ctx context.Context, a site.Adapter) {
	loc := a.Alternate
	t := e.cfg.Timings

	err := func() error {
		btn, err := e.session.Find(ctx, loc.BackButton)
		if err != nil {
			return err
		}
		if err := btn.Click(ctx); err != nil {
			return err
		}
		_, err = e.session.WaitFor(ctx, loc.MovieCard, t.DetailWait)
		return err
	}()
	if err == nil {
		e.dismissAnnouncement(ctx, loc)
		return
	}
	zap.L().Warn("extract: back control failed, using history", zap.String("site", a.Key), zap.Error(err))
	if err := e.session.Back(ctx); err != nil {
		zap.L().Warn("extract: history back failed", zap.String("site", a.Key), zap.Error(err))
	}
	_ = resilience.Sleep(ctx, t.BackSettle)
}

func (e *Extractor) dismissAnnouncement(ctx context.Context, loc *site.AlternateLocators) {
	if e.dismiss != nil && len(loc.AnnouncementClose) > 0 {
		e.dismiss.DismissAnnouncement(ctx, loc.AnnouncementClose)
	}
}

func (e *Extractor) ctxOr(ctx context.Context, err error, log *zap.Logger, op string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Warn("extract: "+op+" failed", zap.Error(err))
	return nil
}

func text(ctx context.Context, el browser.Element) (string, error) {
	s, err := el.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
