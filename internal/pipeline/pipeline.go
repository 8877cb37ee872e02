// Package pipeline sequences one extraction run: cinema resolution,
// navigation, scrolling, card extraction and movie resolution, then records
// the run in the ledger.
package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/extract"
	"github.com/sells-group/showtimes-cli/internal/model"
	"github.com/sells-group/showtimes-cli/internal/navigate"
	"github.com/sells-group/showtimes-cli/internal/resilience"
	"github.com/sells-group/showtimes-cli/internal/resolve"
	"github.com/sells-group/showtimes-cli/internal/scroll"
	"github.com/sells-group/showtimes-cli/internal/site"
	"github.com/sells-group/showtimes-cli/internal/store"
)

// Config holds the tunables of every stage.
type Config struct {
	Navigation          navigate.Config
	Scroll              scroll.Config
	SimilarityThreshold float64
}

// Request identifies one run. A zero Date means today.
type Request struct {
	SiteKey string
	Date    time.Time
}

// Result is what a run hands back to its caller. Status is failed exactly
// when Err is set, and a failed run carries no rows.
type Result struct {
	RunID        string                   `json:"run_id"`
	SiteKey      string                   `json:"site_key"`
	CinemaName   string                   `json:"cinema_name"`
	ShowDate     string                   `json:"show_date"`
	CinemaID     int                      `json:"cinema_id"`
	CinemaMethod resolve.MatchMethod      `json:"cinema_method,omitempty"`
	Rows         []model.ResolvedShowtime `json:"rows"`
	Unknown      []model.UnknownMovie     `json:"unknown"`
	Persistable  int                      `json:"persistable"`
	Films        int                      `json:"films"`
	Unique       int                      `json:"unique"`
	CardsReady   bool                     `json:"cards_ready"`
	Cards        extract.Stats            `json:"cards"`
	Totals       model.Totals             `json:"totals"`
	Status       model.RunStatus          `json:"status"`
	Warnings     []string                 `json:"warnings,omitempty"`
	Err          error                    `json:"-"`
}

func (r *Result) warn(step string, err error) {
	r.Warnings = append(r.Warnings, step+": "+err.Error())
}

// Pipeline runs extractions for the sites of a registry.
type Pipeline struct {
	cfg      Config
	registry *site.Registry
	cinemas  *resolve.CinemaResolver
	movies   *resolve.MovieResolver
	ledger   store.Ledger
	now      func() time.Time
	rng      *rand.Rand
}

// New creates a Pipeline. ledger may be nil, in which case runs are not
// recorded and totals stay zero.
func New(cfg Config, registry *site.Registry, catalogs catalog.Store, ledger store.Ledger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		cinemas:  resolve.NewCinemaResolver(catalogs),
		movies:   resolve.NewMovieResolver(catalogs, cfg.SimilarityThreshold),
		ledger:   ledger,
		now:      time.Now,
	}
}

// Run executes one extraction against session. Fatal errors (no live
// session, unknown site, unreadable catalog, cancellation) yield a failed
// result with zero rows; everything else is logged and recorded as a
// warning.
func (p *Pipeline) Run(ctx context.Context, session browser.Session, req Request) *Result {
	today := p.now()
	date := req.Date
	if date.IsZero() {
		date = today
	}
	res := &Result{SiteKey: req.SiteKey, ShowDate: date.Format(time.DateOnly)}
	log := zap.L().With(zap.String("site", req.SiteKey), zap.String("date", res.ShowDate))
	log.Info("pipeline: starting run")

	if err := p.run(ctx, session, req, date, today, res); err != nil {
		res.Status = model.RunStatusFailed
		res.Err = err
		res.Rows, res.Unknown = nil, nil
		res.Persistable, res.Films, res.Unique = 0, 0, 0
		log.Error("pipeline: run failed", zap.Error(err))
	} else if len(res.Warnings) > 0 {
		res.Status = model.RunStatusDegraded
	} else {
		res.Status = model.RunStatusOK
	}

	p.record(ctx, res)

	log.Info("pipeline: run complete",
		zap.String("status", string(res.Status)),
		zap.Int("rows", res.Persistable),
		zap.Int("unknown", len(res.Unknown)),
		zap.Int("unique", res.Unique),
		zap.Int("best", res.Totals.Best),
		zap.Int("cumulative", res.Totals.Cumulative),
	)
	return res
}

func (p *Pipeline) run(ctx context.Context, session browser.Session, req Request, date, today time.Time, res *Result) error {
	if session == nil || !session.Alive(ctx) {
		return eris.Wrap(resilience.ErrSessionUnavailable, "pipeline: liveness check")
	}

	adapter, err := p.registry.Get(req.SiteKey)
	if err != nil {
		return eris.Wrap(err, "pipeline: lookup site")
	}
	res.CinemaName = adapter.CinemaName

	if err := p.resolveCinema(ctx, adapter, res); err != nil {
		return err
	}

	nav := navigate.New(session, p.cfg.Navigation)
	outcome, err := nav.Run(ctx, adapter, navigate.DayOffset(date, today))
	if err != nil {
		return eris.Wrap(err, "pipeline: navigate")
	}
	res.Warnings = append(res.Warnings, outcome.Warnings...)
	res.CardsReady = outcome.Reached(navigate.CardsReady)

	if adapter.Variant == site.Standard {
		if err := p.scroll(ctx, session, res); err != nil {
			return err
		}
	}

	raw, stats, err := extract.New(session, p.cfg.Navigation, nav).Extract(ctx, adapter, res.ShowDate)
	if err != nil {
		return eris.Wrap(err, "pipeline: extract")
	}
	res.Cards = stats

	rows, err := p.movies.Resolve(ctx, res.CinemaID, raw)
	if err != nil {
		return eris.Wrap(err, "pipeline: resolve movies")
	}
	res.Rows = rows
	res.Unknown = model.CollectUnknown(rows)
	persistable := model.Persistable(rows)
	res.Persistable = len(persistable)
	res.Films, res.Unique = model.CountShowtimes(persistable, res.ShowDate)
	return nil
}

// resolveCinema resolves the site's cinema. A failed write keeps the id
// assigned in memory; any other non-read failure falls back to the id
// configured on the site.
func (p *Pipeline) resolveCinema(ctx context.Context, a site.Adapter, res *Result) error {
	m, err := p.cinemas.Resolve(ctx, resolve.QueryFor(a))
	switch {
	case err == nil:
		res.CinemaID, res.CinemaMethod = m.ID, m.Method
		return nil
	case ctx.Err() != nil, resilience.IsFatal(err):
		return eris.Wrap(err, "pipeline: resolve cinema")
	case m.ID > 0:
		res.CinemaID, res.CinemaMethod = m.ID, m.Method
		res.warn("cinema catalog", err)
		return nil
	case a.CinemaID > 0:
		zap.L().Warn("pipeline: using configured cinema id",
			zap.String("site", a.Key),
			zap.Int("cinema_id", a.CinemaID),
			zap.Error(err),
		)
		res.CinemaID = a.CinemaID
		res.warn("cinema catalog", err)
		return nil
	default:
		return eris.Wrap(err, "pipeline: resolve cinema")
	}
}

// scroll loads lazy cards by scrolling to the bottom, then returns to the
// top so card discovery starts from the first viewport.
func (p *Pipeline) scroll(ctx context.Context, session browser.Session, res *Result) error {
	c := scroll.New(scroll.SessionPage{Session: session}, p.cfg.Scroll, p.rng)
	sr, err := c.ToBottom(ctx)
	if err == nil {
		zap.L().Debug("pipeline: scrolled to bottom",
			zap.String("site", res.SiteKey),
			zap.String("reason", string(sr.Reason)),
			zap.Int("batches", sr.Batches),
			zap.Int("height", sr.Height),
		)
		err = c.ToTop(ctx)
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return eris.Wrap(ctx.Err(), "pipeline: scroll")
	}
	res.warn("scroll", err)
	return nil
}

func (p *Pipeline) record(ctx context.Context, res *Result) {
	if p.ledger == nil {
		return
	}
	run := &model.Run{
		SiteKey:  res.SiteKey,
		ShowDate: res.ShowDate,
		Status:   res.Status,
		Rows:     res.Persistable,
		Unique:   res.Unique,
		Films:    res.Films,
		Unknown:  len(res.Unknown),
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	// Record even when the run was cancelled.
	totals, err := p.ledger.Record(context.WithoutCancel(ctx), run)
	if err != nil {
		zap.L().Warn("pipeline: record run", zap.String("site", res.SiteKey), zap.Error(err))
		return
	}
	res.RunID = run.ID
	res.Totals = totals
}
