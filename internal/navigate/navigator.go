// Package navigate drives a browser session from a blank tab to the page
// listing a cinema's showtime cards, following a site adapter.
//
// Every step is best-effort: failures are logged and recorded in the
// Outcome, and navigation moves on so that whatever the page ends up
// showing can still be extracted.
package navigate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/browser"
	"github.com/sells-group/showtimes-cli/internal/resilience"
	"github.com/sells-group/showtimes-cli/internal/site"
)

const (
	bodyLocator     = "body"
	retryMultiplier = 1.5
)

// Navigator runs the navigation state machine for one adapter at a time.
type Navigator struct {
	session browser.Session
	cfg     Config
}

// New creates a Navigator over session.
func New(session browser.Session, cfg Config) *Navigator {
	return &Navigator{session: session, cfg: cfg}
}

// run carries the state of one navigation.
type run struct {
	n       *Navigator
	adapter site.Adapter
	out     Outcome
	log     *zap.Logger
}

func (r *run) enter(s State) {
	r.out.Path = append(r.out.Path, s)
	r.log.Debug("navigate: state entered", zap.Stringer("state", s))
}

func (r *run) warn(step string, err error) {
	r.out.Warnings = append(r.out.Warnings, fmt.Sprintf("%s: %v", step, err))
	r.log.Warn("navigate: step failed, continuing", zap.String("step", step), zap.Error(err))
}

// Run navigates to the cards of adapter for the day offsetDays after today.
// The returned error is non-nil only when ctx ends; every other failure is
// recorded in the Outcome.
func (n *Navigator) Run(ctx context.Context, adapter site.Adapter, offsetDays int) (Outcome, error) {
	r := &run{
		n:       n,
		adapter: adapter,
		out:     Outcome{Path: []State{Idle}},
		log:     zap.L().With(zap.String("site", adapter.Key)),
	}

	var err error
	switch adapter.Variant {
	case site.AlternateLayout:
		err = r.alternate(ctx)
	default:
		err = r.standard(ctx, offsetDays)
	}
	if err != nil {
		return r.out, err
	}

	if err := r.awaitCards(ctx); err != nil {
		return r.out, err
	}
	r.log.Info("navigate: finished",
		zap.Stringer("state", r.out.State()),
		zap.Int("cards", r.out.Cards),
		zap.Int("warnings", len(r.out.Warnings)),
	)
	return r.out, nil
}

func (r *run) sleep(ctx context.Context, d time.Duration) error {
	return resilience.Sleep(ctx, d)
}

func (r *run) loadBase(ctx context.Context) error {
	t := r.n.cfg.Timings
	err := r.n.session.Navigate(ctx, r.adapter.BaseURL)
	if err == nil {
		_, err = r.n.session.WaitFor(ctx, bodyLocator, t.PageTimeout)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.warn("load base", err)
		return nil
	}
	r.enter(BaseLoaded)
	return nil
}

func (r *run) standard(ctx context.Context, offsetDays int) error {
	t := r.n.cfg.Timings
	a := r.n.cfg.Attempts
	loc := r.adapter.Standard

	if r.n.cfg.QuickRescrape {
		r.log.Info("navigate: quick re-scrape, skipping consent and cinema selection")
	} else {
		if err := r.loadBase(ctx); err != nil {
			return err
		}
		if err := r.sleep(ctx, t.SettleDelay); err != nil {
			return err
		}

		r.acceptConsent(ctx, loc.ConsentButton)
		r.enter(ConsentResolved)

		err := r.clickWithRetry(ctx, "cinema link", loc.CinemaLink, a.CinemaLink, t.RetryDelay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.warn("cinema link", err)
		} else {
			r.enter(CinemaSelected)
		}

		if loc.SecondaryLink != "" {
			err := r.clickWithRetry(ctx, "secondary link", loc.SecondaryLink, a.SecondaryLink, t.RetryDelay/2)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				r.warn("secondary link", err)
			} else {
				r.enter(SecondarySelected)
			}
		}
	}

	if slider := SliderLocator(loc, offsetDays); slider != "" {
		err := r.clickWithRetry(ctx, "date slider", slider, a.DateSlider, t.RetryDelay)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.warn("date slider", err)
		} else {
			r.enter(DateSelected)
		}
		if err := r.sleep(ctx, t.SettleDelay); err != nil {
			return err
		}
	}

	if _, err := r.n.session.WaitFor(ctx, bodyLocator, t.PageTimeout); err != nil && ctx.Err() == nil {
		r.log.Debug("navigate: body not present after selection", zap.Error(err))
	}
	return r.sleep(ctx, t.SettleDelay)
}

func (r *run) alternate(ctx context.Context) error {
	t := r.n.cfg.Timings
	loc := r.adapter.Alternate

	if r.n.cfg.QuickRescrape {
		r.log.Info("navigate: quick re-scrape, skipping venue selection")
		return nil
	}

	if err := r.loadBase(ctx); err != nil {
		return err
	}
	r.n.DismissAnnouncement(ctx, loc.AnnouncementClose)
	r.enter(ConsentResolved)

	err := r.selectVenue(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		r.warn("venue menu", err)
		return nil
	}
	if err := r.sleep(ctx, t.VenueSettle); err != nil {
		return err
	}
	r.n.DismissAnnouncement(ctx, loc.AnnouncementClose)
	r.enter(CinemaSelected)
	return nil
}

// selectVenue hovers the venue menu and clicks the configured item.
func (r *run) selectVenue(ctx context.Context) error {
	t := r.n.cfg.Timings
	loc := r.adapter.Alternate

	menu, err := r.n.session.WaitFor(ctx, loc.MenuTrigger, t.MenuWait)
	if err != nil {
		return err
	}
	if err := menu.Hover(ctx); err != nil {
		return err
	}
	if err := r.sleep(ctx, t.HoverDelay); err != nil {
		return err
	}
	item, err := r.n.session.WaitFor(ctx, loc.VenueItem, t.MenuWait)
	if err != nil {
		return err
	}
	if err := item.Click(ctx); err != nil {
		return err
	}
	_, err = r.n.session.WaitFor(ctx, bodyLocator, t.PageTimeout)
	return err
}

// acceptConsent clicks the consent control if it shows up within
// ConsentWait. Its absence is normal.
func (r *run) acceptConsent(ctx context.Context, locator string) {
	if locator == "" {
		return
	}
	btn, err := r.n.session.WaitFor(ctx, locator, r.n.cfg.Timings.ConsentWait)
	if err != nil {
		r.log.Info("navigate: no consent prompt", zap.String("selector", locator))
		return
	}
	if err := btn.Click(ctx); err != nil {
		r.log.Warn("navigate: consent click failed", zap.Error(err))
		return
	}
	r.log.Info("navigate: consent accepted")
}

// clickWithRetry waits for locator, clicks it and lets the page settle,
// retrying on timeouts and missing elements.
func (r *run) clickWithRetry(ctx context.Context, step, locator string, attempts int, delay time.Duration) error {
	t := r.n.cfg.Timings
	cfg := resilience.DefaultRetryConfig().Attempts(atLeastOne(attempts), delay, retryMultiplier)
	cfg.OnRetry = resilience.RetryLogger("navigate", step)
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		el, err := r.n.session.WaitFor(ctx, locator, t.ClickTimeout)
		if err != nil {
			return err
		}
		if err := el.Click(ctx); err != nil {
			return err
		}
		r.log.Info("navigate: clicked", zap.String("step", step), zap.String("selector", locator))
		return r.sleep(ctx, t.SettleDelay)
	})
}

// awaitCards polls for the adapter's card locator. Cards that never appear
// are a warning, not a failure: extraction then finds zero cards.
func (r *run) awaitCards(ctx context.Context) error {
	t := r.n.cfg.Timings
	locator := r.adapter.CardLocator()
	attempts := atLeastOne(r.n.cfg.Attempts.CardWait)

	for i := 0; i < attempts; i++ {
		if _, err := r.n.session.WaitFor(ctx, locator, t.CardWait); err == nil {
			cards, err := r.n.session.FindAll(ctx, locator)
			if err != nil {
				return err
			}
			r.out.Cards = len(cards)
			r.enter(CardsReady)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Info("navigate: waiting for movie cards to render", zap.Int("attempt", i+1))
		if i < attempts-1 {
			if err := r.sleep(ctx, t.CardPause); err != nil {
				return err
			}
		}
	}
	r.warn("cards", resilience.Timeout(fmt.Errorf("%d attempts", attempts), "wait for "+locator))
	return nil
}

// DismissAnnouncement tries each close locator in turn, up to the
// configured number of rounds, and reports whether a dialog was closed.
func (n *Navigator) DismissAnnouncement(ctx context.Context, locators []string) bool {
	t := n.cfg.Timings
	for round := 0; round < atLeastOne(n.cfg.Attempts.Announcement); round++ {
		for _, loc := range locators {
			el, err := n.session.WaitFor(ctx, loc, t.AnnouncementWait)
			if err != nil {
				continue
			}
			_ = el.ScrollIntoView(ctx)
			if err := el.Click(ctx); err != nil {
				continue
			}
			_ = resilience.Sleep(ctx, t.ClickSettle)
			zap.L().Debug("navigate: announcement closed", zap.String("selector", loc))
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		_ = resilience.Sleep(ctx, t.AnnouncementPause)
	}
	return false
}

// SliderLocator maps a day offset to the date-slider locator: offset 1 is
// the "next" slide, larger offsets the min(6, max(3, 1+offset))-th slide.
// Offsets below 1 need no slider and yield "".
func SliderLocator(loc *site.StandardLocators, offsetDays int) string {
	if loc == nil || offsetDays < 1 {
		return ""
	}
	if offsetDays == 1 {
		return loc.DateSliderNext
	}
	if loc.DateSliderNth == "" {
		return ""
	}
	return fmt.Sprintf(loc.DateSliderNth, SliderIndex(offsetDays))
}

// SliderIndex is the 1-based slide index for offsets of two days or more.
func SliderIndex(offsetDays int) int {
	return min(6, max(3, 1+offsetDays))
}

// DayOffset returns the number of calendar days from today to date, both
// taken in today's location.
func DayOffset(date, today time.Time) int {
	y1, m1, d1 := today.Date()
	y2, m2, d2 := date.In(today.Location()).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
