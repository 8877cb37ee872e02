// Package scroll forces lazily loaded listings to materialize by scrolling
// the page in small randomized steps until its height stops growing.
package scroll

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/resilience"
)

// Metrics is a snapshot of the page geometry, in CSS pixels.
type Metrics struct {
	Position int
	Viewport int
	Height   int
}

// Page is the slice of a browser session the controller needs.
type Page interface {
	Metrics(ctx context.Context) (Metrics, error)
	ScrollTo(ctx context.Context, y int) error
}

// Config tunes the scroll cadence.
type Config struct {
	StepsPerBatch int `mapstructure:"steps_per_batch"`
	// MaxAttempts is the number of consecutive non-growing batches after
	// which the page is considered fully loaded.
	MaxAttempts int `mapstructure:"max_attempts"`
	// MaxBatches bounds a page that never stops growing.
	MaxBatches int `mapstructure:"max_batches"`

	StepMin        float64 `mapstructure:"step_min"`
	StepMax        float64 `mapstructure:"step_max"`
	ReverseStepMax float64 `mapstructure:"reverse_step_max"`

	StepDelayMin time.Duration `mapstructure:"step_delay_min"`
	StepDelayMax time.Duration `mapstructure:"step_delay_max"`
	BatchPause   time.Duration `mapstructure:"batch_pause"`
	ReversePause time.Duration `mapstructure:"reverse_pause"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	TopSettle    time.Duration `mapstructure:"top_settle"`
}

// DefaultConfig returns the cadence used against the live sites.
func DefaultConfig() Config {
	return Config{
		StepsPerBatch:  8,
		MaxAttempts:    12,
		MaxBatches:     200,
		StepMin:        0.20,
		StepMax:        0.40,
		ReverseStepMax: 0.35,
		StepDelayMin:   450 * time.Millisecond,
		StepDelayMax:   850 * time.Millisecond,
		BatchPause:     time.Second,
		ReversePause:   800 * time.Millisecond,
		SettleDelay:    time.Second,
		TopSettle:      800 * time.Millisecond,
	}
}

// Tolerances, in pixels, for "no growth" and "at the bottom".
const (
	growthSlack   = 10
	nearBottom    = 5
	bottomReached = 2
	minStepPixels = 1
)

// Reason says why ToBottom stopped.
type Reason string

const (
	ReasonBottom    Reason = "bottom_reached"
	ReasonConverged Reason = "converged"
	ReasonBatchCap  Reason = "batch_cap"
	ReasonNoLayout  Reason = "no_layout"
)

// Result summarizes a ToBottom pass.
type Result struct {
	Batches  int
	Attempts int
	Height   int
	Reason   Reason
}

// Controller scrolls one page.
type Controller struct {
	page  Page
	cfg   Config
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Controller. A nil rng uses a randomly seeded source.
func New(page Page, cfg Config, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.StepsPerBatch < 1 {
		cfg.StepsPerBatch = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Controller{page: page, cfg: cfg, rng: rng, sleep: resilience.Sleep}
}

func (c *Controller) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Float64()*(hi-lo)
}

func (c *Controller) jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(c.rng.Int64N(int64(hi-lo)))
}

func (c *Controller) step(viewport int, hi float64) int {
	return max(minStepPixels, int(float64(viewport)*c.uniform(c.cfg.StepMin, hi)))
}

// ToBottom scrolls down batch by batch. After each batch the page height is
// re-measured: a batch that ends near the bottom without the page growing
// counts as an attempt, any other batch resets the count. It stops when
// the position reaches the bottom or after MaxAttempts attempts in a row.
func (c *Controller) ToBottom(ctx context.Context) (Result, error) {
	m, err := c.page.Metrics(ctx)
	if err != nil {
		return Result{}, eris.Wrap(err, "scroll: read metrics")
	}
	if m.Viewport <= 0 || m.Height <= 0 {
		zap.L().Debug("scroll: page reports no layout, skipping")
		return Result{Reason: ReasonNoLayout}, nil
	}

	pos, total := m.Position, m.Height
	res := Result{}
	for res.Attempts < c.cfg.MaxAttempts {
		if c.cfg.MaxBatches > 0 && res.Batches >= c.cfg.MaxBatches {
			res.Reason = ReasonBatchCap
			break
		}
		for i := 0; i < c.cfg.StepsPerBatch; i++ {
			pos += c.step(m.Viewport, c.cfg.StepMax)
			if err := c.page.ScrollTo(ctx, pos); err != nil {
				return res, eris.Wrap(err, "scroll: scroll down")
			}
			if err := c.sleep(ctx, c.jitter(c.cfg.StepDelayMin, c.cfg.StepDelayMax)); err != nil {
				return res, err
			}
		}
		res.Batches++
		if err := c.sleep(ctx, c.cfg.BatchPause); err != nil {
			return res, err
		}

		next, err := c.page.Metrics(ctx)
		if err != nil {
			return res, eris.Wrap(err, "scroll: read metrics")
		}
		if next.Height <= total+growthSlack && pos+m.Viewport >= next.Height-nearBottom {
			res.Attempts++
		} else {
			res.Attempts = 0
		}
		total = max(total, next.Height)

		if pos+m.Viewport >= total-bottomReached {
			res.Reason = ReasonBottom
			if err := c.sleep(ctx, c.cfg.SettleDelay); err != nil {
				return res, err
			}
			break
		}
	}
	if res.Reason == "" {
		res.Reason = ReasonConverged
	}
	res.Height = total
	zap.L().Info("scroll: reached end of listing",
		zap.Int("batches", res.Batches),
		zap.Int("height", res.Height),
		zap.String("reason", string(res.Reason)),
	)
	return res, nil
}

// ToTop scrolls back up with the same batching, then pins the page at the
// very top.
func (c *Controller) ToTop(ctx context.Context) error {
	m, err := c.page.Metrics(ctx)
	if err != nil {
		return eris.Wrap(err, "scroll: read metrics")
	}
	pos := m.Position
	for pos > 0 && m.Viewport > 0 {
		for i := 0; i < c.cfg.StepsPerBatch && pos > 0; i++ {
			pos = max(0, pos-c.step(m.Viewport, c.cfg.ReverseStepMax))
			if err := c.page.ScrollTo(ctx, pos); err != nil {
				return eris.Wrap(err, "scroll: scroll up")
			}
			if err := c.sleep(ctx, c.jitter(c.cfg.StepDelayMin, c.cfg.StepDelayMax)); err != nil {
				return err
			}
		}
		if err := c.sleep(ctx, c.cfg.ReversePause); err != nil {
			return err
		}
	}
	if err := c.page.ScrollTo(ctx, 0); err != nil {
		return eris.Wrap(err, "scroll: scroll to top")
	}
	return c.sleep(ctx, c.cfg.TopSettle)
}
