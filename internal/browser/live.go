package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/resilience"
)

// LiveConfig configures a Chrome-backed session.
type LiveConfig struct {
	// RemoteURL is the DevTools WebSocket URL of an already running Chrome.
	// Empty launches a local Chrome.
	RemoteURL    string
	Headless     bool
	Stealth      bool
	WindowWidth  int
	WindowHeight int
	// PageTimeout bounds navigation and page-load waits.
	PageTimeout time.Duration
}

func (c *LiveConfig) defaults() {
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1920
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 1080
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = 45 * time.Second
	}
}

// Live is a Session over one Chrome tab.
type Live struct {
	cfg     LiveConfig
	browser *rod.Browser
	lnch    *launcher.Launcher
	page    *rod.Page
}

var _ Session = (*Live)(nil)

// Launch starts (or connects to) Chrome and opens the tab the session
// drives. Close releases both.
func Launch(ctx context.Context, cfg LiveConfig) (*Live, error) {
	cfg.defaults()
	l := &Live{cfg: cfg}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		zap.L().Info("browser: connecting to remote chrome", zap.String("url", wsURL))
	} else {
		lnch := launcher.New().
			Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled").
			Set("window-size", fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
		u, err := lnch.Launch()
		if err != nil {
			return nil, eris.Wrap(resilience.ErrSessionUnavailable, "browser: launch: "+err.Error())
		}
		wsURL = u
		l.lnch = lnch
		zap.L().Info("browser: launched local chrome",
			zap.String("url", wsURL),
			zap.Bool("headless", cfg.Headless),
		)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.cleanup()
		return nil, eris.Wrap(resilience.ErrSessionUnavailable, "browser: connect: "+err.Error())
	}
	l.browser = b

	var (
		page *rod.Page
		err  error
	)
	if cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		l.cleanup()
		return nil, eris.Wrap(resilience.ErrSessionUnavailable, "browser: create tab: "+err.Error())
	}
	l.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		zap.L().Warn("browser: set viewport failed", zap.Error(err))
	}

	return l, nil
}

// Close closes the tab and, when it was launched locally, Chrome itself.
func (l *Live) Close() error {
	var err error
	if l.page != nil {
		err = l.page.Close()
		l.page = nil
	}
	l.cleanup()
	return err
}

func (l *Live) cleanup() {
	if l.browser != nil {
		_ = l.browser.Close()
		l.browser = nil
	}
	if l.lnch != nil {
		l.lnch.Cleanup()
		l.lnch = nil
	}
}

// Navigate loads url and waits for the load event within PageTimeout.
func (l *Live) Navigate(ctx context.Context, url string) error {
	p := l.page.Context(ctx).Timeout(l.cfg.PageTimeout)
	if err := p.Navigate(url); err != nil {
		return classify(err, "navigate "+url)
	}
	if err := p.WaitLoad(); err != nil {
		zap.L().Warn("browser: wait load", zap.String("url", url), zap.Error(err))
	}
	return nil
}

// WaitFor polls for selector until timeout.
func (l *Live) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	el, err := l.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, classify(err, "wait for "+selector)
	}
	return &liveElement{el: el.CancelTimeout()}, nil
}

// Find returns the first match of selector.
func (l *Live) Find(ctx context.Context, selector string) (Element, error) {
	els, err := l.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classify(err, "find "+selector)
	}
	if len(els) == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &liveElement{el: els.First()}, nil
}

// FindAll returns every match of selector.
func (l *Live) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := l.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classify(err, "find all "+selector)
	}
	return wrapAll(els), nil
}

// Execute evaluates script on the page.
func (l *Live) Execute(ctx context.Context, script string, args ...any) (any, error) {
	res, err := l.page.Context(ctx).Eval(script, args...)
	if err != nil {
		return nil, classify(err, "execute script")
	}
	return res.Value.Val(), nil
}

// Back navigates one history entry back.
func (l *Live) Back(ctx context.Context) error {
	if err := l.page.Context(ctx).Timeout(l.cfg.PageTimeout).NavigateBack(); err != nil {
		return classify(err, "navigate back")
	}
	return nil
}

// Alive probes the browser connection.
func (l *Live) Alive(ctx context.Context) bool {
	if l.browser == nil || l.page == nil {
		return false
	}
	_, err := l.browser.Context(ctx).Version()
	return err == nil
}

type liveElement struct {
	el *rod.Element
}

func (e *liveElement) Text(ctx context.Context) (string, error) {
	s, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", classify(err, "read text")
	}
	return s, nil
}

func (e *liveElement) Find(ctx context.Context, selector string) (Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classify(err, "find "+selector)
	}
	if len(els) == 0 {
		return nil, resilience.NotFound(selector)
	}
	return &liveElement{el: els.First()}, nil
}

func (e *liveElement) FindAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, classify(err, "find all "+selector)
	}
	return wrapAll(els), nil
}

// Click uses a script click so overlays and off-screen positions do not
// intercept it.
func (e *liveElement) Click(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(`() => this.click()`); err != nil {
		return classify(err, "click")
	}
	return nil
}

func (e *liveElement) Hover(ctx context.Context) error {
	if err := e.el.Context(ctx).Hover(); err != nil {
		return classify(err, "hover")
	}
	return nil
}

func (e *liveElement) ScrollIntoView(ctx context.Context) error {
	if err := e.el.Context(ctx).ScrollIntoView(); err != nil {
		return classify(err, "scroll into view")
	}
	return nil
}

func wrapAll(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &liveElement{el: el})
	}
	return out
}

// classify maps rod errors onto the resilience taxonomy.
func classify(err error, op string) error {
	var notFound *rod.ElementNotFoundError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return resilience.Timeout(err, op)
	case errors.As(err, &notFound):
		return eris.Wrapf(resilience.ErrElementNotFound, "%s: %v", op, err)
	default:
		return eris.Wrap(err, "browser: "+op)
	}
}
