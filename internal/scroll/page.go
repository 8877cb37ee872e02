package scroll

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/showtimes-cli/internal/browser"
)

const (
	metricsScript = `() => [
		window.innerHeight || document.documentElement.clientHeight || 800,
		document.body ? document.body.scrollHeight : 0,
		window.pageYOffset || document.documentElement.scrollTop || 0
	]`
	scrollToScript = `(y) => window.scrollTo(0, y)`
)

// SessionPage adapts a browser.Session to Page with two small scripts.
type SessionPage struct {
	Session browser.Session
}

// Metrics reads viewport height, document height and scroll offset.
// Sessions that do not run scripts report zero metrics.
func (p SessionPage) Metrics(ctx context.Context) (Metrics, error) {
	v, err := p.Session.Execute(ctx, metricsScript)
	if err != nil {
		return Metrics{}, err
	}
	vals, ok := v.([]any)
	if !ok || len(vals) != 3 {
		return Metrics{}, nil
	}
	var m Metrics
	for i, dst := range []*int{&m.Viewport, &m.Height, &m.Position} {
		n, err := toInt(vals[i])
		if err != nil {
			return Metrics{}, eris.Wrapf(err, "scroll: metric %d", i)
		}
		*dst = n
	}
	return m, nil
}

// ScrollTo moves the window to vertical offset y.
func (p SessionPage) ScrollTo(ctx context.Context, y int) error {
	_, err := p.Session.Execute(ctx, scrollToScript, y)
	return err
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		f, err := n.Float64()
		return int(f), err
	case nil:
		return 0, nil
	default:
		return 0, eris.Errorf("unexpected metric type %T", v)
	}
}
