// Package resolve maps free-text cinema and movie names to catalog ids.
//
// Cinemas and movies follow different mutation policies: an unmatched
// cinema is appended to its catalog immediately, while an unmatched movie
// is only flagged and left for manual curation.
package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/model"
	"github.com/sells-group/showtimes-cli/internal/site"
)

// MatchMethod records which step of cinema resolution produced the id.
type MatchMethod string

const (
	MatchURL        MatchMethod = "url"
	MatchExactName  MatchMethod = "exact_name"
	MatchNormalized MatchMethod = "normalized_name"
	MatchCreated    MatchMethod = "created"
)

// CinemaQuery is the configured identity of a cinema.
type CinemaQuery struct {
	Name   string
	URL    string
	Region string
}

// QueryFor builds the cinema query of a site adapter.
func QueryFor(a site.Adapter) CinemaQuery {
	return CinemaQuery{Name: a.CinemaName, URL: a.CinemaURL, Region: a.Country}
}

// CinemaMatch is the outcome of resolving one cinema.
type CinemaMatch struct {
	ID     int
	Method MatchMethod
}

// CinemaResolver resolves cinemas against a catalog store, appending
// unmatched cinemas.
type CinemaResolver struct {
	store catalog.Store
	now   func() time.Time
}

// NewCinemaResolver creates a CinemaResolver over store.
func NewCinemaResolver(store catalog.Store) *CinemaResolver {
	return &CinemaResolver{store: store, now: time.Now}
}

// Resolve runs URL-slug, exact-name and normalized-name matching in that
// order, first hit wins. When nothing matches a new record is appended and
// its id returned. If the append fails to persist, the assigned id is still
// returned alongside the error.
func (r *CinemaResolver) Resolve(ctx context.Context, q CinemaQuery) (CinemaMatch, error) {
	t, err := r.store.Load(ctx, catalog.Cinemas)
	if err != nil {
		return CinemaMatch{}, eris.Wrap(err, "resolve cinema: load catalog")
	}

	if m, ok := matchCinema(t, q); ok {
		zap.L().Info("cinema matched",
			zap.String("cinema", q.Name),
			zap.Int("id", m.ID),
			zap.String("method", string(m.Method)),
		)
		return m, nil
	}

	rec := model.CinemaRecord{
		Name:      q.Name,
		City:      q.Region,
		CreatedAt: r.now(),
		Website:   q.URL,
	}
	id, err := r.store.Append(ctx, catalog.Cinemas, catalog.CinemaValues(rec))
	m := CinemaMatch{ID: id, Method: MatchCreated}
	if err != nil {
		if id == 0 {
			return CinemaMatch{}, eris.Wrap(err, "resolve cinema: append")
		}
		zap.L().Error("cinema id assigned but catalog write failed",
			zap.String("cinema", q.Name),
			zap.Int("id", id),
			zap.Error(err),
		)
		return m, eris.Wrapf(err, "resolve cinema: persist id %d", id)
	}
	zap.L().Info("new cinema added to catalog", zap.String("cinema", q.Name), zap.Int("id", id))
	return m, nil
}

// matchCinema applies the three lookup steps to t without mutating it.
func matchCinema(t *catalog.Table, q CinemaQuery) (CinemaMatch, bool) {
	if slug := strings.ToLower(site.URLSlug(q.URL)); slug != "" {
		for i := range t.Rows {
			id, ok := t.ID(i)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(t.Get(i, catalog.ColWebsite)), slug) {
				return CinemaMatch{ID: id, Method: MatchURL}, true
			}
		}
	}

	if strings.TrimSpace(q.Name) != "" {
		for i := range t.Rows {
			id, ok := t.ID(i)
			if !ok {
				continue
			}
			if foldEqual(t.Get(i, catalog.ColName), q.Name) {
				return CinemaMatch{ID: id, Method: MatchExactName}, true
			}
		}
	}

	if norm := NormalizeCinemaName(q.Name); norm != "" {
		for i := range t.Rows {
			id, ok := t.ID(i)
			if !ok {
				continue
			}
			if NormalizeCinemaName(t.Get(i, catalog.ColName)) == norm {
				return CinemaMatch{ID: id, Method: MatchNormalized}, true
			}
		}
	}

	return CinemaMatch{}, false
}
