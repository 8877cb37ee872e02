package resolve

import (
	"context"

	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/model"
)

// DefaultSimilarityThreshold is the minimum fuzzy ratio accepted for a
// movie title.
const DefaultSimilarityThreshold = 0.85

// CatalogReader is the read-only slice of catalog.Store that movie
// resolution is allowed to use.
type CatalogReader interface {
	Load(ctx context.Context, kind catalog.Kind) (*catalog.Table, error)
}

// MovieIndex maps normalized titles to movie ids. Both the original title
// and the display title of every record are indexed; the first record to
// supply a normalized name keeps it.
type MovieIndex struct {
	ids   map[string]int
	names []string // distinct normalized names in catalog order
}

// NewMovieIndex builds the lookup for a movies table.
func NewMovieIndex(t *catalog.Table) *MovieIndex {
	idx := &MovieIndex{ids: make(map[string]int)}
	for i := range t.Rows {
		id, ok := t.ID(i)
		if !ok {
			continue
		}
		for _, col := range []string{catalog.ColOriginalTitle, catalog.ColTitle} {
			n := NormalizeTitle(t.Get(i, col))
			if n == "" {
				continue
			}
			if _, exists := idx.ids[n]; exists {
				continue
			}
			idx.ids[n] = id
			idx.names = append(idx.names, n)
		}
	}
	return idx
}

// Len returns the number of distinct indexed names.
func (idx *MovieIndex) Len() int { return len(idx.names) }

// Exact returns the id indexed under the normalized title.
func (idx *MovieIndex) Exact(title string) (int, bool) {
	id, ok := idx.ids[NormalizeTitle(title)]
	return id, ok
}

// Closest returns the indexed name with the highest similarity to title and
// its score. Ties keep the earliest name in catalog order.
func (idx *MovieIndex) Closest(title string) (string, float64) {
	n := NormalizeTitle(title)
	best, bestScore := "", -1.0
	for _, name := range idx.names {
		score := Similarity(n, name)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return best, bestScore
}

// Similarity returns the normalized edit-distance ratio of a and b in [0, 1].
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}

// MovieResolver attaches movie ids to raw showtimes. It never writes to the
// movie catalog.
type MovieResolver struct {
	catalog   CatalogReader
	threshold float64
}

// NewMovieResolver creates a MovieResolver. A non-positive threshold selects
// DefaultSimilarityThreshold.
func NewMovieResolver(r CatalogReader, threshold float64) *MovieResolver {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &MovieResolver{catalog: r, threshold: threshold}
}

// Resolve loads the movie catalog once, then matches every row by exact
// normalized title, then by fuzzy similarity. Rows that match neither are
// flagged UnknownMovie with a nil MovieID. Duplicate rows are kept.
func (r *MovieResolver) Resolve(ctx context.Context, cinemaID int, rows []model.RawShowtime) ([]model.ResolvedShowtime, error) {
	t, err := r.catalog.Load(ctx, catalog.Movies)
	if err != nil {
		return nil, eris.Wrap(err, "resolve movies: load catalog")
	}
	idx := NewMovieIndex(t)

	out := make([]model.ResolvedShowtime, 0, len(rows))
	for _, raw := range rows {
		res := model.ResolvedShowtime{RawShowtime: raw, CinemaID: cinemaID}
		if id, ok := r.match(idx, raw.MovieTitle); ok {
			res.MovieID = model.IntPtr(id)
		} else {
			res.UnknownMovie = true
			zap.L().Info("movie not in catalog", zap.String("title", raw.MovieTitle))
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *MovieResolver) match(idx *MovieIndex, title string) (int, bool) {
	if id, ok := idx.Exact(title); ok {
		return id, true
	}
	name, score := idx.Closest(title)
	if name == "" || score < r.threshold {
		return 0, false
	}
	zap.L().Debug("movie fuzzy match",
		zap.String("title", title),
		zap.String("matched", name),
		zap.Float64("score", score),
	)
	return idx.ids[name], true
}
