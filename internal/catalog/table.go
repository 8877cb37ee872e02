// Package catalog persists the cinema and movie identity catalogs as
// tabular files with fixed header rows.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// Kind names one of the two catalogs.
type Kind string

const (
	Cinemas Kind = "cinemas"
	Movies  Kind = "movies"
)

// Column names of the cinemas catalog.
const (
	ColID        = "ID"
	ColName      = "Name"
	ColCity      = "City"
	ColCreatedAt = "Created at"
	ColWebsite   = "Website"
)

// Column names of the movies catalog (ID and Created at are shared).
const (
	ColOriginalTitle = "Original title"
	ColTitle         = "Title"
	ColDuration      = "Duration"
	ColReleaseDate   = "Release date"
)

// Columns returns the canonical column set of a catalog.
func Columns(kind Kind) []string {
	switch kind {
	case Cinemas:
		return []string{ColID, ColName, ColCity, ColCreatedAt, ColWebsite}
	case Movies:
		return []string{ColID, ColOriginalTitle, ColTitle, ColDuration, ColReleaseDate, ColCreatedAt}
	default:
		return nil
	}
}

// Table is an in-memory copy of a catalog. Rows are kept in file order and
// are always as wide as Columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the canonical columns of kind.
func NewTable(kind Kind) *Table {
	return &Table{Columns: Columns(kind)}
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Get returns the cell of row i in column name, or "" when absent.
func (t *Table) Get(i int, name string) string {
	j := t.Index(name)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// EnsureColumns appends any of want missing from the table, filling
// existing rows with blanks. It reports whether the table changed.
func (t *Table) EnsureColumns(want []string) bool {
	changed := false
	for _, c := range want {
		if t.Index(c) < 0 {
			t.Columns = append(t.Columns, c)
			changed = true
		}
	}
	for i, row := range t.Rows {
		if len(row) < len(t.Columns) {
			padded := make([]string, len(t.Columns))
			copy(padded, row)
			t.Rows[i] = padded
		}
	}
	return changed
}

// AppendRecord adds a row built from values keyed by column name.
// Unknown keys are ignored.
func (t *Table) AppendRecord(values map[string]string) {
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = values[c]
	}
	t.Rows = append(t.Rows, row)
}

// ID parses the ID cell of row i.
func (t *Table) ID(i int) (int, bool) {
	return ParseID(t.Get(i, ColID))
}

// MaxID returns the largest parseable id, or 0 for a table without ids.
func (t *Table) MaxID() int {
	maxID := 0
	for i := range t.Rows {
		if id, ok := t.ID(i); ok && id > maxID {
			maxID = id
		}
	}
	return maxID
}

// NextID returns max(existing ids)+1, or 1 for a table without ids.
func (t *Table) NextID() int {
	return t.MaxID() + 1
}

// ParseID accepts integer cells, including spreadsheet floats such as "14.0".
func ParseID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), f > 0
}

// CinemaRecords decodes every row of a cinemas table. Rows without a valid id
// are skipped.
func CinemaRecords(t *Table) []model.CinemaRecord {
	out := make([]model.CinemaRecord, 0, t.Len())
	for i := range t.Rows {
		id, ok := t.ID(i)
		if !ok {
			continue
		}
		created, _ := time.ParseInLocation(model.CreatedAtLayout, t.Get(i, ColCreatedAt), time.Local)
		out = append(out, model.CinemaRecord{
			ID:        id,
			Name:      t.Get(i, ColName),
			City:      t.Get(i, ColCity),
			CreatedAt: created,
			Website:   t.Get(i, ColWebsite),
		})
	}
	return out
}

// MovieRecords decodes every row of a movies table. Rows without a valid id
// are skipped.
func MovieRecords(t *Table) []model.MovieRecord {
	out := make([]model.MovieRecord, 0, t.Len())
	for i := range t.Rows {
		id, ok := t.ID(i)
		if !ok {
			continue
		}
		out = append(out, model.MovieRecord{
			ID:            id,
			OriginalTitle: t.Get(i, ColOriginalTitle),
			Title:         t.Get(i, ColTitle),
			Duration:      t.Get(i, ColDuration),
			ReleaseDate:   t.Get(i, ColReleaseDate),
			CreatedAt:     t.Get(i, ColCreatedAt),
		})
	}
	return out
}

// CinemaValues converts a record to column values for AppendRecord.
// The ID column is filled in by the store.
func CinemaValues(r model.CinemaRecord) map[string]string {
	return map[string]string{
		ColName:      r.Name,
		ColCity:      r.City,
		ColCreatedAt: r.CreatedAt.Format(model.CreatedAtLayout),
		ColWebsite:   r.Website,
	}
}
