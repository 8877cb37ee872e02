// Package report writes the outputs of a run: the showtimes CSV and the
// movies-to-add list used for manual catalog curation.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/showtimes-cli/internal/model"
)

// Separator is the field delimiter of the showtimes CSV.
const Separator = ';'

// showtimeColumns defines the ordered showtimes CSV columns.
var showtimeColumns = []string{
	"cinema_id",
	"cinema_name",
	"movie_id",
	"movie_title",
	"show_date",
	"start_time",
}

// WriteShowtimes writes rows as a ';'-separated CSV to w. Rows without a
// movie id are omitted. It returns the number of rows written.
func WriteShowtimes(w io.Writer, rows []model.ResolvedShowtime) (int, error) {
	// The header is written verbatim so it never picks up quoting.
	if _, err := io.WriteString(w, strings.Join(showtimeColumns, string(Separator))+"\n"); err != nil {
		return 0, eris.Wrap(err, "showtimes csv: write header")
	}

	cw := csv.NewWriter(w)
	cw.Comma = Separator

	n := 0
	for _, r := range rows {
		if !r.Persistable() {
			continue
		}
		if err := cw.Write(showtimeRow(r)); err != nil {
			return n, eris.Wrap(err, "showtimes csv: write row")
		}
		n++
	}
	cw.Flush()
	return n, eris.Wrap(cw.Error(), "showtimes csv: flush")
}

// ExportShowtimes creates path (and its directory) and writes rows to it.
func ExportShowtimes(path string, rows []model.ResolvedShowtime) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "showtimes csv: create dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "showtimes csv: create file")
	}
	defer f.Close()

	return WriteShowtimes(f, rows)
}

func showtimeRow(r model.ResolvedShowtime) []string {
	return []string{
		strconv.Itoa(r.CinemaID),
		r.CinemaName,
		strconv.Itoa(*r.MovieID),
		r.MovieTitle,
		r.ShowDate,
		r.StartTime,
	}
}
