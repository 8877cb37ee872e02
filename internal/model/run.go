package model

import "time"

// RunStatus is the outcome of one extraction run.
type RunStatus string

const (
	// RunStatusOK means every step succeeded.
	RunStatusOK RunStatus = "ok"
	// RunStatusDegraded means rows were produced but some step failed
	// along the way.
	RunStatusDegraded RunStatus = "degraded"
	// RunStatusFailed means a fatal error stopped the run with zero rows.
	RunStatusFailed RunStatus = "failed"
)

// Run is one extraction as recorded in the run ledger.
type Run struct {
	ID       string    `json:"id"`
	SiteKey  string    `json:"site_key"`
	ShowDate string    `json:"show_date"`
	Status   RunStatus `json:"status"`
	// Rows counts the persistable rows (known movie id) added by the run.
	Rows int `json:"rows"`
	// Unique counts distinct (title, date, time) triples on ShowDate.
	Unique    int       `json:"unique"`
	Films     int       `json:"films"`
	Unknown   int       `json:"unknown"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Totals are the counts accumulated across runs.
type Totals struct {
	// Best is the highest Unique seen for the run's (site, date).
	Best int `json:"best"`
	// Cumulative is the sum of Rows over every recorded run.
	Cumulative int `json:"cumulative"`
}

// BestCount is the best unique showtime count of one (site, date).
type BestCount struct {
	SiteKey   string    `json:"site_key"`
	ShowDate  string    `json:"show_date"`
	Best      int       `json:"best"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CountShowtimes returns the number of distinct titles and of distinct
// (title, date, time) triples among rows dated showDate.
func CountShowtimes(rows []ResolvedShowtime, showDate string) (films, unique int) {
	type triple struct{ title, date, start string }
	titles := make(map[string]struct{})
	triples := make(map[triple]struct{})
	for _, r := range rows {
		if r.ShowDate != showDate {
			continue
		}
		titles[r.MovieTitle] = struct{}{}
		triples[triple{r.MovieTitle, r.ShowDate, r.StartTime}] = struct{}{}
	}
	return len(titles), len(triples)
}
