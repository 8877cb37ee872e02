package model

// RawShowtime is one showtime as read from a cinema page, before any
// catalog resolution. StartTime is normalized to H:MM when the page text
// matched a known time pattern, otherwise it holds the trimmed raw text.
type RawShowtime struct {
	SiteKey    string `json:"site_key"`
	CinemaName string `json:"cinema_name"`
	MovieTitle string `json:"movie_title"`
	ShowDate   string `json:"show_date"`  // YYYY-MM-DD
	StartTime  string `json:"start_time"` // H:MM or HH:MM
	Duration   string `json:"duration,omitempty"`
	// DurationMinutes is nil when the duration text could not be parsed.
	DurationMinutes *int `json:"duration_minutes,omitempty"`
}

// ResolvedShowtime is a RawShowtime with catalog identifiers attached.
// MovieID is nil (and UnknownMovie true) when the title matched nothing
// in the movie catalog.
type ResolvedShowtime struct {
	RawShowtime
	CinemaID     int  `json:"cinema_id"`
	MovieID      *int `json:"movie_id"`
	UnknownMovie bool `json:"unknown_movie"`
}

// Persistable reports whether the row carries a movie id and may be
// written to the showtimes output.
func (r ResolvedShowtime) Persistable() bool {
	return r.MovieID != nil
}

// UnknownMovie is one entry of the movies-to-add report.
type UnknownMovie struct {
	Title           string `json:"title"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
}

// CollectUnknown returns the distinct (title, duration) pairs of the rows
// flagged as unknown, in first-seen order.
func CollectUnknown(rows []ResolvedShowtime) []UnknownMovie {
	type key struct {
		title string
		dur   int
		has   bool
	}
	seen := make(map[key]bool)
	var out []UnknownMovie
	for _, r := range rows {
		if !r.UnknownMovie {
			continue
		}
		k := key{title: r.MovieTitle}
		if r.DurationMinutes != nil {
			k.dur, k.has = *r.DurationMinutes, true
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, UnknownMovie{Title: r.MovieTitle, DurationMinutes: r.DurationMinutes})
	}
	return out
}

// Persistable filters rows down to those with a resolved movie id.
func Persistable(rows []ResolvedShowtime) []ResolvedShowtime {
	out := make([]ResolvedShowtime, 0, len(rows))
	for _, r := range rows {
		if r.Persistable() {
			out = append(out, r)
		}
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
