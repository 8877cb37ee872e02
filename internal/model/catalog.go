package model

import "time"

// CreatedAtLayout is the timestamp format stored in the catalogs' "Created at"
// column.
const CreatedAtLayout = "2006-01-02 15-04-05"

// CinemaRecord is one row of the cinemas catalog.
type CinemaRecord struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"` // region or country label
	CreatedAt time.Time `json:"created_at"`
	Website   string    `json:"website"`
}

// MovieRecord is one row of the movies catalog.
type MovieRecord struct {
	ID            int    `json:"id"`
	OriginalTitle string `json:"original_title"`
	Title         string `json:"title"`
	Duration      string `json:"duration"`
	ReleaseDate   string `json:"release_date"`
	CreatedAt     string `json:"created_at"`
}
