package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectUnknown_DedupesByTitleAndDuration(t *testing.T) {
	rows := []ResolvedShowtime{
		{RawShowtime: RawShowtime{MovieTitle: "Xyzzy", DurationMinutes: IntPtr(95)}, UnknownMovie: true},
		{RawShowtime: RawShowtime{MovieTitle: "Xyzzy", DurationMinutes: IntPtr(95)}, UnknownMovie: true},
		{RawShowtime: RawShowtime{MovieTitle: "Xyzzy"}, UnknownMovie: true},
		{RawShowtime: RawShowtime{MovieTitle: "Dune"}, MovieID: IntPtr(9)},
	}

	got := CollectUnknown(rows)
	assert.Len(t, got, 2)
	assert.Equal(t, "Xyzzy", got[0].Title)
	assert.Equal(t, 95, *got[0].DurationMinutes)
	assert.Nil(t, got[1].DurationMinutes)
}

func TestPersistable(t *testing.T) {
	rows := []ResolvedShowtime{
		{RawShowtime: RawShowtime{MovieTitle: "A"}, MovieID: IntPtr(1)},
		{RawShowtime: RawShowtime{MovieTitle: "B"}, UnknownMovie: true},
	}
	got := Persistable(rows)
	assert.Len(t, got, 1)
	assert.Equal(t, "A", got[0].MovieTitle)
}

func TestCountShowtimes(t *testing.T) {
	rows := []ResolvedShowtime{
		{RawShowtime: RawShowtime{MovieTitle: "Dune", ShowDate: "2026-10-14", StartTime: "14:30"}},
		{RawShowtime: RawShowtime{MovieTitle: "Dune", ShowDate: "2026-10-14", StartTime: "14:30"}},
		{RawShowtime: RawShowtime{MovieTitle: "Dune", ShowDate: "2026-10-14", StartTime: "20:15"}},
		{RawShowtime: RawShowtime{MovieTitle: "Wicked", ShowDate: "2026-10-14", StartTime: "18:00"}},
		{RawShowtime: RawShowtime{MovieTitle: "Wicked", ShowDate: "2026-10-15", StartTime: "18:00"}},
	}
	films, unique := CountShowtimes(rows, "2026-10-14")
	assert.Equal(t, 2, films)
	assert.Equal(t, 3, unique)

	films, unique = CountShowtimes(nil, "2026-10-14")
	assert.Zero(t, films)
	assert.Zero(t, unique)
}
