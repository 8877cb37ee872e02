package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/showtimes-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			SiteKey:   "sn_dakar",
			ShowDate:  "2026-10-14",
			Status:    model.RunStatusOK,
			Rows:      42,
			Unique:    40,
			CreatedAt: now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			SiteKey:   "ci_maj_prima",
			ShowDate:  "2026-10-15",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "SITE")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "sn_dakar")
	assert.Contains(t, output, "ok")
	assert.Contains(t, output, "ci_maj_prima")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2026-10-14 10:30")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
}

func TestFormatRunsList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, nil)
	assert.Contains(t, buf.String(), "ID")
}

func TestFormatBestCounts(t *testing.T) {
	best := []model.BestCount{
		{SiteKey: "sn_dakar", ShowDate: "2026-10-14", Best: 41, UpdatedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)},
		{SiteKey: "sn_dakar", ShowDate: "2026-10-15", Best: 12, UpdatedAt: time.Date(2026, 10, 14, 9, 5, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	formatBestCounts(&buf, best, 107)

	output := buf.String()
	assert.Contains(t, output, "BEST")
	assert.Contains(t, output, "41")
	assert.Contains(t, output, "2026-10-15")
	assert.Contains(t, output, "Cumulative rows:")
	assert.Contains(t, output, "107")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
