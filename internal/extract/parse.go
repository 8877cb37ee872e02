package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	timeRe        = regexp.MustCompile(`(?i)(\d{1,2}[:h]\d{2})`)
	durationHMRe  = regexp.MustCompile(`(\d+)h(?:\s*(\d+))?`)
	durationMinRe = regexp.MustCompile(`(\d+)\s*min`)
)

// ParseDuration converts "2h10", "2h" or "95 min" into minutes. It returns
// nil when text matches neither form.
func ParseDuration(text string) *int {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if m := durationHMRe.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		v := h*60 + mins
		return &v
	}
	if m := durationMinRe.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return &v
	}
	return nil
}

// NormalizeTime rewrites the "HhMM" form to "H:MM". "9:05" is returned
// unchanged.
func NormalizeTime(t string) string {
	return strings.TrimSpace(strings.NewReplacer("h", ":", "H", ":").Replace(t))
}

// ScanTime returns the first H:MM / HhMM occurrence in raw, normalized. When
// raw holds no such occurrence it is returned trimmed.
func ScanTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := timeRe.FindString(raw); m != "" {
		return NormalizeTime(m)
	}
	return raw
}

// frenchMonths maps accent-folded French month labels to month numbers.
var frenchMonths = map[string]time.Month{
	"jan": time.January, "janv": time.January, "janvier": time.January,
	"fev": time.February, "fevr": time.February, "fevrier": time.February,
	"mar": time.March, "mars": time.March,
	"avr": time.April, "avril": time.April,
	"mai": time.May,
	"jun": time.June, "juin": time.June,
	"jul": time.July, "juil": time.July, "juillet": time.July,
	"aou": time.August, "aout": time.August,
	"sep": time.September, "sept": time.September, "septembre": time.September,
	"oct": time.October, "octobre": time.October,
	"nov": time.November, "novembre": time.November,
	"dec": time.December, "decembre": time.December,
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// MonthNumber resolves a French month label such as "Oct", "déc." or
// "Février". Labels not in the table are retried on their first three
// letters.
func MonthNumber(label string) (time.Month, bool) {
	key := strings.Trim(strings.ToLower(foldAccents(strings.TrimSpace(label))), ". ")
	if m, ok := frenchMonths[key]; ok {
		return m, true
	}
	if r := []rune(key); len(r) > 3 {
		if m, ok := frenchMonths[string(r[:3])]; ok {
			return m, true
		}
	}
	return 0, false
}

// ParseDateParts turns a date header split into parts, e.g.
// ["Mar", "21", "Oct"], into YYYY-MM-DD in the year of today. The first
// numeric part is the day and the last label naming a month is the month.
// Unparseable headers yield today's date.
func ParseDateParts(parts []string, today time.Time) string {
	fallback := today.Format(time.DateOnly)

	day := 0
	var labels []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			if day == 0 {
				day = n
			}
			continue
		}
		labels = append(labels, p)
	}
	if day < 1 || day > 31 || len(labels) == 0 {
		return fallback
	}

	// The first label is usually the weekday ("Mar" is both Tuesday and
	// March), so prefer a later label when there is one.
	month, ok := time.Month(0), false
	for i := len(labels) - 1; i >= 0 && !ok; i-- {
		month, ok = MonthNumber(labels[i])
	}
	if !ok {
		return fallback
	}
	d := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if d.Day() != day {
		return fallback
	}
	return d.Format(time.DateOnly)
}
