package report

import (
	"fmt"
	"strings"
	"time"
)

var (
	dayNames   = [...]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}
	monthNames = [...]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jun", "Jul", "Aoû", "Sep", "Oct", "Nov", "Déc"}
)

var nameCleaner = strings.NewReplacer(" ", "_", "(", "", ")", "", ",", "", "'", "")

// Filename returns the showtimes CSV name for one run, for example
// "show_times-Pathe_Dakar-Mer_14_Oct-20261014-093000.csv".
func Filename(cinemaName, showDate string, now time.Time) string {
	return fmt.Sprintf("show_times-%s-%s-%s.csv",
		nameCleaner.Replace(strings.TrimSpace(cinemaName)),
		DateLabel(showDate),
		now.Format("20060102-150405"),
	)
}

// DateLabel renders an ISO date as "Ddd_DD_Mmm" with French abbreviations.
// A date that does not parse is returned with '-' replaced by '_'.
func DateLabel(showDate string) string {
	d, err := time.Parse(time.DateOnly, showDate)
	if err != nil {
		return strings.ReplaceAll(showDate, "-", "_")
	}
	return fmt.Sprintf("%s_%02d_%s", dayNames[d.Weekday()], d.Day(), monthNames[d.Month()-1])
}
