package navigate

import "time"

// Timings are the bounded waits and settle pauses used while navigating.
// Zero values mean "do not wait", which tests rely on.
type Timings struct {
	PageTimeout       time.Duration `mapstructure:"page_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	ClickSettle       time.Duration `mapstructure:"click_settle"`
	ConsentWait       time.Duration `mapstructure:"consent_wait"`
	ClickTimeout      time.Duration `mapstructure:"click_timeout"`
	CardWait          time.Duration `mapstructure:"card_wait"`
	CardPause         time.Duration `mapstructure:"card_pause"`
	AnnouncementWait  time.Duration `mapstructure:"announcement_wait"`
	AnnouncementPause time.Duration `mapstructure:"announcement_pause"`
	MenuWait          time.Duration `mapstructure:"menu_wait"`
	HoverDelay        time.Duration `mapstructure:"hover_delay"`
	VenueSettle       time.Duration `mapstructure:"venue_settle"`
	DetailWait        time.Duration `mapstructure:"detail_wait"`
	TabWait           time.Duration `mapstructure:"tab_wait"`
	BackSettle        time.Duration `mapstructure:"back_settle"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	TitleRetryDelay   time.Duration `mapstructure:"title_retry_delay"`
}

// DefaultTimings returns the waits tuned against the live sites.
func DefaultTimings() Timings {
	return Timings{
		PageTimeout:       15 * time.Second,
		SettleDelay:       2 * time.Second,
		ClickSettle:       200 * time.Millisecond,
		ConsentWait:       4 * time.Second,
		ClickTimeout:      45 * time.Second,
		CardWait:          15 * time.Second,
		CardPause:         3 * time.Second,
		AnnouncementWait:  2 * time.Second,
		AnnouncementPause: 300 * time.Millisecond,
		MenuWait:          10 * time.Second,
		HoverDelay:        500 * time.Millisecond,
		VenueSettle:       time.Second,
		DetailWait:        10 * time.Second,
		TabWait:           4 * time.Second,
		BackSettle:        time.Second,
		RetryDelay:        800 * time.Millisecond,
		TitleRetryDelay:   500 * time.Millisecond,
	}
}

// Attempts are total attempt counts (first try included) per step.
type Attempts struct {
	CinemaLink    int `mapstructure:"cinema_link"`
	SecondaryLink int `mapstructure:"secondary_link"`
	DateSlider    int `mapstructure:"date_slider"`
	CardWait      int `mapstructure:"card_wait"`
	Announcement  int `mapstructure:"announcement"`
	CardTitle     int `mapstructure:"card_title"`
}

// DefaultAttempts returns the per-step attempt counts.
func DefaultAttempts() Attempts {
	return Attempts{
		CinemaLink:    2,
		SecondaryLink: 2,
		DateSlider:    3,
		CardWait:      4,
		Announcement:  3,
		CardTitle:     3,
	}
}

// Config bundles everything a Navigator needs besides the session.
type Config struct {
	Timings  Timings  `mapstructure:",squash"`
	Attempts Attempts `mapstructure:"attempts"`
	// QuickRescrape skips base load, consent and cinema selection for a
	// page already showing the right cinema.
	QuickRescrape bool `mapstructure:"quick_rescrape"`
}

// DefaultConfig returns DefaultTimings and DefaultAttempts.
func DefaultConfig() Config {
	return Config{Timings: DefaultTimings(), Attempts: DefaultAttempts()}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
