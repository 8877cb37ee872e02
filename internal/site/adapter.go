// Package site holds the per-site descriptors that drive navigation and
// card extraction. Adapters are immutable once registered.
package site

import (
	"net/url"
	"path"
	"strings"

	"github.com/rotisserie/eris"
)

// Variant discriminates the page layout families the extractor supports.
type Variant string

const (
	// Standard is the single-page listing with a date slider (Pathé).
	Standard Variant = "standard"
	// AlternateLayout is the multi-step venue picker with per-card detail
	// views and an announcement dialog (Majestic).
	AlternateLayout Variant = "alternate-layout"
)

// ParseVariant converts a string into a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return Standard, nil
	case "alternate-layout", "alternate_layout", "alternate":
		return AlternateLayout, nil
	default:
		return "", eris.Errorf("site: unknown variant %q (valid: standard, alternate-layout)", s)
	}
}

// StandardLocators are the CSS locators of a standard-variant site.
type StandardLocators struct {
	ConsentButton string `yaml:"consent_button"`
	CinemaLink    string `yaml:"cinema_link"`
	// SecondaryLink disambiguates nested location pickers. Optional.
	SecondaryLink string `yaml:"secondary_link,omitempty"`
	MovieCard     string `yaml:"movie_card"`
	Title         string `yaml:"title"`
	Time          string `yaml:"time"`
	Duration      string `yaml:"duration"`
	// DateSliderNext selects the slide right after today.
	DateSliderNext string `yaml:"date_slider_next,omitempty"`
	// DateSliderNth is a pattern with a single %d for the 1-based slide index.
	DateSliderNth string `yaml:"date_slider_nth,omitempty"`
}

// AlternateLocators are the CSS locators of an alternate-layout site.
type AlternateLocators struct {
	AnnouncementClose []string `yaml:"announcement_close"`
	MenuTrigger       string   `yaml:"menu_trigger"`
	VenueItem         string   `yaml:"venue_item"`
	MovieCard         string   `yaml:"movie_card"`
	DetailTitle       string   `yaml:"detail_title"`
	DetailDuration    string   `yaml:"detail_duration"`
	DateTab           string   `yaml:"date_tab"`
	SlotContainer     string   `yaml:"slot_container"`
	DateHeader        string   `yaml:"date_header"`
	DateHeaderPart    string   `yaml:"date_header_part"`
	TimeSlot          string   `yaml:"time_slot"`
	BackButton        string   `yaml:"back_button"`
}

// Adapter is the declarative description of one cinema site.
type Adapter struct {
	Key        string `yaml:"-"`
	Label      string `yaml:"label"`
	Country    string `yaml:"country"`
	BaseURL    string `yaml:"base_url"`
	CinemaURL  string `yaml:"cinema_url,omitempty"`
	CinemaName string `yaml:"cinema_name"`
	// CinemaID is the configured fallback id, used only when catalog
	// resolution fails.
	CinemaID int     `yaml:"cinema_id,omitempty"`
	Variant  Variant `yaml:"variant"`

	Standard  *StandardLocators  `yaml:"standard,omitempty"`
	Alternate *AlternateLocators `yaml:"alternate,omitempty"`
}

// CardLocator returns the movie-card locator of whichever variant is set.
func (a Adapter) CardLocator() string {
	switch a.Variant {
	case AlternateLayout:
		if a.Alternate != nil {
			return a.Alternate.MovieCard
		}
	default:
		if a.Standard != nil {
			return a.Standard.MovieCard
		}
	}
	return ""
}

// Slug returns the last path segment of the cinema URL, used to match the
// cinema catalog's Website column.
func (a Adapter) Slug() string {
	return URLSlug(a.CinemaURL)
}

// URLSlug returns the last non-empty path segment of raw.
func URLSlug(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// Validate checks that the discriminant and the locator set agree and that
// the locators the variant needs are present.
func (a Adapter) Validate() error {
	if a.Key == "" {
		return eris.New("site: adapter key is empty")
	}
	if a.BaseURL == "" {
		return eris.Errorf("site %s: base_url is required", a.Key)
	}
	if a.CinemaName == "" {
		return eris.Errorf("site %s: cinema_name is required", a.Key)
	}

	switch a.Variant {
	case Standard:
		if a.Alternate != nil {
			return eris.Errorf("site %s: standard variant must not carry alternate locators", a.Key)
		}
		l := a.Standard
		if l == nil {
			return eris.Errorf("site %s: standard locators missing", a.Key)
		}
		for name, v := range map[string]string{
			"cinema_link": l.CinemaLink,
			"movie_card":  l.MovieCard,
			"title":       l.Title,
			"time":        l.Time,
		} {
			if v == "" {
				return eris.Errorf("site %s: standard.%s is required", a.Key, name)
			}
		}
		if l.DateSliderNth != "" && strings.Count(l.DateSliderNth, "%d") != 1 {
			return eris.Errorf("site %s: standard.date_slider_nth needs exactly one %%d", a.Key)
		}
	case AlternateLayout:
		if a.Standard != nil {
			return eris.Errorf("site %s: alternate-layout variant must not carry standard locators", a.Key)
		}
		l := a.Alternate
		if l == nil {
			return eris.Errorf("site %s: alternate locators missing", a.Key)
		}
		for name, v := range map[string]string{
			"menu_trigger": l.MenuTrigger,
			"venue_item":   l.VenueItem,
			"movie_card":   l.MovieCard,
			"detail_title": l.DetailTitle,
			"date_tab":     l.DateTab,
			"time_slot":    l.TimeSlot,
		} {
			if v == "" {
				return eris.Errorf("site %s: alternate.%s is required", a.Key, name)
			}
		}
	default:
		return eris.Errorf("site %s: unknown variant %q", a.Key, a.Variant)
	}
	return nil
}
