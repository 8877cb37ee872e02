package site

import "fmt"

// Pathé sites share one page template; only the cinema link differs.
const (
	patheConsentButton = "#didomi-notice-agree-button"
	patheMovieCard     = "div.tw-group"
	patheTitle         = "h3.tw-items.tw-inline-block.tw-gap-1\\.5.tw-text-title-lg.tw-text-common-text-neutral-primary, span"
	patheTime          = "div.tw-mb-0.tw-font-trade.tw-text-display-base.tw-text-common-text-neutral-primary"
	patheDuration      = "span.tw-mb-0.tw-flex.tw-gap-2.tw-text-regular-xs.tw-text-common-text-neutral-muted-placeholders span:nth-child(2)"

	patheSwiper     = "#toBarDatePicker > div > cgp-calendar > div.tw-relative.tw-w-full.tw-h-full.tw-overflow-hidden.max-lg\\:tw-slider-mobile-size.max-lg\\:-tw-ml-2.lg\\:tw-px-8 > div.tw-relative.tw-w-full.tw-h-full.tw-mask-left > div > swiper > div"
	patheCinemaList = "body > cgp-root > main > cgp-cinemas-page > section > div > div > div > cgp-empty-location > cgp-cinemas-list > div > div > div.accordion-panel > ul"
)

const (
	majesticBaseURL     = "https://majesticcinema.ci/"
	majesticMenuTrigger = "body > div.tm-page > header.tm-header.uk-visible\\@m > div.uk-sticky > div.uk-navbar-container > div > nav > div.uk-navbar-right > ul > li.item-788.uk-parent"
	majesticDropdown    = "body > div.tm-page > header.tm-header.uk-visible\\@m > div.uk-sticky > div.uk-drop.uk-navbar-dropdown.uk-open > div > ul"
)

func patheLocators(cinemaLink string) *StandardLocators {
	return &StandardLocators{
		ConsentButton:  patheConsentButton,
		CinemaLink:     cinemaLink,
		MovieCard:      patheMovieCard,
		Title:          patheTitle,
		Time:           patheTime,
		Duration:       patheDuration,
		DateSliderNext: patheSwiper + " > div.tw-swiper-slide.swiper-slide-next > a",
		DateSliderNth:  patheSwiper + " > div:nth-child(%d) > a",
	}
}

func majesticLocators(item string) *AlternateLocators {
	return &AlternateLocators{
		AnnouncementClose: []string{
			"#dialog7 > button.eb-close.placement-inside",
			"#dialog7 > button",
			"button.eb-close.placement-inside",
		},
		MenuTrigger:    majesticMenuTrigger,
		VenueItem:      fmt.Sprintf("%s > li.%s", majesticDropdown, item),
		MovieCard:      "div.AUgnqrUu",
		DetailTitle:    "h2.W2nsCKpB",
		DetailDuration: "span.DAna1liq",
		DateTab:        "div.ant-tabs-tab[role='tab']",
		SlotContainer:  "div.enWqIGWP",
		DateHeader:     "div.GPEjpDjV",
		DateHeaderPart: "div",
		TimeSlot:       "span.underline",
		BackButton:     "button.EP_xg_rA",
	}
}

func pathe(key, country, domain, slug, name string, id int, link string) Adapter {
	base := "https://www." + domain + "/fr/cinemas"
	return Adapter{
		Key:        key,
		Label:      name,
		Country:    country,
		BaseURL:    base,
		CinemaURL:  base + "/" + slug,
		CinemaName: name,
		CinemaID:   id,
		Variant:    Standard,
		Standard:   patheLocators(link),
	}
}

func majestic(key, name string, id int, item string) Adapter {
	return Adapter{
		Key:        key,
		Label:      name,
		Country:    "Côte d'Ivoire",
		BaseURL:    majesticBaseURL,
		CinemaName: name,
		CinemaID:   id,
		Variant:    AlternateLayout,
		Alternate:  majesticLocators(item),
	}
}

// Defaults returns the built-in site adapters in display order.
func Defaults() []Adapter {
	morocco := pathe("ma_casablanca", "Maroc", "pathe.ma", "cinema-pathe-californie-casablanca",
		"Cinéma Pathé Californie Casablanca", 401, "a[href*='cinema-pathe-californie']")
	morocco.Standard.SecondaryLink = patheCinemaList + " > li > a[href='/fr/cinemas/cinema-pathe-californie']"

	return []Adapter{
		pathe("ci_cap_sud", "Côte d'Ivoire", "pathe.ci", "cinema-pathe-cap-sud",
			"Cinéma Pathé Cap Sud", 14, "nav ul li:nth-child(2) a[href*='cinema-pathe-cap-sud']"),
		pathe("sn_dakar", "Sénégal", "pathe.sn", "cinema-pathe-dakar",
			"Cinéma Pathé Dakar", 201, "a[href*='cinema-pathe-dakar']"),
		pathe("be_charleroi", "Belgique", "pathe.be", "cinema-pathe-charleroi",
			"Cinéma Pathé Charleroi", 301, "a[href*='cinema-pathe-charleroi']"),
		morocco,
		pathe("tn_tunis_city", "Tunisie", "pathe.tn", "cinema-pathe-tunis-city",
			"Cinéma Pathé Tunis City", 501, patheCinemaList+" > li:nth-child(1) > a"),
		pathe("tn_azur_city", "Tunisie", "pathe.tn", "cinema-pathe-azur-city",
			"Cinéma Pathé Azur City", 502, patheCinemaList+" > li:nth-child(2) > a"),
		pathe("tn_mall_sousse", "Tunisie", "pathe.tn", "cinema-pathe-mall-of-sousse",
			"Cinéma Pathé Mall Of Sousse", 503, patheCinemaList+" > li:nth-child(3) > a"),
		majestic("ci_maj_ivoire", "Majestic Cinéma Ivoire", 601, "item-789"),
		majestic("ci_maj_prima", "MAJESTIC PRIMA", 602, "item-790"),
		majestic("ci_maj_ficgayo", "Majestic Cinema Ficgayo", 603, "item-792"),
		majestic("ci_maj_sococe", "Majestic Cinéma Sococe", 604, "item-791"),
	}
}
