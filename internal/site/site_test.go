package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AllValid(t *testing.T) {
	r := NewRegistry()
	for _, a := range Defaults() {
		require.NoError(t, r.Register(a), a.Key)
	}
	assert.Len(t, r.Keys(), 11)
	assert.Equal(t, "ci_cap_sud", r.Keys()[0])
}

func TestDefaults_VariantsCarryOnlyTheirLocators(t *testing.T) {
	for _, a := range Defaults() {
		switch a.Variant {
		case Standard:
			assert.NotNil(t, a.Standard, a.Key)
			assert.Nil(t, a.Alternate, a.Key)
		case AlternateLayout:
			assert.Nil(t, a.Standard, a.Key)
			assert.NotNil(t, a.Alternate, a.Key)
		default:
			t.Errorf("%s: unexpected variant %q", a.Key, a.Variant)
		}
	}
}

func TestDefaults_MoroccoHasSecondaryLink(t *testing.T) {
	r, err := NewRegistryFromConfig("")
	require.NoError(t, err)

	a, err := r.Get("ma_casablanca")
	require.NoError(t, err)
	assert.Contains(t, a.Standard.SecondaryLink, "cinema-pathe-californie")

	b, err := r.Get("sn_dakar")
	require.NoError(t, err)
	assert.Empty(t, b.Standard.SecondaryLink)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown site")
}

func TestRegistry_ReplaceKeepsOrder(t *testing.T) {
	r := NewRegistry()
	defs := Defaults()
	require.NoError(t, r.Register(defs[0]))
	require.NoError(t, r.Register(defs[1]))

	replaced := defs[0]
	replaced.Label = "Renamed"
	require.NoError(t, r.Register(replaced))

	assert.Equal(t, []string{defs[0].Key, defs[1].Key}, r.Keys())
	got, err := r.Get(defs[0].Key)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Label)
}

func TestRegistry_ByCountry(t *testing.T) {
	r, err := NewRegistryFromConfig("")
	require.NoError(t, err)

	countries, groups := r.ByCountry()
	assert.Contains(t, countries, "Tunisie")
	assert.Len(t, groups["Tunisie"], 3)
	assert.Len(t, groups["Côte d'Ivoire"], 5)
}

func TestValidate_RejectsMismatchedDiscriminant(t *testing.T) {
	a := Defaults()[0]
	a.Variant = AlternateLayout
	assert.Error(t, a.Validate())

	b := Defaults()[0]
	b.Alternate = &AlternateLocators{}
	assert.Error(t, b.Validate())
}

func TestValidate_SliderPattern(t *testing.T) {
	a := Defaults()[0]
	a.Standard = patheLocators("a.x")
	a.Standard.DateSliderNth = "div > a"
	assert.Error(t, a.Validate())
}

func TestURLSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.pathe.sn/fr/cinemas/cinema-pathe-dakar", "cinema-pathe-dakar"},
		{"https://www.pathe.sn/fr/cinemas/cinema-pathe-dakar/", "cinema-pathe-dakar"},
		{".../cinema-pathe-dakar", "cinema-pathe-dakar"},
		{"", ""},
		{"https://majesticcinema.ci/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, URLSlug(tt.in))
		})
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("alternate_layout")
	require.NoError(t, err)
	assert.Equal(t, AlternateLayout, v)

	v, err = ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, Standard, v)

	_, err = ParseVariant("spa")
	assert.Error(t, err)
}

const testSitesYAML = `
order: [zz_custom]
sites:
  zz_custom:
    label: Custom Cinema
    country: France
    base_url: https://example.test/cinemas
    cinema_url: https://example.test/cinemas/custom
    cinema_name: Cinéma Custom
    variant: standard
    standard:
      cinema_link: a.custom
      movie_card: div.card
      title: h3
      time: span.time
      duration: span.duration
  sn_dakar:
    label: Dakar Override
    country: Sénégal
    base_url: https://www.pathe.sn/fr/cinemas
    cinema_name: Cinéma Pathé Dakar
    variant: standard
    standard:
      cinema_link: a.dakar
      movie_card: div.card
      title: h3
      time: span.time
`

func TestParse_OrderAndVariant(t *testing.T) {
	adapters, err := Parse([]byte(testSitesYAML))
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, "zz_custom", adapters[0].Key)
	assert.Equal(t, "sn_dakar", adapters[1].Key)
	assert.Equal(t, Standard, adapters[0].Variant)
	assert.Equal(t, "custom", adapters[0].Slug())
}

func TestParse_UnknownVariant(t *testing.T) {
	_, err := Parse([]byte("sites:\n  x:\n    base_url: u\n    cinema_name: n\n    variant: spa\n"))
	assert.Error(t, err)
}

func TestNewRegistryFromConfig_OverridesBuiltIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testSitesYAML), 0o644))

	r, err := NewRegistryFromConfig(path)
	require.NoError(t, err)
	assert.Len(t, r.Keys(), 12)

	dakar, err := r.Get("sn_dakar")
	require.NoError(t, err)
	assert.Equal(t, "Dakar Override", dakar.Label)
	assert.Equal(t, "a.dakar", dakar.Standard.CinemaLink)
}

func TestNewRegistryFromConfig_MissingFile(t *testing.T) {
	_, err := NewRegistryFromConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
