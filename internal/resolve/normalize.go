package resolve

import "strings"

var cinemaPrefixes = []string{"cinéma ", "cinema "}

// NormalizeCinemaName lower-cases and trims name and strips any leading
// "cinéma "/"cinema " tokens. Stripping repeats until no prefix is left so
// NormalizeCinemaName(NormalizeCinemaName(x)) == NormalizeCinemaName(x).
func NormalizeCinemaName(name string) string {
	n := strings.TrimSpace(strings.ToLower(name))
	for {
		stripped := false
		for _, p := range cinemaPrefixes {
			if strings.HasPrefix(n, p) {
				n = strings.TrimSpace(strings.TrimPrefix(n, p))
				stripped = true
			}
		}
		if !stripped {
			return n
		}
	}
}

// NormalizeTitle lower-cases and trims a movie title for catalog lookup.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func foldEqual(a, b string) bool {
	return strings.ToLower(strings.TrimSpace(a)) == strings.ToLower(strings.TrimSpace(b))
}
