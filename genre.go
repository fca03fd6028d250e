package nakdan

import (
	"fmt"
	"strings"
)

// Genre selects the style model the service uses to vocalize text.
type Genre string

// Supported genres.
const (
	GenreModern         Genre = "modern"
	GenreRabbinic       Genre = "rabbinic"
	GenreModernPoetry   Genre = "modernpoetry"
	GenreMedievalPoetry Genre = "medievalpoetry"
)

// DefaultGenre is used by callers that accept an optional genre.
const DefaultGenre = GenreModern

var genres = []Genre{GenreModern, GenreRabbinic, GenreModernPoetry, GenreMedievalPoetry}

// Genres returns all supported genres.
func Genres() []Genre {
	out := make([]Genre, len(genres))
	copy(out, genres)
	return out
}

// Valid reports whether g is a supported genre.
func (g Genre) Valid() bool {
	for _, known := range genres {
		if g == known {
			return true
		}
	}
	return false
}

// ParseGenre returns the genre named s. Matching is exact.
func ParseGenre(s string) (Genre, error) {
	g := Genre(s)
	if !g.Valid() {
		names := make([]string, len(genres))
		for i, known := range genres {
			names[i] = string(known)
		}
		return "", &ValidationError{
			Field:  "genre",
			Reason: fmt.Sprintf("%q is not one of %s", s, strings.Join(names, ", ")),
		}
	}
	return g, nil
}
