package nakdan

import (
	"errors"
	"testing"
)

func TestParseGenre(t *testing.T) {
	tests := []struct {
		in      string
		want    Genre
		wantErr bool
	}{
		{"modern", GenreModern, false},
		{"rabbinic", GenreRabbinic, false},
		{"modernpoetry", GenreModernPoetry, false},
		{"medievalpoetry", GenreMedievalPoetry, false},
		{"", "", true},
		{"MODERN", "", true},
		{" modern", "", true},
		{"poetry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGenre(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseGenre(%q) error = %v, want ErrValidation", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGenre(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseGenre(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenres(t *testing.T) {
	all := Genres()
	if len(all) != 4 {
		t.Fatalf("len(Genres()) = %d, want 4", len(all))
	}
	for _, g := range all {
		if !g.Valid() {
			t.Errorf("%q.Valid() = false", g)
		}
	}

	// Callers cannot mutate the package list.
	all[0] = "broken"
	if Genres()[0] != GenreModern {
		t.Error("Genres() returned shared slice")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "genre", Reason: "bad"}
	if got, want := err.Error(), "nakdan: invalid genre: bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Is(err, ErrClosed) {
		t.Error("ValidationError matched ErrClosed")
	}
}
