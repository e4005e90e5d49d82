package domain

import (
	"errors"
	"testing"

	"github.com/DRSN-tech/spectra-backend/pkg/e"
)

func TestParseRatingValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{"3", 3, false},
		{"4.5", 4.5, false},
		{"5.0", 5, false},
		{"0", 0, true},
		{"5.5", 0, true},
		{"3.25", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseRatingValue(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, e.ErrInvalidRating) {
					t.Fatalf("got %v, want ErrInvalidRating", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseRatingValue(%q) = %v, %v", tt.raw, got, err)
			}
		})
	}
}

func TestValidateRatingValue(t *testing.T) {
	if err := ValidateRatingValue(2.5); err != nil {
		t.Errorf("2.5 rejected: %v", err)
	}
	if err := ValidateRatingValue(2.4); !errors.Is(err, e.ErrInvalidRating) {
		t.Errorf("2.4 accepted")
	}
}

func TestParseMediaTypes(t *testing.T) {
	got, err := ParseMediaTypes([]string{"Movie", " book ", "movie"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != MediaTypeMovie || got[1] != MediaTypeBook {
		t.Errorf("got %v", got)
	}

	all, err := ParseMediaTypes(nil)
	if err != nil || len(all) != 3 {
		t.Errorf("empty list must mean all types, got %v", all)
	}

	if _, err := ParseMediaTypes([]string{"podcast"}); !errors.Is(err, e.ErrInvalidMediaType) {
		t.Errorf("got %v, want ErrInvalidMediaType", err)
	}
}

func TestPointIDIsStable(t *testing.T) {
	a := PointID("tmdb_603")
	if a != PointID("tmdb_603") {
		t.Fatal("point id is not deterministic")
	}
	if a == PointID("tmdb_604") {
		t.Fatal("different items share a point id")
	}
}
