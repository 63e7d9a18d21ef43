package catalog_test

import (
	"math"
	"testing"

	"github.com/studykit/aptrack/internal/catalog"
)

func TestDifficultyRating(t *testing.T) {
	tests := []struct {
		name      string
		meanScore float64
		passRate  float64
		want      float64
	}{
		{"everyone passes easily", 4.5, 90, 1.4},
		{"middle of the road", 3.0, 60, 2.8},
		{"rough exam", 1.8, 20, 4.2},
		{"worst case", 1.0, 0, 5.0},
		{"best case", 5.0, 100, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := catalog.DifficultyRating(tt.meanScore, tt.passRate)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DifficultyRating(%v, %v) = %v, want %v", tt.meanScore, tt.passRate, got, tt.want)
			}
		})
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		rating float64
		want   int
	}{
		{1.0, 1},
		{1.5, 1},
		{1.6, 2},
		{2.5, 2},
		{2.8, 3},
		{3.5, 3},
		{4.2, 4},
		{4.5, 4},
		{4.6, 5},
		{5.0, 5},
	}

	for _, tt := range tests {
		if got := catalog.Stars(tt.rating); got != tt.want {
			t.Errorf("Stars(%v) = %d, want %d", tt.rating, got, tt.want)
		}
	}
}
