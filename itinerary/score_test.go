package itinerary

import (
	"context"
	"math"
	"testing"
)

func TestDistancePenalty(t *testing.T) {
	prev := math.Inf(1)
	for d := 0.0; d <= 12; d += 0.5 {
		got := DistancePenalty(d, 5)
		if got > prev {
			t.Fatalf("penalty increased at %v km: %v > %v", d, got, prev)
		}
		if got < 0.2 {
			t.Fatalf("penalty %v below floor at %v km", got, d)
		}
		prev = got
	}
	if got := DistancePenalty(0, 5); got != 1 {
		t.Errorf("DistancePenalty(0) = %v, want 1", got)
	}
	if got := DistancePenalty(2.5, 5); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("DistancePenalty(2.5) = %v, want 0.5", got)
	}
	if got := DistancePenalty(1, 0); got != 0.2 {
		t.Errorf("zero max leg = %v, want floor", got)
	}
}

func TestTagMatch(t *testing.T) {
	tests := []struct {
		name      string
		tags      []string
		preferred []string
		want      float64
	}{
		{"no preference", []string{"art"}, nil, 0},
		{"full", []string{"Art", "museum"}, []string{"art"}, 1},
		{"half", []string{"art"}, []string{"art", "food"}, 0.5},
		{"none", []string{"park"}, []string{"art", "food"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TagMatch(tt.tags, tt.preferred); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("TagMatch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversityScore(t *testing.T) {
	a := visitSpot("a", 0, 0)
	near := visitSpot("near", 0.009, 0) // ~1km
	far := visitSpot("far", 0.05, 0)    // ~5.6km

	if got := DiversityScore(&a, nil); got != 1 {
		t.Errorf("no selection = %v, want 1", got)
	}
	got := DiversityScore(&near, []*Spot{&a})
	if got < 0.49 || got > 0.51 {
		t.Errorf("1km away = %v, want ~0.5", got)
	}
	if got := DiversityScore(&far, []*Spot{&a}); got != 1 {
		t.Errorf("far away = %v, want capped at 1", got)
	}
}

func TestPopularityAndRatingScore(t *testing.T) {
	sp := visitSpot("x", 0, 0)
	if got := RatingScore(&sp); math.Abs(got-0.6) > 1e-12 {
		t.Errorf("default rating score = %v, want 0.6", got)
	}
	r := 4.5
	sp.Rating = &r
	if got := RatingScore(&sp); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("rating score = %v, want 0.9", got)
	}
	sp.Popularity = 250
	if got := PopularityScore(&sp); got != 0.25 {
		t.Errorf("popularity score = %v", got)
	}
	sp.Popularity = 5000
	if got := PopularityScore(&sp); got != 1 {
		t.Errorf("popularity score = %v, want capped at 1", got)
	}
}

func TestSpotWeight(t *testing.T) {
	sp := visitSpot("x", 0, 0)
	in := WeightInput{Spot: &sp, MaxLegKm: 5}

	// 0.25·0.6 + 0.15·0 + 0.25·0 + 0.15·1 + 0.20·1
	base := SpotWeight(in)
	if math.Abs(base-0.5) > 1e-12 {
		t.Errorf("base weight = %v, want 0.5", base)
	}

	in.AIScore = 1
	// 0.30·1 + 0.15·0.6 + 0.20·0 + 0.15·1 + 0.20·1
	if got := SpotWeight(in); math.Abs(got-0.74) > 1e-12 {
		t.Errorf("ai weight = %v, want 0.74", got)
	}

	in.AIScore = 0
	in.MustVisit = map[string]struct{}{"x": {}}
	if diff := SpotWeight(in) - base; math.Abs(diff-MustVisitBonus) > 1e-9 {
		t.Errorf("must visit bonus = %v, want %v", diff, MustVisitBonus)
	}
}

func TestScorerFunc(t *testing.T) {
	var s Scorer = ScorerFunc(func(_ context.Context, id string, _ []string) float64 {
		if id == "x" {
			return 0.7
		}
		return 0
	})
	if got := s.Score(context.Background(), "x", nil); got != 0.7 {
		t.Errorf("Score = %v", got)
	}
}
