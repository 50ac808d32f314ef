package itinerary

import (
	"testing"
	"time"

	"github.com/rushteam/tripkit/core"
)

func TestBuildTripContext_Defaults(t *testing.T) {
	tc, err := BuildTripContext(ItineraryRequest{
		City:      "paris",
		StartDate: "2026-05-01",
		Days:      2,
		Preferences: core.UserPreferences{
			PreferTags: []string{" Museum", "museum", "Art"},
		},
		MustVisitIDs: []string{"louvre"},
	}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !tc.Date.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", tc.Date)
	}
	if tc.MaxLegKm != 5 || tc.MaxItemsPerBlock != 3 {
		t.Errorf("defaults = %v km, %d items", tc.MaxLegKm, tc.MaxItemsPerBlock)
	}
	want := map[BlockName]Window{
		Morning:   {540, 720},
		Lunch:     {720, 810},
		Afternoon: {810, 1050},
		Dinner:    {1080, 1170},
		Evening:   {1170, 1320},
	}
	for name, w := range want {
		got := tc.Windows[name]
		if got == nil || *got != w {
			t.Errorf("window %s = %v, want %v", name, got, w)
		}
	}
	if len(tc.Preferences.PreferTags) != 2 || tc.Preferences.PreferTags[0] != "art" {
		t.Errorf("preferred tags = %v", tc.Preferences.PreferTags)
	}
	if _, ok := tc.MustVisit["louvre"]; !ok {
		t.Errorf("must visit = %v", tc.MustVisit)
	}
	if tc.Filter != nil {
		t.Errorf("empty filter should compile to nil")
	}
}

func TestBuildTripContext_Blocks(t *testing.T) {
	tc, err := BuildTripContext(ItineraryRequest{
		Days:             1,
		MaxLegKm:         2.5,
		MaxItemsPerBlock: 1,
		Blocks: map[BlockName]BlockRequest{
			Morning: {Start: "08:30"},
			Evening: {Enabled: boolp(false)},
			Dinner:  {Enabled: boolp(true), Start: "18:30", End: "20:00"},
		},
	}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if w := tc.Windows[Morning]; w == nil || w.Start != 510 || w.End != 720 {
		t.Errorf("morning = %v", w)
	}
	if w := tc.Windows[Dinner]; w == nil || w.Start != 1110 || w.End != 1200 {
		t.Errorf("dinner = %v", w)
	}
	if tc.Windows[Evening] != nil {
		t.Errorf("disabled evening should have no window")
	}
	if tc.MaxLegKm != 2.5 || tc.MaxItemsPerBlock != 1 {
		t.Errorf("request overrides = %v km, %d items", tc.MaxLegKm, tc.MaxItemsPerBlock)
	}
	if tc.Date.IsZero() {
		t.Errorf("missing start date should default to today")
	}
}

func TestBuildTripContext_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  ItineraryRequest
	}{
		{"zero days", ItineraryRequest{Days: 0}},
		{"too many days", ItineraryRequest{Days: 31}},
		{"negative leg", ItineraryRequest{Days: 1, MaxLegKm: -1}},
		{"bad date", ItineraryRequest{Days: 1, StartDate: "05/01/2026"}},
		{"unknown block", ItineraryRequest{Days: 1, Blocks: map[BlockName]BlockRequest{"brunch": {}}}},
		{"bad time", ItineraryRequest{Days: 1, Blocks: map[BlockName]BlockRequest{Lunch: {Start: "12h"}}}},
		{"empty window", ItineraryRequest{Days: 1, Blocks: map[BlockName]BlockRequest{Lunch: {Start: "13:00", End: "12:00"}}}},
		{"bad filter", ItineraryRequest{Days: 1, Filter: "spot.price <"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTripContext(tt.req, DefaultConfig())
			if err == nil {
				t.Fatal("expected error")
			}
			if !core.IsInvalidInput(err) {
				t.Errorf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestBlockName_IsMeal(t *testing.T) {
	for _, b := range BlockOrder {
		want := b == Lunch || b == Dinner
		if b.IsMeal() != want {
			t.Errorf("%s.IsMeal() = %v", b, b.IsMeal())
		}
	}
}
