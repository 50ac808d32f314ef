package itinerary

import (
	"context"
	"math/rand"
	"testing"
)

func testSession(cfg Config, maxLeg float64, maxItems int) *session {
	tc := &TripContext{
		Days:             1,
		MaxLegKm:         maxLeg,
		MaxItemsPerBlock: maxItems,
		MustVisit:        map[string]struct{}{},
		Avoid:            map[string]struct{}{},
	}
	return newSession(cfg, tc, nil, rand.New(rand.NewSource(1)))
}

func TestVisitBlock_MaxLeg(t *testing.T) {
	origin := visitSpot("origin", 0, 0)
	far := visitSpot("far", 0.09, 0)    // ~10km
	mid := visitSpot("mid", 0.063, 0)   // ~7km，在放宽扫描范围内
	near := visitSpot("near", 0.027, 0) // ~3km
	w := Window{Start: 540, End: 900}

	tests := []struct {
		name string
		pool []*Spot
		must string
		want []string
	}{
		{"beyond scan range", []*Spot{&far}, "", nil},
		{"beyond max leg", []*Spot{&mid}, "", nil},
		{"within max leg", []*Spot{&near}, "", []string{"near"}},
		{"deferred until anchor moves", []*Spot{&mid, &near}, "mid", []string{"near", "mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession(quietConfig(), 5, 3)
			if tt.must != "" {
				s.tc.MustVisit[tt.must] = struct{}{}
			}
			items, _ := s.visitBlock(context.Background(), w, w.Start, tt.pool, &origin, false)
			if len(items) != len(tt.want) {
				t.Fatalf("items = %+v, want %v", items, tt.want)
			}
			for i, id := range tt.want {
				if items[i].SpotID != id {
					t.Errorf("items[%d] = %s, want %s", i, items[i].SpotID, id)
				}
				if items[i].DistanceKm > 5 {
					t.Errorf("leg %s = %.2fkm exceeds max", id, items[i].DistanceKm)
				}
				if items[i].Order != i+1 {
					t.Errorf("order = %d, want %d", items[i].Order, i+1)
				}
			}
		})
	}
}

func TestVisitBlock_SkipsSelectedUnlessRelaxed(t *testing.T) {
	a := visitSpot("a", 0, 0)
	w := Window{Start: 540, End: 720}

	s := testSession(quietConfig(), 5, 3)
	s.markSelected(&a)
	if items, _ := s.visitBlock(context.Background(), w, w.Start, []*Spot{&a}, nil, false); len(items) != 0 {
		t.Errorf("selected spot scheduled again: %+v", items)
	}
	if items, _ := s.visitBlock(context.Background(), w, w.Start, []*Spot{&a}, nil, true); len(items) != 1 {
		t.Errorf("relaxed block = %+v, want the selected spot", items)
	}
}

func TestSchedule(t *testing.T) {
	cfg := quietConfig()
	w := Window{Start: 540, End: 720}

	tests := []struct {
		name      string
		spot      Spot
		cursor    int
		dist      float64
		ok        bool
		start     int
		end       int
		dwell     int
		travelMin int
	}{
		{"plain", Spot{DwellMinutes: 60}, 540, 0, true, 540, 600, 60, 0},
		{"travel", Spot{DwellMinutes: 60}, 540, 1, true, 552, 612, 60, 12},
		{"default dwell", Spot{}, 600, 0, true, 600, 660, 60, 0},
		{"wait for opening", Spot{DwellMinutes: 60, OpenMinute: intp(600)}, 540, 0, true, 600, 660, 60, 0},
		{"opens after window", Spot{DwellMinutes: 60, OpenMinute: intp(720)}, 540, 0, false, 0, 0, 0, 0},
		{"small overrun tolerated", Spot{DwellMinutes: 60}, 670, 0, true, 670, 730, 60, 0},
		{"shrunk to window end", Spot{DwellMinutes: 120}, 660, 0, true, 660, 720, 60, 0},
		{"shrunk too short", Spot{DwellMinutes: 120}, 700, 0, false, 0, 0, 0, 0},
		{"closes too early", Spot{DwellMinutes: 60, CloseMinute: intp(590)}, 540, 0, false, 0, 0, 0, 0},
		{"cursor past window", Spot{DwellMinutes: 30}, 720, 0, false, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSession(cfg, 5, 3)
			sp := tt.spot
			got, ok := s.schedule(&sp, w, tt.cursor, tt.dist)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (%+v)", ok, tt.ok, got)
			}
			if !ok {
				return
			}
			if got.start != tt.start || got.end != tt.end || got.dwell != tt.dwell || got.travel != tt.travelMin {
				t.Errorf("slot = start %d end %d dwell %d travel %d, want %d %d %d %d",
					got.start, got.end, got.dwell, got.travel, tt.start, tt.end, tt.dwell, tt.travelMin)
			}
		})
	}
}

func TestMealBlock(t *testing.T) {
	w := Window{Start: 720, End: 810}
	closed := foodSpot("closed", 0, 0)
	closed.OpenMinute, closed.CloseMinute = intp(1080), intp(1320)
	far := foodSpot("far", 0.09, 0)
	ok := foodSpot("ok", 0.001, 0)

	s := testSession(quietConfig(), 5, 3)
	anchor := visitSpot("anchor", 0, 0)
	items, last := s.mealBlock(context.Background(), w, w.Start, []*Spot{&closed, &far, &ok}, &anchor)
	if len(items) != 1 || items[0].SpotID != "ok" {
		t.Fatalf("items = %+v, want only ok", items)
	}
	if last.ID != "ok" {
		t.Errorf("anchor after meal = %s", last.ID)
	}

	s = testSession(quietConfig(), 5, 3)
	items, last = s.mealBlock(context.Background(), w, w.Start, []*Spot{&closed, &far}, &anchor)
	if len(items) != 0 || last != &anchor {
		t.Errorf("infeasible meal = %+v, anchor %v", items, last)
	}
}

func TestMealBlock_PreferredTags(t *testing.T) {
	w := Window{Start: 720, End: 810}
	plain := foodSpot("plain", 0, 0)
	ramen := foodSpot("ramen", 0, 0.001)
	ramen.Tags = []string{"Japanese"}

	for seed := int64(1); seed <= 5; seed++ {
		s := testSession(DefaultConfig(), 5, 3)
		s.rng = rand.New(rand.NewSource(seed))
		s.tc.Preferences.PreferTags = []string{"japanese"}
		items, _ := s.mealBlock(context.Background(), w, w.Start, []*Spot{&plain, &ramen}, nil)
		if len(items) != 1 || items[0].SpotID != "ramen" {
			t.Fatalf("seed %d: items = %+v, want ramen", seed, items)
		}
	}

	// 没有匹配偏好标签时退回全部餐厅
	s := testSession(DefaultConfig(), 5, 3)
	s.tc.Preferences.PreferTags = []string{"vegan"}
	if items, _ := s.mealBlock(context.Background(), w, w.Start, []*Spot{&plain}, nil); len(items) != 1 {
		t.Errorf("fallback meal = %+v", items)
	}
}
