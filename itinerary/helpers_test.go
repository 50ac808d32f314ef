package itinerary

import (
	"fmt"

	"github.com/rushteam/tripkit/core"
)

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func visitSpot(id string, lat, lng float64) Spot {
	return Spot{
		ID:           id,
		Name:         "Visit " + id,
		Category:     core.CategoryVisit,
		City:         "paris",
		Lat:          lat,
		Lng:          lng,
		Price:        10,
		DwellMinutes: 60,
	}
}

func foodSpot(id string, lat, lng float64) Spot {
	return Spot{
		ID:           id,
		Name:         "Food " + id,
		Category:     core.CategoryEat,
		City:         "paris",
		Lat:          lat,
		Lng:          lng,
		Price:        20,
		DwellMinutes: 60,
	}
}

// grid 生成 n 个相距 100 米左右的地点，全部在 1.5km 范围内。
func grid(n int, prefix string, mk func(string, float64, float64) Spot) []Spot {
	out := make([]Spot, 0, n)
	for i := 0; i < n; i++ {
		lat := 48.85 + float64(i%10)*0.001
		lng := 2.35 + float64(i/10)*0.001
		out = append(out, mk(fmt.Sprintf("%s%02d", prefix, i), lat, lng))
	}
	return out
}

func spotIndex(lists ...[]Spot) map[string]Spot {
	idx := make(map[string]Spot)
	for _, l := range lists {
		for _, sp := range l {
			idx[sp.ID] = sp
		}
	}
	return idx
}

func onlyBlocks(names ...BlockName) map[BlockName]BlockRequest {
	on := make(map[BlockName]struct{}, len(names))
	for _, n := range names {
		on[n] = struct{}{}
	}
	blocks := make(map[BlockName]BlockRequest, len(BlockOrder))
	for _, n := range BlockOrder {
		if _, ok := on[n]; !ok {
			blocks[n] = BlockRequest{Enabled: boolp(false)}
		}
	}
	return blocks
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.VisitRandomness = 0
	cfg.MealRandomness = 0
	return cfg
}
