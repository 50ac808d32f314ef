package itinerary

import "github.com/rushteam/tripkit/core"

// BlockItem 是时间段中排定的一项。
type BlockItem struct {
	Order         int           `json:"order"`
	Type          core.Category `json:"type"`
	SpotID        string        `json:"spot_id"`
	Name          string        `json:"name"`
	StartMinute   int           `json:"start_minute"`
	EndMinute     int           `json:"end_minute"`
	StartTime     string        `json:"start_time"`
	EndTime       string        `json:"end_time"`
	DwellMinutes  int           `json:"dwell_minutes"`
	DistanceKm    float64       `json:"distance_from_prev_km"`
	TravelMinutes int           `json:"travel_minutes"`
	Price         float64       `json:"price"`
	Image         string        `json:"image,omitempty"`
}

// Cost 是费用汇总。
type Cost struct {
	Attraction float64 `json:"attraction"`
	Food       float64 `json:"food"`
	Total      float64 `json:"total"`
}

// Add 累加另一份费用。
func (c Cost) Add(o Cost) Cost {
	return Cost{
		Attraction: c.Attraction + o.Attraction,
		Food:       c.Food + o.Food,
		Total:      c.Total + o.Total,
	}
}

// CostOf 按类型汇总各时间段中项目的价格。
func CostOf(blocks map[BlockName][]BlockItem) Cost {
	var c Cost
	for _, name := range BlockOrder {
		for _, it := range blocks[name] {
			switch it.Type {
			case core.CategoryVisit:
				c.Attraction += it.Price
			case core.CategoryEat:
				c.Food += it.Price
			}
		}
	}
	c.Total = c.Attraction + c.Food
	return c
}

// DayItinerary 是一天的安排。Blocks 总是包含全部五个时间段（未启用或为空时是空数组）。
type DayItinerary struct {
	Date   string                    `json:"date"`
	Blocks map[BlockName][]BlockItem `json:"blocks"`
	Cost   Cost                      `json:"cost"`
}

func newDay(date string) DayItinerary {
	blocks := make(map[BlockName][]BlockItem, len(BlockOrder))
	for _, name := range BlockOrder {
		blocks[name] = []BlockItem{}
	}
	return DayItinerary{Date: date, Blocks: blocks}
}

// Items 按时间段顺序返回当天全部项目。
func (d DayItinerary) Items() []BlockItem {
	var out []BlockItem
	for _, name := range BlockOrder {
		out = append(out, d.Blocks[name]...)
	}
	return out
}

// TripItinerary 是完整行程。
type TripItinerary struct {
	ID        string         `json:"id"`
	City      string         `json:"city"`
	StartDate string         `json:"start_date"`
	Days      int            `json:"days"`
	Nights    int            `json:"nights"`
	Schedule  []DayItinerary `json:"schedule"`
	Cost      Cost           `json:"cost"`
}
