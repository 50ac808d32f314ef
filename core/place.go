package core

import (
	"fmt"
	"strings"
)

// Category 是地点类别，封闭枚举：visit / eat / hotel。
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryVisit            // 景点、活动
	CategoryEat              // 餐饮
	CategoryHotel            // 住宿
)

func (c Category) String() string {
	switch c {
	case CategoryVisit:
		return "visit"
	case CategoryEat:
		return "eat"
	case CategoryHotel:
		return "hotel"
	default:
		return "unknown"
	}
}

// Valid 返回类别是否为已知取值。
func (c Category) Valid() bool {
	return c >= CategoryVisit && c <= CategoryHotel
}

// ParseCategory 解析类别字符串（大小写不敏感）。
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visit":
		return CategoryVisit, nil
	case "eat", "food":
		return CategoryEat, nil
	case "hotel":
		return CategoryHotel, nil
	default:
		return CategoryUnknown, fmt.Errorf("unknown category %q", s)
	}
}

// MarshalText 未设置的类别编码为空串。
func (c Category) MarshalText() ([]byte, error) {
	if c == CategoryUnknown {
		return []byte{}, nil
	}
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", c)
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = CategoryUnknown
		return nil
	}
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PlaceStats 是热度打分所需的统计信号。
type PlaceStats struct {
	Rating      float64 // 0-5
	ReviewCount int
	Popularity  float64 // 0-100（热度分）
}

// Recommendable 是所有可推荐地点实体的能力接口。
// 内容模型、热度模型只通过该接口读取地点属性，不关心具体实体类型。
type Recommendable interface {
	PlaceID() string
	PlaceName() string
	PlaceCategory() Category
	PlaceTags() []string
	PlaceSummary() string
	PlaceStats() PlaceStats
}

// Attraction 是景点实体。
type Attraction struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Popularity  float64  `json:"popularity"`
}

func (a *Attraction) PlaceID() string         { return a.ID }
func (a *Attraction) PlaceName() string       { return a.Name }
func (a *Attraction) PlaceCategory() Category { return CategoryVisit }
func (a *Attraction) PlaceTags() []string     { return a.Tags }
func (a *Attraction) PlaceSummary() string    { return a.Description }
func (a *Attraction) PlaceStats() PlaceStats {
	return PlaceStats{Rating: a.Rating, ReviewCount: a.ReviewCount, Popularity: a.Popularity}
}

// Restaurant 是餐饮实体。
type Restaurant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Cuisine     string   `json:"cuisine,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Popularity  float64  `json:"popularity"`
}

func (r *Restaurant) PlaceID() string         { return r.ID }
func (r *Restaurant) PlaceName() string       { return r.Name }
func (r *Restaurant) PlaceCategory() Category { return CategoryEat }
func (r *Restaurant) PlaceTags() []string     { return r.Tags }

// PlaceSummary 把菜系拼到描述前面，菜系词在内容模型里也有区分度。
func (r *Restaurant) PlaceSummary() string {
	if r.Cuisine == "" {
		return r.Description
	}
	return strings.TrimSpace(r.Cuisine + " " + r.Description)
}

func (r *Restaurant) PlaceStats() PlaceStats {
	return PlaceStats{Rating: r.Rating, ReviewCount: r.ReviewCount, Popularity: r.Popularity}
}

// Hotel 是住宿实体。
type Hotel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Stars       int      `json:"stars,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Popularity  float64  `json:"popularity"`
}

func (h *Hotel) PlaceID() string         { return h.ID }
func (h *Hotel) PlaceName() string       { return h.Name }
func (h *Hotel) PlaceCategory() Category { return CategoryHotel }
func (h *Hotel) PlaceTags() []string     { return h.Tags }
func (h *Hotel) PlaceSummary() string    { return h.Description }
func (h *Hotel) PlaceStats() PlaceStats {
	return PlaceStats{Rating: h.Rating, ReviewCount: h.ReviewCount, Popularity: h.Popularity}
}

var (
	_ Recommendable = (*Attraction)(nil)
	_ Recommendable = (*Restaurant)(nil)
	_ Recommendable = (*Hotel)(nil)
)
