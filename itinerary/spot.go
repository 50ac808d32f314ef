package itinerary

import (
	"strings"

	"github.com/rushteam/tripkit/core"
)

// defaultRating 缺少评分时使用的默认值
const defaultRating = 3.0

// Spot 是可直接用于排程的地点快照，由候选提供方生成后只读。
//
// 营业时间以当天零点起的分钟数表示，nil 表示未知（不做约束）。
// 缺少坐标时按 (0,0) 处理，距离约束会因此失效，需要在上游保证数据质量。
type Spot struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Category     core.Category `json:"category"`
	City         string        `json:"city,omitempty"`
	Lat          float64       `json:"lat"`
	Lng          float64       `json:"lng"`
	OpenMinute   *int          `json:"open_minute,omitempty"`
	CloseMinute  *int          `json:"close_minute,omitempty"`
	Rating       *float64      `json:"rating,omitempty"`
	ReviewCount  int           `json:"review_count,omitempty"`
	Popularity   float64       `json:"popularity,omitempty"`
	Price        float64       `json:"price,omitempty"`
	DwellMinutes int           `json:"dwell_minutes,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Image        string        `json:"image,omitempty"`
	Summary      string        `json:"summary,omitempty"`
}

func (s *Spot) PlaceID() string              { return s.ID }
func (s *Spot) PlaceName() string            { return s.Name }
func (s *Spot) PlaceCategory() core.Category { return s.Category }
func (s *Spot) PlaceTags() []string          { return s.Tags }
func (s *Spot) PlaceSummary() string         { return s.Summary }

func (s *Spot) PlaceStats() core.PlaceStats {
	var rating float64
	if s.Rating != nil {
		rating = *s.Rating
	}
	return core.PlaceStats{Rating: rating, ReviewCount: s.ReviewCount, Popularity: s.Popularity}
}

var _ core.Recommendable = (*Spot)(nil)

// RatingOrDefault 返回评分，缺失时取 3.0。
func (s *Spot) RatingOrDefault() float64 {
	if s.Rating == nil {
		return defaultRating
	}
	return *s.Rating
}

// nameKey 跨天去重使用的名称 key：同一地点在不同查询中 ID 可能不同，按名称判断。
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// filterInput 构建 CEL 表达式中 spot 变量的取值。未知的营业时间为 -1。
func (s *Spot) filterInput() map[string]any {
	open, closing := int64(-1), int64(-1)
	if s.OpenMinute != nil {
		open = int64(*s.OpenMinute)
	}
	if s.CloseMinute != nil {
		closing = int64(*s.CloseMinute)
	}
	tags := core.NormalizeTags(s.Tags)
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":         s.ID,
		"name":       s.Name,
		"category":   s.Category.String(),
		"city":       s.City,
		"lat":        s.Lat,
		"lng":        s.Lng,
		"open":       open,
		"close":      closing,
		"rating":     s.RatingOrDefault(),
		"reviews":    int64(s.ReviewCount),
		"popularity": s.Popularity,
		"price":      s.Price,
		"dwell":      int64(s.DwellMinutes),
		"tags":       tags,
	}
}

// openDuring 营业时间与 [start, end) 是否有交集。
func (s *Spot) openDuring(start, end int) bool {
	if s.OpenMinute != nil && *s.OpenMinute >= end {
		return false
	}
	if s.CloseMinute != nil && *s.CloseMinute <= start {
		return false
	}
	return true
}
