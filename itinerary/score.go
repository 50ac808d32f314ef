package itinerary

import (
	"context"
	"math"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/geo"
)

// MustVisitBonus 必去地点的加分，在随机扰动之前叠加，因此只保证优先而非必选。
const MustVisitBonus = 2.0

// distancePenaltyFloor 距离惩罚下限，远但其他方面优秀的地点不会被完全压制
const distancePenaltyFloor = 0.2

// Scorer 提供地点的个性化相关度分数（通常是 recall.Hybrid）。
// 实现不应返回错误；不可用时返回 0。
type Scorer interface {
	Score(ctx context.Context, placeID string, tags []string) float64
}

// ScorerFunc 把函数适配为 Scorer。
type ScorerFunc func(ctx context.Context, placeID string, tags []string) float64

func (f ScorerFunc) Score(ctx context.Context, placeID string, tags []string) float64 {
	return f(ctx, placeID, tags)
}

// 两套权重：有个性化分数时 / 没有时
var (
	aiWeights   = signalWeights{ai: 0.30, rating: 0.15, tag: 0.20, diversity: 0.15, distance: 0.20}
	baseWeights = signalWeights{rating: 0.25, popularity: 0.15, tag: 0.25, diversity: 0.15, distance: 0.20}
)

type signalWeights struct {
	ai, rating, popularity, tag, diversity, distance float64
}

// WeightInput 是地点打分所需的全部输入。
type WeightInput struct {
	Spot       *Spot
	AIScore    float64
	Preferred  []string
	MustVisit  map[string]struct{}
	Selected   []*Spot
	DistanceKm float64
	MaxLegKm   float64
}

// SpotWeight 计算随机扰动之前的地点权重。
//
//	AI > 0: 0.30·AI + 0.15·rating + 0.20·tag + 0.15·diversity + 0.20·distance + bonus
//	否则:   0.25·rating + 0.15·popularity + 0.25·tag + 0.15·diversity + 0.20·distance + bonus
func SpotWeight(in WeightInput) float64 {
	w := baseWeights
	if in.AIScore > 0 {
		w = aiWeights
	}
	score := w.ai*in.AIScore +
		w.rating*RatingScore(in.Spot) +
		w.popularity*PopularityScore(in.Spot) +
		w.tag*TagMatch(in.Spot.Tags, in.Preferred) +
		w.diversity*DiversityScore(in.Spot, in.Selected) +
		w.distance*DistancePenalty(in.DistanceKm, in.MaxLegKm)
	if _, ok := in.MustVisit[in.Spot.ID]; ok {
		score += MustVisitBonus
	}
	return score
}

// RatingScore rating/5，缺失评分按 3.0。
func RatingScore(s *Spot) float64 {
	return s.RatingOrDefault() / 5
}

// PopularityScore min(popularity/1000, 1)
func PopularityScore(s *Spot) float64 {
	return math.Min(s.Popularity/1000, 1)
}

// TagMatch |tags ∩ preferred| / max(|preferred|, 1)
func TagMatch(tags, preferred []string) float64 {
	pref := core.TagSet(preferred)
	if len(pref) == 0 {
		return 0
	}
	var hit int
	for t := range core.TagSet(tags) {
		if _, ok := pref[t]; ok {
			hit++
		}
	}
	return float64(hit) / float64(len(pref))
}

// DiversityScore min(到已选地点的平均距离 / 2km, 1)；尚未选择任何地点时为 1。
func DiversityScore(s *Spot, selected []*Spot) float64 {
	if len(selected) == 0 {
		return 1
	}
	var sum float64
	for _, o := range selected {
		sum += distance(s, o)
	}
	return math.Min(sum/float64(len(selected))/2, 1)
}

// DistancePenalty max(1 − d/maxLeg, 0.2)，随距离单调不增。
func DistancePenalty(d, maxLeg float64) float64 {
	if maxLeg <= 0 {
		if d <= 0 {
			return 1
		}
		return distancePenaltyFloor
	}
	return math.Max(1-d/maxLeg, distancePenaltyFloor)
}

// distance 两个地点之间的距离；任一为空时为 0。
func distance(a, b *Spot) float64 {
	if a == nil || b == nil {
		return 0
	}
	return geo.Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}
