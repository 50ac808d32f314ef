package recall

import (
	"context"
	"math"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/utils"
)

// 热度分各项权重
const (
	hotRatingWeight     = 0.4
	hotReviewWeight     = 0.3
	hotPopularityWeight = 0.3
)

// PopularityScore 计算地点热度分：
//
//	0.4·rating/5 + 0.3·min(reviews/100, 1) + 0.3·popularity/100
func PopularityScore(s core.PlaceStats) float64 {
	return hotRatingWeight*(s.Rating/5) +
		hotReviewWeight*math.Min(float64(s.ReviewCount)/100, 1) +
		hotPopularityWeight*(s.Popularity/100)
}

// Hot 是热度召回源：对目录中未被排除的地点计算热度分。
// 不依赖用户偏好，是冷启动时的兜底信号。
type Hot struct {
	Places []core.Recommendable
}

func (r *Hot) Name() string { return "recall.hot" }

// Recall 实现 Source
func (r *Hot) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		exclude map[string]struct{}
		want    core.Category
	)
	if rctx != nil {
		exclude = rctx.ExcludeSet()
		want = rctx.CategoryFilter
	}

	out := make([]*core.Item, 0, len(r.Places))
	for _, p := range r.Places {
		if _, skip := exclude[p.PlaceID()]; skip {
			continue
		}
		if want != core.CategoryUnknown && p.PlaceCategory() != want {
			continue
		}
		score := PopularityScore(p.PlaceStats())
		it := core.NewItem(p.PlaceID())
		it.Score = score
		it.Features["popularity_score"] = score
		it.Meta[core.MetaCategory] = p.PlaceCategory()
		it.Meta[core.MetaName] = p.PlaceName()
		it.PutLabel("recall_hot", utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// DefaultHotKey 热度榜在 Store 中的默认 key
const DefaultHotKey = "tripkit:hot"

// PublishPopularity 把地点热度分写入有序集合，供不加载模型的读取方直接取榜单。
func PublishPopularity(ctx context.Context, kv core.KeyValueStore, key string, places []core.Recommendable) error {
	if key == "" {
		key = DefaultHotKey
	}
	for _, p := range places {
		if err := kv.ZAdd(ctx, key, PopularityScore(p.PlaceStats()), p.PlaceID()); err != nil {
			return err
		}
	}
	return nil
}

// TopPopular 读取热度榜前 n 个地点（n <= 0 返回全部）。
func TopPopular(ctx context.Context, kv core.KeyValueStore, key string, n int) ([]Scored, error) {
	if key == "" {
		key = DefaultHotKey
	}
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	ids, err := kv.ZRange(ctx, key, 0, stop)
	if err != nil {
		return nil, err
	}
	out := make([]Scored, 0, len(ids))
	for _, id := range ids {
		score, err := kv.ZScore(ctx, key, id)
		if err != nil {
			return nil, err
		}
		out = append(out, Scored{ID: id, Score: score})
	}
	return out, nil
}
