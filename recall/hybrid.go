package recall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/tripkit/cache"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/filter"
	"github.com/rushteam/tripkit/metrics"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
	"github.com/rushteam/tripkit/rerank"
)

// Weights 是三路信号的融合权重。
type Weights struct {
	Content       float64 `koanf:"content" json:"content" validate:"gte=0"`
	Collaborative float64 `koanf:"collaborative" json:"collaborative" validate:"gte=0"`
	Popularity    float64 `koanf:"popularity" json:"popularity" validate:"gte=0"`
}

// DefaultWeights 内容与协同信号都存在时的默认权重
func DefaultWeights() Weights {
	return Weights{Content: 0.5, Collaborative: 0.3, Popularity: 0.2}
}

// 单路信号缺失时的权重
var (
	contentOnlyWeights = Weights{Content: 0.6, Collaborative: 0, Popularity: 0.4}
	collabOnlyWeights  = Weights{Content: 0, Collaborative: 0.6, Popularity: 0.4}
	popularityWeights  = Weights{Content: 0, Collaborative: 0, Popularity: 1}
)

// Explain label key
const (
	LabelScoreContent    = "score_content"
	LabelScoreCollab     = "score_collab"
	LabelScorePopularity = "score_popularity"
)

// Hybrid 是混合推荐器：融合内容、协同、热度三路信号。
//
// 流程：
//  1. Fanout 并发召回：内容（有偏好输入时）、协同（已知用户时）、热度（全部地点）
//  2. 每路分数独立 min-max 归一化到 [0,1]（全部相等或为空时取 0.5）
//  3. 按信号可用性选择权重并加权求和
//  4. 后处理 Pipeline：过滤 → 排序 → TopN
//
// 训练是一次性批处理；训练完成后的查询只读，并发安全。
// 唯一的共享可变状态是分数缓存，其写入是幂等的。
type Hybrid struct {
	mu sync.RWMutex

	logger  zerolog.Logger
	metrics *metrics.Metrics

	weights        Weights
	candidateLimit int
	seed           int64
	recallTimeout  time.Duration

	content *ContentBased
	collab  *Collaborative

	places     []core.Recommendable
	placeIndex map[string]core.Recommendable
	hasCollab  bool
	ready      bool

	cache *cache.ScoreCache
	post  *pipeline.Pipeline
}

// HybridOption 配置 Hybrid。
type HybridOption func(*Hybrid)

// WithLogger 注入 logger
func WithLogger(logger zerolog.Logger) HybridOption {
	return func(h *Hybrid) { h.logger = logger }
}

// WithMetrics 注入指标
func WithMetrics(m *metrics.Metrics) HybridOption {
	return func(h *Hybrid) { h.metrics = m }
}

// WithWeights 设置内容与协同都可用时的融合权重
func WithWeights(w Weights) HybridOption {
	return func(h *Hybrid) { h.weights = w }
}

// WithMaxFeatures 设置 TF-IDF 词表上限
func WithMaxFeatures(n int) HybridOption {
	return func(h *Hybrid) { h.content = NewContentBased(n) }
}

// WithFactors 设置 SVD 隐因子数
func WithFactors(n int) HybridOption {
	return func(h *Hybrid) { h.collab = NewCollaborative(n) }
}

// WithCandidateLimit 设置每路召回的候选上限
func WithCandidateLimit(n int) HybridOption {
	return func(h *Hybrid) { h.candidateLimit = n }
}

// WithSeed 设置协同过滤训练的随机种子
func WithSeed(seed int64) HybridOption {
	return func(h *Hybrid) { h.seed = seed }
}

// WithRecallTimeout 设置单路召回的超时，<= 0 不限制。超时的召回源按失败处理，其余源照常融合。
func WithRecallTimeout(d time.Duration) HybridOption {
	return func(h *Hybrid) { h.recallTimeout = d }
}

// WithScoreCache 使用外部分数缓存
func WithScoreCache(c *cache.ScoreCache) HybridOption {
	return func(h *Hybrid) { h.cache = c }
}

// WithPipeline 替换默认后处理 Pipeline
func WithPipeline(p *pipeline.Pipeline) HybridOption {
	return func(h *Hybrid) { h.post = p }
}

// NewHybrid 创建混合推荐器。
func NewHybrid(opts ...HybridOption) *Hybrid {
	h := &Hybrid{
		logger:         zerolog.Nop(),
		weights:        DefaultWeights(),
		candidateLimit: 100,
		seed:           42,
		content:        NewContentBased(0),
		collab:         NewCollaborative(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With().Str("component", "hybrid").Logger()
	if h.cache == nil {
		h.cache = cache.NewScoreCache(0, 0)
	}
	if h.post == nil {
		h.post = DefaultPostPipeline()
	}
	if h.post.Observer == nil && h.metrics != nil {
		h.post.Observer = h.metrics
	}
	for _, n := range h.post.Nodes {
		if fn, ok := n.(*filter.FilterNode); ok && fn.OnError == nil {
			fn.OnError = h.logFilterError
		}
	}
	h.content.CandidateLimit = h.candidateLimit
	h.collab.CandidateLimit = h.candidateLimit
	h.collab.Seed = h.seed
	return h
}

func (h *Hybrid) logFilterError(name string, item *core.Item, err error) {
	h.logger.Warn().Err(err).Str("filter", name).Str("place", item.ID).Msg("filter failed, item kept")
}

// DefaultPostPipeline 默认后处理：排除/类别过滤 → 按分数排序 → TopN（取 rctx.TopK）。
func DefaultPostPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "hybrid",
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.ExcludeFilter{},
				&filter.CategoryFilter{},
			}},
			&rerank.ScoreSort{},
			&rerank.TopNNode{},
		},
	}
}

// Fit 训练：内容模型总是训练；协同模型仅在交互非空时训练。
// 训练失败返回数据校验错误（core.IsDataValidation），由调用方决定是否降级。
func (h *Hybrid) Fit(ctx context.Context, places []core.Recommendable, interactions []core.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	if err := h.content.Fit(places); err != nil {
		return fmt.Errorf("fit content model: %w", err)
	}
	h.metrics.ModelFitted("content", time.Since(start))

	hasCollab := false
	if len(interactions) > 0 {
		collabStart := time.Now()
		if err := h.collab.Fit(interactions); err != nil {
			return fmt.Errorf("fit collaborative model: %w", err)
		}
		hasCollab = true
		h.metrics.ModelFitted("collaborative", time.Since(collabStart))
	} else {
		h.logger.Info().Msg("no interactions, collaborative model skipped")
	}

	h.install(places, hasCollab)
	h.metrics.ModelFitted("hybrid", time.Since(start))
	h.logger.Info().
		Int("places", len(places)).
		Int("interactions", len(interactions)).
		Int("components", h.collab.NumComponents()).
		Dur("elapsed", time.Since(start)).
		Msg("hybrid recommender fitted")
	return nil
}

func (h *Hybrid) install(places []core.Recommendable, hasCollab bool) {
	index := make(map[string]core.Recommendable, len(places))
	for _, p := range places {
		index[p.PlaceID()] = p
	}

	h.mu.Lock()
	h.places = places
	h.placeIndex = index
	h.hasCollab = hasCollab
	h.ready = true
	h.mu.Unlock()

	h.cache.Purge()
}

// Ready 是否已训练
func (h *Hybrid) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Places 返回训练语料
func (h *Hybrid) Places() []core.Recommendable {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.places
}

// Weights 返回配置的融合权重
func (h *Hybrid) Weights() Weights {
	return h.weights
}

// Content 返回内容模型
func (h *Hybrid) Content() *ContentBased { return h.content }

// Collaborative 返回协同模型；未训练协同时返回 nil。
func (h *Hybrid) Collaborative() *Collaborative {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.hasCollab {
		return nil
	}
	return h.collab
}

// Recommend 执行混合推荐，返回按最终分数降序的 Item，TopK <= 0 时返回全部。
// 每个 Item 带有 score_content / score_collab / score_popularity 解释 label。
func (h *Hybrid) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	h.mu.RLock()
	ready, places, hasCollab, index := h.ready, h.places, h.hasCollab, h.placeIndex
	h.mu.RUnlock()
	if !ready {
		return nil, core.ErrNotFitted
	}
	if rctx == nil {
		rctx = &core.RecommendContext{}
	}

	sources := []Source{&Hot{Places: places}}
	if rctx.HasContentSignal() {
		sources = append(sources, h.content)
	}
	if hasCollab && rctx.UserID != "" {
		sources = append(sources, h.collab)
	}
	fanout := &Fanout{
		Sources: sources,
		Timeout: h.recallTimeout,
		OnError: func(source string, err error) {
			h.logger.Warn().Err(err).Str("source", source).Msg("recall source failed")
		},
	}
	grouped, err := fanout.Collect(ctx, rctx)
	if err != nil {
		return nil, err
	}

	contentScores := Normalize(scoreMap(grouped[h.content.Name()]))
	collabScores := Normalize(scoreMap(grouped[h.collab.Name()]))
	popScores := Normalize(scoreMap(grouped[(&Hot{}).Name()]))
	w := ChooseWeights(h.weights, len(contentScores) > 0, len(collabScores) > 0)

	ids := make(map[string]struct{}, len(popScores))
	for _, m := range []map[string]float64{popScores, contentScores, collabScores} {
		for id := range m {
			ids[id] = struct{}{}
		}
	}

	items := make([]*core.Item, 0, len(ids))
	for _, id := range sortedKeys(ids) {
		p, ok := index[id]
		if !ok {
			continue
		}
		c, cf, pop := contentScores[id], collabScores[id], popScores[id]
		it := core.NewItem(id)
		it.Score = w.Content*c + w.Collaborative*cf + w.Popularity*pop
		it.Features[LabelScoreContent] = c
		it.Features[LabelScoreCollab] = cf
		it.Features[LabelScorePopularity] = pop
		it.Meta[core.MetaCategory] = p.PlaceCategory()
		it.Meta[core.MetaName] = p.PlaceName()
		it.PutLabel(LabelScoreContent, utils.ScoreLabel(c, "hybrid"))
		it.PutLabel(LabelScoreCollab, utils.ScoreLabel(cf, "hybrid"))
		it.PutLabel(LabelScorePopularity, utils.ScoreLabel(pop, "hybrid"))
		items = append(items, it)
	}

	return h.post.Run(ctx, rctx, items)
}

// PlaceScore 返回单个地点在给定偏好标签下的混合分数。
// 未训练、地点不存在或推荐失败时返回 0，从不报错。
// 结果按 (地点, 排序后的标签) 缓存；一次计算会顺带缓存同一标签下所有地点的分数。
func (h *Hybrid) PlaceScore(ctx context.Context, placeID string, preferredTags []string) float64 {
	if !h.Ready() {
		return 0
	}
	key := cache.Key(placeID, preferredTags)
	if v, ok := h.cache.Get(key); ok {
		h.metrics.CacheLookup(true)
		return v
	}
	h.metrics.CacheLookup(false)

	items, err := h.Recommend(ctx, &core.RecommendContext{
		Preferences: core.UserPreferences{PreferTags: preferredTags},
	})
	if err != nil {
		h.logger.Debug().Err(err).Str("place", placeID).Msg("place score unavailable")
		return 0
	}

	var score float64
	for _, it := range items {
		h.cache.Set(cache.Key(it.ID, preferredTags), it.Score)
		if it.ID == placeID {
			score = it.Score
		}
	}
	h.cache.Set(key, score)
	return score
}

// Score 是 PlaceScore 的别名，满足行程引擎的打分接口。
func (h *Hybrid) Score(ctx context.Context, placeID string, tags []string) float64 {
	return h.PlaceScore(ctx, placeID, tags)
}

// SimilarPlaces 返回与指定地点内容最相似的地点。
func (h *Hybrid) SimilarPlaces(id string, topK int) ([]Scored, error) {
	if !h.Ready() {
		return nil, core.ErrNotFitted
	}
	return h.content.SimilarPlaces(id, topK)
}

// ChooseWeights 按信号可用性选择权重：
//   - 内容 + 协同：configured
//   - 仅内容：0.6 / 0 / 0.4
//   - 仅协同：0 / 0.6 / 0.4
//   - 都没有：0 / 0 / 1
func ChooseWeights(configured Weights, hasContent, hasCollab bool) Weights {
	switch {
	case hasContent && hasCollab:
		return configured
	case hasContent:
		return contentOnlyWeights
	case hasCollab:
		return collabOnlyWeights
	default:
		return popularityWeights
	}
}

// Normalize 对分数做 min-max 归一化到 [0,1]。
// 全部相等（含只有一个元素）时每个值都取 0.5；空输入返回空 map。
func Normalize(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	first := true
	var lo, hi float64
	for _, v := range scores {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	for id, v := range scores {
		if span == 0 {
			out[id] = 0.5
			continue
		}
		out[id] = (v - lo) / span
	}
	return out
}

func scoreMap(items []*core.Item) map[string]float64 {
	m := make(map[string]float64, len(items))
	for _, it := range items {
		m[it.ID] = it.Score
	}
	return m
}
