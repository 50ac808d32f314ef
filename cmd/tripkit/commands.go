package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/tripkit/cache"
	"github.com/rushteam/tripkit/config"
	"github.com/rushteam/tripkit/config/builders"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/itinerary"
	"github.com/rushteam/tripkit/recall"
	"github.com/rushteam/tripkit/store"
)

// TrainCmd 训练混合推荐器并写入存储；同时发布热度榜与按城市分组的候选地点。
type TrainCmd struct {
	Places       string `help:"Places JSON file." type:"existingfile" required:""`
	Interactions string `help:"User-place interactions JSON file." type:"existingfile"`
}

func (c *TrainCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(0)
	defer cancel()

	data, err := os.ReadFile(c.Places)
	if err != nil {
		return fmt.Errorf("read places: %w", err)
	}
	spots, err := itinerary.DecodeSpots(data)
	if err != nil {
		return err
	}
	places := make([]core.Recommendable, len(spots))
	for i := range spots {
		places[i] = &spots[i]
	}

	var interactions []core.Interaction
	if c.Interactions != "" {
		data, err := os.ReadFile(c.Interactions)
		if err != nil {
			return fmt.Errorf("read interactions: %w", err)
		}
		if err := json.Unmarshal(data, &interactions); err != nil {
			return fmt.Errorf("decode interactions: %w", err)
		}
	}

	h, err := ctx.newHybrid()
	if err != nil {
		return err
	}
	if err := h.Fit(cctx, places, interactions); err != nil {
		return err
	}
	snap, err := recall.SaveModel(cctx, ctx.Store, ctx.Config.Store.ModelKey, h)
	if err != nil {
		return err
	}

	kv, err := store.KeyValue(ctx.Store)
	switch {
	case err == nil:
		if err := recall.PublishPopularity(cctx, kv, recall.DefaultHotKey, places); err != nil {
			return fmt.Errorf("publish popularity: %w", err)
		}
	case core.IsStoreNotSupported(err):
		ctx.Logger.Debug().Err(err).Msg("popularity board skipped")
	default:
		return err
	}

	cities, err := itinerary.SaveSpotsByCity(cctx, ctx.Store, spots)
	if err != nil {
		return err
	}

	ctx.Logger.Info().
		Str("snapshot", snap.ID).
		Int("places", len(places)).
		Int("interactions", len(interactions)).
		Int("cities", cities).
		Msg("model trained")
	return printJSON(ctx, map[string]any{
		"snapshot":     snap.ID,
		"places":       len(places),
		"interactions": len(interactions),
		"cities":       cities,
	})
}

// PlanCmd 编排行程。--spots 为空时从存储读取 train 写入的候选地点。
type PlanCmd struct {
	Request string `help:"Itinerary request file (JSON or YAML)." type:"existingfile" required:""`
	Spots   string `help:"Places JSON file; defaults to the spots saved by train." type:"existingfile"`
	Seed    int64  `help:"Random seed; 0 uses the configured seed."`
}

func (c *PlanCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(ctx.Config.Recommender.Timeout)
	defer cancel()

	req, err := readRequest(c.Request)
	if err != nil {
		return err
	}

	opts := []itinerary.Option{
		itinerary.WithConfig(ctx.Config.Itinerary),
		itinerary.WithLogger(ctx.Logger),
		itinerary.WithMetrics(ctx.Metrics),
	}
	if c.Seed != 0 {
		opts = append(opts, itinerary.WithSeed(c.Seed))
	}
	h, err := ctx.loadHybrid(cctx)
	switch {
	case err == nil:
		opts = append(opts, itinerary.WithScorer(h))
	case core.IsNotFound(err):
		ctx.Logger.Warn().Msg("no trained model found, planning without personalization")
	default:
		return err
	}

	var provider itinerary.CandidateProvider = itinerary.StoreProvider{Store: ctx.Store}
	if c.Spots != "" {
		provider = itinerary.FileProvider{Path: c.Spots}
	}

	trip, err := itinerary.NewEngine(opts...).Plan(cctx, provider, req)
	if err != nil {
		return err
	}
	return printJSON(ctx, trip)
}

// RecommendCmd 输出混合推荐结果及各路分数。
type RecommendCmd struct {
	User       string   `help:"User id for collaborative scores."`
	Tags       []string `help:"Preferred tags." sep:","`
	Categories []string `help:"Preferred categories (visit, eat, hotel); boosts the content profile." sep:","`
	Liked      []string `help:"Place ids the user liked." sep:","`
	Exclude    []string `help:"Place ids to exclude." sep:","`
	Category   string   `help:"Only return this category (visit, eat, hotel)."`
	Top        int      `help:"Number of results; 0 uses the configured top_k."`
}

type recommendation struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Score         float64 `json:"score"`
	Content       float64 `json:"score_content"`
	Collaborative float64 `json:"score_collab"`
	Popularity    float64 `json:"score_popularity"`
}

func (c *RecommendCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(ctx.Config.Recommender.Timeout)
	defer cancel()

	rctx := &core.RecommendContext{
		UserID:      c.User,
		Preferences: core.UserPreferences{PreferTags: c.Tags},
		LikedIDs:    c.Liked,
		ExcludeIDs:  c.Exclude,
		TopK:        c.Top,
	}
	if rctx.TopK <= 0 {
		rctx.TopK = ctx.Config.Recommender.TopK
	}
	for _, name := range c.Categories {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return err
		}
		rctx.PreferCategories = append(rctx.PreferCategories, cat)
	}
	if c.Category != "" {
		cat, err := core.ParseCategory(c.Category)
		if err != nil {
			return err
		}
		rctx.CategoryFilter = cat
	}

	h, err := ctx.loadHybrid(cctx)
	if err != nil {
		return err
	}
	items, err := h.Recommend(cctx, rctx)
	if err != nil {
		return err
	}
	out := make([]recommendation, 0, len(items))
	for _, it := range items {
		r := recommendation{
			ID:            it.ID,
			Score:         it.Score,
			Content:       it.Features[recall.LabelScoreContent],
			Collaborative: it.Features[recall.LabelScoreCollab],
			Popularity:    it.Features[recall.LabelScorePopularity],
		}
		if name, ok := it.Meta[core.MetaName].(string); ok {
			r.Name = name
		}
		if cat, ok := it.Category(); ok {
			r.Category = cat.String()
		}
		out = append(out, r)
	}
	return printJSON(ctx, out)
}

type ScoreCmd struct {
	Place string   `help:"Place id." required:""`
	Tags  []string `help:"Preferred tags." sep:","`
}

func (c *ScoreCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(ctx.Config.Recommender.Timeout)
	defer cancel()

	h, err := ctx.loadHybrid(cctx)
	if err != nil {
		return err
	}
	return printJSON(ctx, recall.Scored{ID: c.Place, Score: h.PlaceScore(cctx, c.Place, c.Tags)})
}

type SimilarCmd struct {
	Place string `help:"Place id." required:""`
	Top   int    `help:"Number of results." default:"10"`
}

func (c *SimilarCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(ctx.Config.Recommender.Timeout)
	defer cancel()

	h, err := ctx.loadHybrid(cctx)
	if err != nil {
		return err
	}
	similar, err := h.SimilarPlaces(c.Place, c.Top)
	if err != nil {
		return err
	}
	return printJSON(ctx, similar)
}

// TopCmd 热度榜。存储支持有序集合时直接读取 train 发布的榜单，否则由模型计算。
type TopCmd struct {
	N int `help:"Number of results." default:"10"`
}

func (c *TopCmd) Run(ctx *Context) error {
	cctx, cancel := commandContext(ctx.Config.Recommender.Timeout)
	defer cancel()

	if kv, err := store.KeyValue(ctx.Store); err == nil {
		top, err := recall.TopPopular(cctx, kv, recall.DefaultHotKey, c.N)
		if err != nil {
			return err
		}
		if len(top) > 0 {
			return printJSON(ctx, top)
		}
	}

	h, err := ctx.loadHybrid(cctx)
	if err != nil {
		return err
	}
	items, err := h.Recommend(cctx, &core.RecommendContext{TopK: c.N})
	if err != nil {
		return err
	}
	top := make([]recall.Scored, len(items))
	for i, it := range items {
		top[i] = recall.Scored{ID: it.ID, Score: it.Features[recall.LabelScorePopularity]}
	}
	return printJSON(ctx, top)
}

// hybridOptions 按配置组装推荐器选项。
func (c *Context) hybridOptions() ([]recall.HybridOption, error) {
	rc := c.Config.Recommender
	opts := []recall.HybridOption{
		recall.WithLogger(c.Logger),
		recall.WithMetrics(c.Metrics),
		recall.WithWeights(rc.Weights),
		recall.WithMaxFeatures(rc.MaxFeatures),
		recall.WithFactors(rc.Factors),
		recall.WithCandidateLimit(rc.CandidateLimit),
		recall.WithSeed(rc.Seed),
		recall.WithRecallTimeout(rc.RecallTimeout),
		recall.WithScoreCache(cache.NewScoreCache(c.Config.Cache.Size, c.Config.Cache.TTL)),
	}
	if rc.PipelinePath != "" {
		builders.UseStore(c.Store)
		p, err := config.LoadPipeline(rc.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", rc.PipelinePath, err)
		}
		opts = append(opts, recall.WithPipeline(p))
	}
	return opts, nil
}

func (c *Context) newHybrid() (*recall.Hybrid, error) {
	opts, err := c.hybridOptions()
	if err != nil {
		return nil, err
	}
	return recall.NewHybrid(opts...), nil
}

// loadHybrid 读取 train 保存的模型。快照中的权重会被配置覆盖。
func (c *Context) loadHybrid(ctx context.Context) (*recall.Hybrid, error) {
	opts, err := c.hybridOptions()
	if err != nil {
		return nil, err
	}
	h, err := recall.LoadModel(ctx, c.Store, c.Config.Store.ModelKey, opts...)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, fmt.Errorf("no trained model under %q, run train first: %w", c.Config.Store.ModelKey, err)
		}
		return nil, err
	}
	return h, nil
}

// readRequest 按扩展名解析 YAML 或 JSON 请求。
func readRequest(path string) (itinerary.ItineraryRequest, error) {
	var req itinerary.ItineraryRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read request: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return req, core.NewDomainError(core.ModuleItinerary, core.ErrorCodeInvalidInput,
			fmt.Sprintf("decode request %s: %v", path, err))
	}
	return req, nil
}

func printJSON(ctx *Context, v any) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
