// Package itinerary 把候选地点编排为按天、按时间段的行程。
//
// 一次编排分为三层：
//
//	Trip  逐天构建，跨天按名称去重，候选耗尽时放宽
//	Day   按 morning → lunch → afternoon → dinner → evening 顺序填充，上一段的最后地点作为下一段的锚点
//	Block 景点段贪心排入多个地点，用餐段从可行候选中随机选一个
//
// 除请求校验外，编排过程不会因数据问题失败：排不进任何地点的时间段输出空数组。
package itinerary

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/metrics"
)

// Engine 行程编排引擎。Engine 本身无状态，可并发调用；每次编排使用独立的随机数生成器。
type Engine struct {
	cfg     Config
	scorer  Scorer
	logger  zerolog.Logger
	metrics *metrics.Metrics

	seed    int64
	srcMu   sync.Mutex
	src     rand.Source
	idMaker func() string
}

// Option 配置 Engine。
type Option func(*Engine)

// WithConfig 替换默认配置
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithScorer 注入个性化打分（通常是已训练的 recall.Hybrid）
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithLogger 注入 logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics 注入指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithSeed 每次编排都使用固定种子，相同输入得到相同行程。
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithRandSource 从 src 派生每次编排的种子。src 由 Engine 加锁访问。
func WithRandSource(src rand.Source) Option {
	return func(e *Engine) { e.src = src }
}

// NewEngine 创建编排引擎。
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		cfg:     DefaultConfig(),
		logger:  zerolog.Nop(),
		idMaker: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.seed == 0 {
		e.seed = e.cfg.Seed
	}
	e.logger = e.logger.With().Str("component", "itinerary").Logger()
	return e
}

// Config 返回当前配置。
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) newRand() *rand.Rand {
	switch {
	case e.src != nil:
		e.srcMu.Lock()
		seed := e.src.Int63()
		e.srcMu.Unlock()
		return rand.New(rand.NewSource(seed))
	case e.seed != 0:
		return rand.New(rand.NewSource(e.seed))
	default:
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

// Plan 从 provider 获取城市的候选地点后编排行程。
func (e *Engine) Plan(ctx context.Context, provider CandidateProvider, req ItineraryRequest) (*TripItinerary, error) {
	visit, food, err := provider.Candidates(ctx, req.City)
	if err != nil {
		e.metrics.TripBuilt(err, 0)
		return nil, fmt.Errorf("itinerary: load candidates for %q: %w", req.City, err)
	}
	return e.BuildTripItinerary(ctx, req, visit, food)
}

// BuildTripItinerary 用给定的景点与餐厅候选编排行程。
//
// 请求不合法时返回 core.IsInvalidInput 错误；ctx 取消时返回 ctx.Err()。
// 候选不足不是错误，只会产生空的时间段。
func (e *Engine) BuildTripItinerary(ctx context.Context, req ItineraryRequest, visit, food []Spot) (trip *TripItinerary, err error) {
	begin := time.Now()
	defer func() { e.metrics.TripBuilt(err, time.Since(begin)) }()

	tc, err := BuildTripContext(req, e.cfg)
	if err != nil {
		return nil, err
	}
	visitPool := e.preparePool(tc, visit)
	foodPool := e.preparePool(tc, food)

	s := newSession(e.cfg, tc, e.scorer, e.newRand())
	trip = &TripItinerary{
		ID:        e.idMaker(),
		City:      tc.City,
		StartDate: tc.Date.Format(DateLayout),
		Days:      tc.Days,
		Nights:    max(tc.Days-1, 0),
		Schedule:  make([]DayItinerary, 0, tc.Days),
	}

	usedVisit := make(map[string]struct{})
	usedFood := make(map[string]struct{})
	for i := 0; i < tc.Days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := tc.Date.AddDate(0, 0, i).Format(DateLayout)

		dayVisit, relaxed := e.excludeNames(visitPool, usedVisit, date, "visit")
		dayFood, _ := e.excludeNames(foodPool, usedFood, date, "eat")

		day, err := e.buildDay(ctx, s, date, dayVisit, dayFood, relaxed)
		if err != nil {
			return nil, err
		}
		dedupDay(&day)
		day.Cost = CostOf(day.Blocks)

		for _, it := range day.Items() {
			if it.Type == core.CategoryEat {
				usedFood[nameKey(it.Name)] = struct{}{}
			} else {
				usedVisit[nameKey(it.Name)] = struct{}{}
			}
		}
		trip.Schedule = append(trip.Schedule, day)
		trip.Cost = trip.Cost.Add(day.Cost)
	}

	e.logger.Info().
		Str("trip_id", trip.ID).
		Str("city", trip.City).
		Int("days", trip.Days).
		Int("visit_pool", len(visitPool)).
		Int("food_pool", len(foodPool)).
		Float64("total_cost", trip.Cost.Total).
		Dur("elapsed", time.Since(begin)).
		Msg("trip built")
	return trip, nil
}

// buildDay 按时间段顺序编排一天。未启用的时间段保持空数组，且不移动锚点。
func (e *Engine) buildDay(ctx context.Context, s *session, date string, visit, food []*Spot, relaxed bool) (DayItinerary, error) {
	day := newDay(date)
	usedToday := make(map[string]struct{})
	var anchor *Spot
	cursor := 0

	for _, name := range BlockOrder {
		if err := ctx.Err(); err != nil {
			return day, err
		}
		w := s.tc.Windows[name]
		if w == nil {
			continue
		}
		start := max(cursor, w.Start)

		var items []BlockItem
		if name.IsMeal() {
			items, anchor = s.mealBlock(ctx, *w, start, without(food, usedToday), anchor)
		} else {
			items, anchor = s.visitBlock(ctx, *w, start, without(visit, usedToday), anchor, relaxed)
		}
		if len(items) == 0 {
			e.metrics.EmptyBlock(string(name))
			e.logger.Debug().Str("date", date).Str("block", string(name)).Msg("block is empty")
			continue
		}
		for _, it := range items {
			usedToday[it.SpotID] = struct{}{}
		}
		cursor = items[len(items)-1].EndMinute
		day.Blocks[name] = items
	}
	return day, nil
}

// excludeNames 去掉之前几天已经用过名称的地点。全部被排除时退回完整候选池（软降级）。
func (e *Engine) excludeNames(pool []*Spot, used map[string]struct{}, date, kind string) ([]*Spot, bool) {
	if len(used) == 0 {
		return pool, false
	}
	out := make([]*Spot, 0, len(pool))
	for _, sp := range pool {
		if _, ok := used[nameKey(sp.Name)]; !ok {
			out = append(out, sp)
		}
	}
	if len(out) == 0 && len(pool) > 0 {
		e.metrics.SoftDegradation(kind)
		e.logger.Warn().Str("date", date).Str("kind", kind).Int("pool", len(pool)).
			Msg("all candidates used on previous days, allowing repeats")
		return pool, true
	}
	return out, false
}

// preparePool 应用请求级过滤：规避 ID、规避标签、CEL 表达式，并按 ID 去重。
func (e *Engine) preparePool(tc *TripContext, spots []Spot) []*Spot {
	avoidTags := core.TagSet(tc.Preferences.AvoidTags)
	seen := make(map[string]struct{}, len(spots))
	out := make([]*Spot, 0, len(spots))
	for i := range spots {
		sp := &spots[i]
		if sp.ID == "" {
			continue
		}
		if _, dup := seen[sp.ID]; dup {
			continue
		}
		if _, avoid := tc.Avoid[sp.ID]; avoid {
			continue
		}
		if hasAny(sp.Tags, avoidTags) {
			continue
		}
		if tc.Filter != nil {
			ok, err := tc.Filter.Eval(map[string]any{"spot": sp.filterInput()})
			if err != nil {
				e.logger.Debug().Err(err).Str("spot", sp.ID).Msg("filter evaluation failed, dropping spot")
				continue
			}
			if !ok {
				continue
			}
		}
		seen[sp.ID] = struct{}{}
		out = append(out, sp)
	}
	return out
}

// dedupDay 同一天内按 (类型, 名称) 去重，保留先出现的项目，并重新编号。
func dedupDay(day *DayItinerary) {
	type key struct {
		typ  core.Category
		name string
	}
	seen := make(map[key]struct{})
	for _, name := range BlockOrder {
		items := day.Blocks[name]
		kept := items[:0]
		for _, it := range items {
			k := key{typ: it.Type, name: nameKey(it.Name)}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			it.Order = len(kept) + 1
			kept = append(kept, it)
		}
		day.Blocks[name] = kept
	}
}

func without(pool []*Spot, ids map[string]struct{}) []*Spot {
	if len(ids) == 0 {
		return pool
	}
	out := make([]*Spot, 0, len(pool))
	for _, sp := range pool {
		if _, ok := ids[sp.ID]; !ok {
			out = append(out, sp)
		}
	}
	return out
}

func hasAny(tags []string, set map[string]struct{}) bool {
	if len(set) == 0 {
		return false
	}
	for _, t := range core.NormalizeTags(tags) {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
