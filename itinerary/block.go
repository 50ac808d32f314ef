package itinerary

import (
	"context"
	"math/rand"
	"sort"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/clock"
	"github.com/rushteam/tripkit/pkg/geo"
)

// session 是单次行程编排的可变状态，不跨请求共享。
type session struct {
	cfg    Config
	tc     *TripContext
	scorer Scorer
	rng    *rand.Rand

	// selected 整个行程中已选中的地点，参与多样性打分
	selected   []*Spot
	selectedID map[string]struct{}
	ai         map[string]float64
}

func newSession(cfg Config, tc *TripContext, scorer Scorer, rng *rand.Rand) *session {
	return &session{
		cfg:        cfg,
		tc:         tc,
		scorer:     scorer,
		rng:        rng,
		selectedID: make(map[string]struct{}),
		ai:         make(map[string]float64),
	}
}

// slot 是一个候选地点在当前游标下的排程结果。
type slot struct {
	spot   *Spot
	dist   float64
	travel int
	start  int
	end    int
	dwell  int
}

func (s slot) item(order int, typ core.Category) BlockItem {
	return BlockItem{
		Order:         order,
		Type:          typ,
		SpotID:        s.spot.ID,
		Name:          s.spot.Name,
		StartMinute:   s.start,
		EndMinute:     s.end,
		StartTime:     clock.FormatHHMM(s.start),
		EndTime:       clock.FormatHHMM(s.end),
		DwellMinutes:  s.dwell,
		DistanceKm:    s.dist,
		TravelMinutes: s.travel,
		Price:         s.spot.Price,
		Image:         s.spot.Image,
	}
}

// schedule 计算从 cursor 出发、路程 dist 公里后在 w 内安排 sp 的时间。
//
//   - 早于开门时间时顺延到开门
//   - 开始时间不早于时间窗结束
//   - 结束时间超出时间窗 OverrunTolerance 以上时，压缩停留到时间窗结束，压缩后不足 MinShrunkDwell 则放弃
//   - 结束时间不晚于关门时间
func (s *session) schedule(sp *Spot, w Window, cursor int, dist float64) (slot, bool) {
	travel := geo.TravelMinutes(dist)
	start := max(cursor+travel, w.Start)
	if sp.OpenMinute != nil && start < *sp.OpenMinute {
		start = *sp.OpenMinute
	}
	if start >= w.End {
		return slot{}, false
	}
	dwell := sp.DwellMinutes
	if dwell <= 0 {
		dwell = s.cfg.DefaultDwell
	}
	end := start + dwell
	if end > w.End+s.cfg.OverrunTolerance {
		shrunk := w.End - start
		if shrunk < s.cfg.MinShrunkDwell {
			return slot{}, false
		}
		dwell, end = shrunk, w.End
	}
	if sp.CloseMinute != nil && end > *sp.CloseMinute {
		return slot{}, false
	}
	return slot{spot: sp, dist: dist, travel: travel, start: start, end: end, dwell: dwell}, true
}

// aiScore 查询个性化分数，单次编排内缓存。
func (s *session) aiScore(ctx context.Context, sp *Spot) float64 {
	if s.scorer == nil {
		return 0
	}
	if v, ok := s.ai[sp.ID]; ok {
		return v
	}
	v := s.scorer.Score(ctx, sp.ID, s.tc.Preferences.PreferTags)
	if v < 0 {
		v = 0
	}
	s.ai[sp.ID] = v
	return v
}

// jitter 返回 U[1−r, 1+r] 的随机因子。
func (s *session) jitter(r float64) float64 {
	if r <= 0 {
		return 1
	}
	return 1 - r + 2*r*s.rng.Float64()
}

// rank 按 SpotWeight × 随机因子降序排列候选。
func (s *session) rank(ctx context.Context, pool []*Spot, anchor *Spot, randomness float64) []*Spot {
	type weighted struct {
		spot   *Spot
		weight float64
	}
	ws := make([]weighted, len(pool))
	for i, sp := range pool {
		base := SpotWeight(WeightInput{
			Spot:       sp,
			AIScore:    s.aiScore(ctx, sp),
			Preferred:  s.tc.Preferences.PreferTags,
			MustVisit:  s.tc.MustVisit,
			Selected:   s.selected,
			DistanceKm: distance(anchor, sp),
			MaxLegKm:   s.tc.MaxLegKm,
		})
		ws[i] = weighted{spot: sp, weight: base * s.jitter(randomness)}
	}
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].weight > ws[j].weight })

	out := make([]*Spot, len(ws))
	for i, w := range ws {
		out[i] = w.spot
	}
	return out
}

func (s *session) markSelected(sp *Spot) {
	s.selected = append(s.selected, sp)
	s.selectedID[sp.ID] = struct{}{}
}

// visitBlock 在时间窗内贪心排入景点，返回排定的项目和最后一个地点。
//
// 距离分两档：超过 ScanRelax × MaxLegKm 的候选在本时间段内直接放弃；
// 介于 MaxLegKm 与放宽阈值之间的候选暂缓，锚点移动后再尝试；
// 只有不超过 MaxLegKm 的候选会被接受。总尝试次数不超过候选数的 2 倍。
func (s *session) visitBlock(ctx context.Context, w Window, cursor int, pool []*Spot, anchor *Spot, relaxed bool) ([]BlockItem, *Spot) {
	candidates := make([]*Spot, 0, len(pool))
	for _, sp := range pool {
		if _, used := s.selectedID[sp.ID]; used && !relaxed {
			continue
		}
		candidates = append(candidates, sp)
	}
	if len(candidates) == 0 {
		return nil, anchor
	}

	pending := s.rank(ctx, candidates, anchor, s.cfg.VisitRandomness)
	maxLeg := s.tc.MaxLegKm
	scanLimit := maxLeg * s.cfg.ScanRelax
	attempts, maxAttempts := 0, 2*len(pending)

	var items []BlockItem
	last := anchor
	full := func() bool {
		return len(items) >= s.tc.MaxItemsPerBlock || cursor >= w.End || attempts >= maxAttempts
	}

	for len(pending) > 0 && !full() {
		var deferred []*Spot
		accepted := false
		for i, sp := range pending {
			if full() {
				deferred = append(deferred, pending[i:]...)
				break
			}
			attempts++

			d := distance(last, sp)
			if d > scanLimit {
				continue
			}
			if d > maxLeg {
				deferred = append(deferred, sp)
				continue
			}
			sl, ok := s.schedule(sp, w, cursor, d)
			if !ok {
				continue
			}
			items = append(items, sl.item(len(items)+1, core.CategoryVisit))
			s.markSelected(sp)
			cursor, last = sl.end, sp
			accepted = true
		}
		if !accepted {
			break
		}
		pending = deferred
	}
	return items, last
}

// mealBlock 安排一次用餐：
//  1. 按偏好标签筛选，没有匹配时使用全部餐厅
//  2. 只保留营业时间与时间窗有交集的
//  3. 按打分顺序收集最多 MealChoices 个在距离和时间上都可行的候选
//  4. 在收集到的候选中均匀随机选一个
//
// 没有可行候选时返回空，这是正常结果。
func (s *session) mealBlock(ctx context.Context, w Window, cursor int, pool []*Spot, anchor *Spot) ([]BlockItem, *Spot) {
	if s.tc.MaxItemsPerBlock <= 0 {
		return nil, anchor
	}
	matched := matchTags(pool, s.tc.Preferences.PreferTags)
	if len(matched) == 0 {
		matched = pool
	}
	open := make([]*Spot, 0, len(matched))
	for _, sp := range matched {
		if sp.openDuring(w.Start, w.End) {
			open = append(open, sp)
		}
	}
	if len(open) == 0 {
		return nil, anchor
	}

	var found []slot
	for _, sp := range s.rank(ctx, open, anchor, s.cfg.MealRandomness) {
		if len(found) >= s.cfg.MealChoices {
			break
		}
		d := distance(anchor, sp)
		if d > s.tc.MaxLegKm {
			continue
		}
		if sl, ok := s.schedule(sp, w, cursor, d); ok {
			found = append(found, sl)
		}
	}
	if len(found) == 0 {
		return nil, anchor
	}
	pick := found[s.rng.Intn(len(found))]
	s.markSelected(pick.spot)
	return []BlockItem{pick.item(1, core.CategoryEat)}, pick.spot
}

// matchTags 返回与偏好标签至少有一个交集的地点；没有偏好时返回 nil。
func matchTags(pool []*Spot, preferred []string) []*Spot {
	if len(preferred) == 0 {
		return nil
	}
	pref := core.TagSet(preferred)
	var out []*Spot
	for _, sp := range pool {
		for _, t := range core.NormalizeTags(sp.Tags) {
			if _, ok := pref[t]; ok {
				out = append(out, sp)
				break
			}
		}
	}
	return out
}
