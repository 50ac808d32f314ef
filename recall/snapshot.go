package recall

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/rushteam/tripkit/core"
)

// SnapshotVersion 快照格式版本
const SnapshotVersion = 1

// DefaultModelKey 模型快照在 Store 中的默认 key
const DefaultModelKey = "tripkit:model:hybrid"

// PlaceRecord 是快照中的地点记录，实现 core.Recommendable。
type PlaceRecord struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Category    core.Category `json:"category"`
	Tags        []string      `json:"tags,omitempty"`
	Summary     string        `json:"summary,omitempty"`
	Rating      float64       `json:"rating"`
	ReviewCount int           `json:"review_count"`
	Popularity  float64       `json:"popularity"`
}

func (p *PlaceRecord) PlaceID() string              { return p.ID }
func (p *PlaceRecord) PlaceName() string            { return p.Name }
func (p *PlaceRecord) PlaceCategory() core.Category { return p.Category }
func (p *PlaceRecord) PlaceTags() []string          { return p.Tags }
func (p *PlaceRecord) PlaceSummary() string         { return p.Summary }
func (p *PlaceRecord) PlaceStats() core.PlaceStats {
	return core.PlaceStats{Rating: p.Rating, ReviewCount: p.ReviewCount, Popularity: p.Popularity}
}

// RecordOf 把任意 Recommendable 转为快照记录。
func RecordOf(p core.Recommendable) *PlaceRecord {
	if r, ok := p.(*PlaceRecord); ok {
		return r
	}
	s := p.PlaceStats()
	return &PlaceRecord{
		ID:          p.PlaceID(),
		Name:        p.PlaceName(),
		Category:    p.PlaceCategory(),
		Tags:        append([]string(nil), p.PlaceTags()...),
		Summary:     p.PlaceSummary(),
		Rating:      s.Rating,
		ReviewCount: s.ReviewCount,
		Popularity:  s.Popularity,
	}
}

// ModelSnapshot 是混合推荐器的完整训练产物，作为一个整体读写。
// 地点向量可由词表重建，不单独存储。
type ModelSnapshot struct {
	Version       int                 `json:"version"`
	ID            string              `json:"id"`
	CreatedAt     time.Time           `json:"created_at"`
	Weights       Weights             `json:"weights"`
	Vectorizer    *TfidfVectorizer    `json:"vectorizer"`
	Places        []*PlaceRecord      `json:"places"`
	Collaborative *CollaborativeState `json:"collaborative,omitempty"`
}

// Snapshot 导出当前训练状态。
func (h *Hybrid) Snapshot() (*ModelSnapshot, error) {
	if !h.Ready() {
		return nil, core.ErrNotFitted
	}
	places := h.Places()
	records := make([]*PlaceRecord, len(places))
	for i, p := range places {
		records[i] = RecordOf(p)
	}
	snap := &ModelSnapshot{
		Version:    SnapshotVersion,
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Weights:    h.weights,
		Vectorizer: h.content.Vectorizer(),
		Places:     records,
	}
	if c := h.Collaborative(); c != nil {
		snap.Collaborative = c.State()
	}
	return snap, nil
}

// Restore 从快照恢复训练状态，不重新学习。
func (h *Hybrid) Restore(snap *ModelSnapshot) error {
	if snap == nil {
		return core.ErrNotFitted
	}
	if snap.Version != SnapshotVersion {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidData,
			fmt.Sprintf("recommend: unsupported snapshot version %d", snap.Version))
	}
	places := make([]core.Recommendable, len(snap.Places))
	for i, p := range snap.Places {
		places[i] = p
	}
	if err := h.content.restore(snap.Vectorizer, places); err != nil {
		return fmt.Errorf("restore content model: %w", err)
	}
	hasCollab := false
	if snap.Collaborative != nil {
		if err := h.collab.Restore(snap.Collaborative); err != nil {
			return fmt.Errorf("restore collaborative model: %w", err)
		}
		hasCollab = true
	}
	h.install(places, hasCollab)
	h.logger.Info().
		Str("snapshot", snap.ID).
		Int("places", len(places)).
		Bool("collaborative", hasCollab).
		Msg("hybrid recommender restored")
	return nil
}

// SaveModel 把训练产物序列化后写入单个 key，读取方要么看到完整的新模型，要么看到旧模型。
func SaveModel(ctx context.Context, s core.Store, key string, h *Hybrid) (*ModelSnapshot, error) {
	snap, err := h.Snapshot()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode model snapshot: %w", err)
	}
	if key == "" {
		key = DefaultModelKey
	}
	if err := s.Set(ctx, key, data); err != nil {
		return nil, fmt.Errorf("save model snapshot: %w", err)
	}
	return snap, nil
}

// LoadModel 从 Store 读取快照并恢复一个可直接使用的 Hybrid。
func LoadModel(ctx context.Context, s core.Store, key string, opts ...HybridOption) (*Hybrid, error) {
	if key == "" {
		key = DefaultModelKey
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load model snapshot: %w", err)
	}
	var snap ModelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode model snapshot: %w", err)
	}
	h := NewHybrid(append([]HybridOption{WithWeights(snap.Weights)}, opts...)...)
	if err := h.Restore(&snap); err != nil {
		return nil, err
	}
	return h, nil
}
