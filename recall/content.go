package recall

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/utils"
)

// 文档中各字段的重复次数（字段权重）
const (
	tagRepeat      = 3
	categoryRepeat = 2
)

// 画像融合比例：喜欢的地点均值向量 : 标签/类别向量
const (
	likedBlend = 0.6
	tagBlend   = 0.4
)

// Scored 是一个带分数的地点 ID。
type Scored struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// PlaceVector 是内容模型中单个地点的向量表示。
type PlaceVector struct {
	ID       string
	Name     string
	Vector   SparseVector
	Tags     []string
	Category core.Category
}

// ContentBased 是基于内容的推荐模型（TF-IDF + 余弦相似度）。
//
// 核心思想："用户喜欢具有某些标签/类别的地点，推荐文本特征相近的其他地点"
//
// 文档构建（字段按重要性重复）：
//   - 标签 ×3
//   - 类别 ×2
//   - 简介 ×1
//   - 名称 ×1
//
// 工程特征：
//   - 实时性：好（离线训练，在线向量点积）
//   - 冷启动：好（只需标签偏好即可推荐）
//   - 可解释性：强
//
// 训练后状态只读，并发查询安全。
type ContentBased struct {
	mu         sync.RWMutex
	vectorizer *TfidfVectorizer
	vectors    []PlaceVector
	index      map[string]int

	// CandidateLimit 作为召回源时的返回上限
	CandidateLimit int
}

// NewContentBased 创建内容模型，maxFeatures 为词表上限。
func NewContentBased(maxFeatures int) *ContentBased {
	return &ContentBased{
		vectorizer:     NewTfidfVectorizer(maxFeatures),
		CandidateLimit: 100,
	}
}

// Document 按字段权重拼接地点文档。
func Document(p core.Recommendable) string {
	var b strings.Builder
	tags := strings.Join(p.PlaceTags(), " ")
	for i := 0; i < tagRepeat; i++ {
		b.WriteString(tags)
		b.WriteByte(' ')
	}
	if c := p.PlaceCategory(); c.Valid() {
		for i := 0; i < categoryRepeat; i++ {
			b.WriteString(c.String())
			b.WriteByte(' ')
		}
	}
	b.WriteString(p.PlaceSummary())
	b.WriteByte(' ')
	b.WriteString(p.PlaceName())
	return b.String()
}

// Fit 在地点语料上训练。空语料或全部为空文档时返回 core.ErrEmptyCorpus。
func (m *ContentBased) Fit(places []core.Recommendable) error {
	docs := make([]string, len(places))
	for i, p := range places {
		docs[i] = Document(p)
	}

	vectorizer := NewTfidfVectorizer(m.maxFeatures())
	vecs, err := vectorizer.FitTransform(docs)
	if err != nil {
		return err
	}
	m.install(vectorizer, places, vecs)
	return nil
}

// restore 用已学习的词表重建地点向量，不重新学习 idf。
func (m *ContentBased) restore(vectorizer *TfidfVectorizer, places []core.Recommendable) error {
	if err := vectorizer.Validate(); err != nil {
		return err
	}
	vecs := make([]SparseVector, len(places))
	for i, p := range places {
		v, err := vectorizer.Transform(Document(p))
		if err != nil {
			return err
		}
		vecs[i] = v
	}
	m.install(vectorizer, places, vecs)
	return nil
}

func (m *ContentBased) install(vectorizer *TfidfVectorizer, places []core.Recommendable, vecs []SparseVector) {
	vectors := make([]PlaceVector, len(places))
	index := make(map[string]int, len(places))
	for i, p := range places {
		vectors[i] = PlaceVector{
			ID:       p.PlaceID(),
			Name:     p.PlaceName(),
			Vector:   vecs[i],
			Tags:     append([]string(nil), p.PlaceTags()...),
			Category: p.PlaceCategory(),
		}
		index[p.PlaceID()] = i
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorizer = vectorizer
	m.vectors = vectors
	m.index = index
}

func (m *ContentBased) maxFeatures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.vectorizer != nil {
		return m.vectorizer.MaxFeatures
	}
	return 0
}

// Fitted 是否已训练
func (m *ContentBased) Fitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors) > 0 && m.vectorizer.Fitted()
}

// Vectorizer 返回当前词表（用于持久化）。
func (m *ContentBased) Vectorizer() *TfidfVectorizer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vectorizer
}

// Vector 返回地点向量。
func (m *ContentBased) Vector(id string) (PlaceVector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return PlaceVector{}, false
	}
	return m.vectors[i], true
}

// ProfileVector 由偏好标签、偏好类别和喜欢的地点合成用户画像向量。
//   - 标签 ×3、类别 ×2 组成伪文档向量化
//   - 喜欢的地点取向量均值（不存在的 ID 忽略）
//   - 两者都有时按 0.6 × 喜欢 + 0.4 × 标签 融合
func (m *ContentBased) ProfileVector(tags []string, categories []core.Category, likedIDs []string) (SparseVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.vectors) == 0 || !m.vectorizer.Fitted() {
		return SparseVector{}, core.ErrNotFitted
	}

	var (
		tagVec SparseVector
		hasTag bool
	)
	if len(tags) > 0 || len(categories) > 0 {
		var b strings.Builder
		joined := strings.Join(tags, " ")
		for i := 0; i < tagRepeat && joined != ""; i++ {
			b.WriteString(joined)
			b.WriteByte(' ')
		}
		for _, c := range categories {
			for i := 0; i < categoryRepeat; i++ {
				b.WriteString(c.String())
				b.WriteByte(' ')
			}
		}
		v, err := m.vectorizer.Transform(b.String())
		if err != nil {
			return SparseVector{}, err
		}
		tagVec, hasTag = v, true
	}

	liked := make([]SparseVector, 0, len(likedIDs))
	for _, id := range likedIDs {
		if i, ok := m.index[id]; ok {
			liked = append(liked, m.vectors[i].Vector)
		}
	}

	switch {
	case len(liked) > 0 && hasTag:
		return Mean(liked).Scale(likedBlend).Add(tagVec.Scale(tagBlend)), nil
	case len(liked) > 0:
		return Mean(liked), nil
	default:
		return tagVec, nil
	}
}

// Recommend 按与画像的余弦相似度排序，排除 excludeIDs 和非 categoryFilter 类别，
// 返回前 topK 个（topK <= 0 返回全部）。
func (m *ContentBased) Recommend(profile SparseVector, topK int, excludeIDs []string, categoryFilter core.Category) ([]Scored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.vectors) == 0 {
		return nil, core.ErrNotFitted
	}

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	out := make([]Scored, 0, len(m.vectors))
	for _, pv := range m.vectors {
		if _, skip := exclude[pv.ID]; skip {
			continue
		}
		if categoryFilter != core.CategoryUnknown && pv.Category != categoryFilter {
			continue
		}
		out = append(out, Scored{ID: pv.ID, Score: profile.Cosine(pv.Vector)})
	}
	return topScored(out, topK), nil
}

// SimilarPlaces 返回与指定地点最相似的地点（不含自身）。
func (m *ContentBased) SimilarPlaces(id string, topK int) ([]Scored, error) {
	pv, ok := m.Vector(id)
	if !ok {
		if !m.Fitted() {
			return nil, core.ErrNotFitted
		}
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: place "+id+" not found")
	}
	return m.Recommend(pv.Vector, topK, []string{id}, core.CategoryUnknown)
}

func (m *ContentBased) Name() string { return "recall.content" }

// Recall 实现 Source：请求中没有任何偏好输入时不召回。
func (m *ContentBased) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rctx == nil || !rctx.HasContentSignal() {
		return nil, nil
	}
	profile, err := m.ProfileVector(rctx.Preferences.PreferTags, rctx.PreferCategories, rctx.LikedIDs)
	if err != nil {
		return nil, err
	}
	scored, err := m.Recommend(profile, m.CandidateLimit, rctx.ExcludeIDs, rctx.CategoryFilter)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.Features["content_score"] = s.Score
		it.PutLabel("recall_content", utils.Label{Value: "cosine", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// topScored 按分数降序（分数相同按 ID 升序）取前 k 个。
func topScored(s []Scored, k int) []Scored {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ID < s[j].ID
	})
	if k > 0 && len(s) > k {
		s = s[:k]
	}
	return s
}
