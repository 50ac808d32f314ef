package recall

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/utils"
)

// Collaborative 是基于截断 SVD 的协同过滤模型。
//
// 核心思想：把用户×地点交互矩阵分解为用户隐因子与地点隐因子，
// 预测分数 = 用户隐因子 · 地点隐因子
//
// 工程特征：
//   - 实时性：好（离线训练，在线向量点积）
//   - 冷启动：差（未知用户回退为因子幅值热度）
//   - 可解释性：弱
//
// 隐因子数 k = min(Factors, min(用户数, 地点数) − 1)，下限为 1。
type Collaborative struct {
	mu sync.RWMutex

	// Factors 配置的隐因子数
	Factors int

	// Seed 初始化子空间的随机种子，保证训练可复现
	Seed int64

	// CandidateLimit 作为召回源时的返回上限
	CandidateLimit int

	userIndex   map[string]int
	itemIDs     []string
	userFactors [][]float64
	itemFactors [][]float64
}

// NewCollaborative 创建协同过滤模型。
func NewCollaborative(factors int) *Collaborative {
	if factors <= 0 {
		factors = 50
	}
	return &Collaborative{Factors: factors, Seed: 42, CandidateLimit: 100}
}

// CollaborativeState 是训练结果的可序列化快照（隐因子 + ID 映射）。
type CollaborativeState struct {
	Components  int         `json:"components"`
	UserIDs     []string    `json:"user_ids"`
	ItemIDs     []string    `json:"item_ids"`
	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
}

// Fit 在交互数据上训练。没有交互时返回 core.ErrNoInteractions。
// 同一 (用户, 地点) 出现多次时以最后一条评分为准。
func (m *Collaborative) Fit(interactions []core.Interaction) error {
	if len(interactions) == 0 {
		return core.ErrNoInteractions
	}

	userIndex := make(map[string]int)
	itemIndex := make(map[string]int)
	var userIDs, itemIDs []string
	for _, it := range interactions {
		if _, ok := userIndex[it.UserID]; !ok {
			userIndex[it.UserID] = len(userIDs)
			userIDs = append(userIDs, it.UserID)
		}
		if _, ok := itemIndex[it.PlaceID]; !ok {
			itemIndex[it.PlaceID] = len(itemIDs)
			itemIDs = append(itemIDs, it.PlaceID)
		}
	}

	matrix := make([][]float64, len(userIDs))
	for i := range matrix {
		matrix[i] = make([]float64, len(itemIDs))
	}
	for _, it := range interactions {
		matrix[userIndex[it.UserID]][itemIndex[it.PlaceID]] = it.Rating
	}

	k := Components(m.Factors, len(userIDs), len(itemIDs))
	rng := rand.New(rand.NewSource(m.Seed))
	userFactors, itemFactors := truncatedSVD(matrix, k, rng)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIndex = userIndex
	m.itemIDs = itemIDs
	m.userFactors = userFactors
	m.itemFactors = itemFactors
	return nil
}

// Components 计算隐因子数：min(factors, min(users, items) − 1)，下限为 1。
func Components(factors, users, items int) int {
	k := min(factors, min(users, items)-1)
	if k < 1 {
		k = 1
	}
	return k
}

// Fitted 是否已训练
func (m *Collaborative) Fitted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.itemFactors) > 0
}

// HasUser 用户是否出现在训练数据中
func (m *Collaborative) HasUser(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.userIndex[userID]
	return ok
}

// NumComponents 返回实际使用的隐因子数，未训练时为 0。
func (m *Collaborative) NumComponents() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.itemFactors) == 0 {
		return 0
	}
	return len(m.itemFactors[0])
}

// RecommendForUser 为用户推荐地点。
//   - 已知用户：用户隐因子与全部地点隐因子做点积，降序
//   - 未知用户：按地点隐因子绝对值之和降序（热度代理）
func (m *Collaborative) RecommendForUser(userID string, topK int, excludeIDs []string) ([]Scored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.itemFactors) == 0 {
		return nil, core.ErrNotFitted
	}

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}

	ui, known := m.userIndex[userID]
	out := make([]Scored, 0, len(m.itemIDs))
	for j, id := range m.itemIDs {
		if _, skip := exclude[id]; skip {
			continue
		}
		var score float64
		if known {
			for f, x := range m.userFactors[ui] {
				score += x * m.itemFactors[j][f]
			}
		} else {
			for _, x := range m.itemFactors[j] {
				score += math.Abs(x)
			}
		}
		out = append(out, Scored{ID: id, Score: score})
	}
	return topScored(out, topK), nil
}

// State 导出训练结果快照。
func (m *Collaborative) State() *CollaborativeState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.itemFactors) == 0 {
		return nil
	}
	userIDs := make([]string, len(m.userIndex))
	for id, i := range m.userIndex {
		userIDs[i] = id
	}
	return &CollaborativeState{
		Components:  len(m.itemFactors[0]),
		UserIDs:     userIDs,
		ItemIDs:     append([]string(nil), m.itemIDs...),
		UserFactors: m.userFactors,
		ItemFactors: m.itemFactors,
	}
}

// Restore 从快照恢复，校验维度一致性。
func (m *Collaborative) Restore(st *CollaborativeState) error {
	if st == nil || len(st.ItemIDs) == 0 {
		return core.ErrNotFitted
	}
	if len(st.UserIDs) != len(st.UserFactors) || len(st.ItemIDs) != len(st.ItemFactors) {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidData, "recommend: collaborative snapshot shape mismatch")
	}
	for _, rows := range [][][]float64{st.UserFactors, st.ItemFactors} {
		for _, row := range rows {
			if len(row) != st.Components {
				return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidData, "recommend: collaborative snapshot factor size mismatch")
			}
		}
	}

	userIndex := make(map[string]int, len(st.UserIDs))
	for i, id := range st.UserIDs {
		userIndex[id] = i
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.userIndex = userIndex
	m.itemIDs = append([]string(nil), st.ItemIDs...)
	m.userFactors = st.UserFactors
	m.itemFactors = st.ItemFactors
	return nil
}

func (m *Collaborative) Name() string { return "recall.collaborative" }

// Recall 实现 Source：只为训练数据中出现过的用户召回。
func (m *Collaborative) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rctx == nil || rctx.UserID == "" || !m.HasUser(rctx.UserID) {
		return nil, nil
	}
	scored, err := m.RecommendForUser(rctx.UserID, m.CandidateLimit, rctx.ExcludeIDs)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.Features["collab_score"] = s.Score
		it.PutLabel("recall_collab", utils.Label{Value: "svd", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// sortedKeys 返回 map 的有序 key，保证输出稳定。
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
