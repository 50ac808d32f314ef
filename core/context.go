package core

// RecommendContext 承载一次推荐请求的用户/偏好信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserID 为空表示匿名请求，不走协同过滤
	UserID string

	// Preferences 是请求级标签偏好
	Preferences UserPreferences

	// PreferCategories 偏好的地点类别，参与内容画像构建（×2 权重）
	PreferCategories []Category

	// LikedIDs 用户历史喜欢的地点，画像取其向量均值
	LikedIDs []string

	// ExcludeIDs 需要排除的地点
	ExcludeIDs []string

	// CategoryFilter 非 Unknown 时只返回该类别
	CategoryFilter Category

	// TopK 最终返回条数
	TopK int

	// Params 请求级扩展参数
	Params map[string]any
}

// HasContentSignal 是否有可用于内容召回的输入。
func (rctx *RecommendContext) HasContentSignal() bool {
	return len(rctx.Preferences.PreferTags) > 0 || len(rctx.PreferCategories) > 0 || len(rctx.LikedIDs) > 0
}

// ExcludeSet 返回排除集合。
func (rctx *RecommendContext) ExcludeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(rctx.ExcludeIDs))
	for _, id := range rctx.ExcludeIDs {
		set[id] = struct{}{}
	}
	return set
}
