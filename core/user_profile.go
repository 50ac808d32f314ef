package core

import (
	"sort"
	"strings"
	"time"
)

// UserPreferences 是用户在一次行程请求中声明的标签偏好。
//
//	维度        作用
//	PreferTags  内容召回 / 标签匹配打分
//	AvoidTags   候选过滤
type UserPreferences struct {
	PreferTags []string `json:"preferred_tags,omitempty" yaml:"preferred_tags"`
	AvoidTags  []string `json:"avoid_tags,omitempty" yaml:"avoid_tags"`
}

// NormalizeTags 小写、去空白、去重并排序；作为缓存 key 的一部分时顺序必须稳定。
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TagSet 把标签列表转成集合（已归一化）。
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range NormalizeTags(tags) {
		set[t] = struct{}{}
	}
	return set
}

// Interaction 是一条用户-地点交互记录（评分、收藏等），用于协同过滤训练。
type Interaction struct {
	UserID    string     `json:"user_id"`
	PlaceID   string     `json:"place_id"`
	Rating    float64    `json:"rating"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
