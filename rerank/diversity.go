package rerank

import (
	"context"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
)

// Diversity 按类别限流：同一类别最多保留 MaxPerCategory 个（保持原有顺序）。
// 类别来源优先级：
// - label[LabelKey].Value
// - meta["category"]（core.Category 或 string）
type Diversity struct {
	LabelKey       string // 默认 "category"
	MaxPerCategory int    // <= 0 时视为 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = core.MetaCategory
	}
	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 8)
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil {
			continue
		}
		cate := categoryOf(it, key)
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return out, nil
}

func categoryOf(it *core.Item, key string) string {
	if it.Labels != nil {
		if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Meta == nil {
		return ""
	}
	switch v := it.Meta[key].(type) {
	case core.Category:
		return v.String()
	case string:
		return v
	}
	return ""
}
