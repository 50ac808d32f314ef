package filter

import (
	"context"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/utils"
)

// LabelFiltered 被剔除的 Item 上写入的 label，Source 为命中的过滤器名
const LabelFiltered = "filtered"

// FilterNode 依次应用 Filters，任一命中即剔除。
// 单个过滤器出错时视为未命中并回调 OnError，不中断推荐。
type FilterNode struct {
	Filters []Filter
	OnError func(filter string, item *core.Item, err error)
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if len(n.Filters) == 0 {
		return items, nil
	}
	out := items[:0:0]
	for _, item := range items {
		if item == nil {
			continue
		}
		if hit := n.firstHit(ctx, rctx, item); hit != "" {
			item.PutLabel(LabelFiltered, utils.Label{Value: "true", Source: hit})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (n *FilterNode) firstHit(ctx context.Context, rctx *core.RecommendContext, item *core.Item) string {
	for _, f := range n.Filters {
		drop, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			if n.OnError != nil {
				n.OnError(f.Name(), item, err)
			}
			continue
		}
		if drop {
			return f.Name()
		}
	}
	return ""
}
