package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pipeline"
)

// ScoreSort 按 Score 降序排序；分数相同按 ID 升序，保证输出稳定。
type ScoreSort struct{}

func (n *ScoreSort) Name() string {
	return "rank.score"
}

func (n *ScoreSort) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *ScoreSort) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}
