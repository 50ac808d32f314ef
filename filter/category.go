package filter

import (
	"context"

	"github.com/rushteam/tripkit/core"
)

// CategoryFilter 只保留指定类别的地点。
// Category 为 Unknown 时取 rctx.CategoryFilter；两者都为 Unknown 时不过滤。
type CategoryFilter struct {
	Category core.Category
}

func (f *CategoryFilter) Name() string {
	return "filter.category"
}

func (f *CategoryFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	want := f.Category
	if want == core.CategoryUnknown && rctx != nil {
		want = rctx.CategoryFilter
	}
	if want == core.CategoryUnknown {
		return false, nil
	}
	got, ok := item.Category()
	return !ok || got != want, nil
}
