package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/tripkit/core"
)

// ExcludeFilter 过滤掉需要排除的地点。
// 排除来源：
//   - IDs：静态黑名单
//   - rctx.ExcludeIDs：请求级排除
//   - Store + Key：存储中的 JSON 数组（["p1","p2"]），读取失败时忽略
type ExcludeFilter struct {
	IDs   []string
	Store core.Store
	Key   string
}

// NewExcludeFilter 创建一个排除过滤器。
func NewExcludeFilter(ids []string, store core.Store, key string) *ExcludeFilter {
	return &ExcludeFilter{IDs: ids, Store: store, Key: key}
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.IDs {
		if item.ID == id {
			return true, nil
		}
	}
	if rctx != nil {
		for _, id := range rctx.ExcludeIDs {
			if item.ID == id {
				return true, nil
			}
		}
	}
	if f.Store != nil && f.Key != "" {
		ids, err := f.blacklist(ctx)
		if err == nil {
			for _, id := range ids {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (f *ExcludeFilter) blacklist(ctx context.Context) ([]string, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
