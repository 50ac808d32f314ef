// Package builders 注册内置后处理 Node 的配置构建器。
//
//	import _ "github.com/rushteam/tripkit/config/builders"
package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/tripkit/config"
	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/filter"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/pkg/conv"
	"github.com/rushteam/tripkit/rerank"
)

func init() {
	config.Register("filter", BuildFilterNode)
	config.Register("rank.score", BuildScoreSortNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

var (
	blacklistMu    sync.RWMutex
	blacklistStore core.Store
)

// UseStore 设置 exclude 过滤器读取黑名单所用的存储；需在构建 Pipeline 之前调用。
func UseStore(s core.Store) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	blacklistStore = s
}

func currentStore() core.Store {
	blacklistMu.RLock()
	defer blacklistMu.RUnlock()
	return blacklistStore
}

// BuildFilterNode
//
//	type: filter
//	config:
//	  filters:
//	    - {type: exclude, ids: [p1], key: "tripkit:blacklist"}
//	    - {type: category, category: eat}
//	    - {type: expr, expr: 'item.score > 0.1'}
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "exclude":
			ids := conv.ConfigGetStrings(filterMap, "ids")
			key := conv.ConfigGet(filterMap, "key", "")
			var s core.Store
			if key != "" {
				s = currentStore()
			}
			filters = append(filters, filter.NewExcludeFilter(ids, s, key))
		case "category":
			var c core.Category
			if name := conv.ConfigGet(filterMap, "category", ""); name != "" {
				parsed, err := core.ParseCategory(name)
				if err != nil {
					return nil, err
				}
				c = parsed
			}
			filters = append(filters, &filter.CategoryFilter{Category: c})
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildScoreSortNode(map[string]any) (pipeline.Node, error) {
	return &rerank.ScoreSort{}, nil
}

// BuildTopNNode n 缺省时取请求的 TopK。
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must be >= 0, got %d", n)
	}
	return &rerank.TopNNode{N: n}, nil
}

func BuildDiversityNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:       conv.ConfigGet(cfg, "label_key", ""),
		MaxPerCategory: conv.ConfigGetInt(cfg, "max_per_category", 1),
	}, nil
}
