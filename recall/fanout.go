package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/utils"
)

// LabelRecallSource 记录物品来自哪个召回源
const LabelRecallSource = "recall_source"

// Fanout 并发执行多个召回源，按源名称分组返回结果。
// 单个召回源出错或超时只会让该源结果为空，不中断其他召回源。
type Fanout struct {
	Sources []Source
	Timeout time.Duration // 每个召回源的超时时间，<= 0 不限制

	// OnError 召回源出错时回调（可选，用于日志）
	OnError func(source string, err error)
}

// Collect 并发执行全部召回源，返回 源名称 -> 召回结果。
func (n *Fanout) Collect(ctx context.Context, rctx *core.RecommendContext) (map[string][]*core.Item, error) {
	out := make(map[string][]*core.Item, len(n.Sources))
	if len(n.Sources) == 0 {
		return out, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)

	var errMu sync.Mutex
	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.OnError != nil {
					errMu.Lock()
					n.OnError(src.Name(), err)
					errMu.Unlock()
				}
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel(LabelRecallSource, utils.Label{Value: src.Name(), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, src := range n.Sources {
		if len(results[i]) > 0 {
			out[src.Name()] = append(out[src.Name()], results[i]...)
		}
	}
	return out, nil
}
