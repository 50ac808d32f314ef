package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/tripkit/core"
)

// Observer 观测每个 Node 的输入输出规模与耗时。
type Observer interface {
	ObserveNode(pipeline string, node Node, in, out int, elapsed time.Duration)
}

// Pipeline 把推荐后处理逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Name     string
	Nodes    []Node
	Observer Observer
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: node %s: %w", p.Name, node.Name(), err)
		}
		if p.Observer != nil {
			p.Observer.ObserveNode(p.Name, node, len(cur), len(next), time.Since(start))
		}
		cur = next
	}
	return cur, nil
}
