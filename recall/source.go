package recall

import (
	"context"

	"github.com/rushteam/tripkit/core"
)

// Source 表示一个可复用的召回源（内容/协同/热度）。
// 可以把它理解为“可并发 fan-out 的信号单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

var (
	_ Source = (*ContentBased)(nil)
	_ Source = (*Collaborative)(nil)
	_ Source = (*Hot)(nil)
)
