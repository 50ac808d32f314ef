package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/tripkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
		cel.Variable("spot", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发复用。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式返回 nil Program（恒为 true）。
//
// 可用变量：
//   - item / label / rctx：推荐链路中的 Item 与请求上下文
//   - spot：行程编排中的候选地点（id, name, category, rating, price, tags ...）
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Eval 执行表达式。nil Program 恒为 true。
func (p *Program) Eval(input map[string]any) (bool, error) {
	if p == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(input)
	if err != nil {
		// 访问不存在的 key 会报错，表达式里应先用 != null 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Eval 是 Label DSL 解释器，使用 CEL 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "content"
//   - 数值：item.score > 0.7
//   - 逻辑：item.meta.category == "eat" && item.score > 0.5
//   - 存在性：label.score_collab != null
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 编译并执行 DSL 表达式，返回布尔结果。
func (e *Eval) Evaluate(expr string) (bool, error) {
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return prg.Eval(ItemInput(e.item, e.rctx))
}

// ItemInput 构建 Item 相关表达式的输入数据
func ItemInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(it.Labels))
	labelAccessor := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = map[string]any{
			"value":  v.Value,
			"source": v.Source,
		}
		labelAccessor[k] = v.Value
	}

	meta := make(map[string]any, len(it.Meta))
	for k, v := range it.Meta {
		if c, ok := v.(core.Category); ok {
			meta[k] = c.String()
			continue
		}
		meta[k] = v
	}

	item := map[string]any{
		"id":       it.ID,
		"score":    it.Score,
		"features": it.Features,
		"meta":     meta,
		"labels":   labels,
	}

	ctx := map[string]any{}
	if rctx != nil {
		ctx["user_id"] = rctx.UserID
		ctx["preferred_tags"] = rctx.Preferences.PreferTags
		ctx["avoid_tags"] = rctx.Preferences.AvoidTags
		ctx["params"] = rctx.Params
	}

	return map[string]any{
		"item":  item,
		"label": labelAccessor,
		"rctx":  ctx,
		"spot":  map[string]any{},
	}
}
