package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rushteam/tripkit/core"
)

type dropNode struct {
	id string
}

func (n *dropNode) Name() string { return "test.drop" }
func (n *dropNode) Kind() Kind   { return KindFilter }
func (n *dropNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	out := items[:0]
	for _, it := range items {
		if it.ID != n.id {
			out = append(out, it)
		}
	}
	return out, nil
}

type failNode struct{}

func (failNode) Name() string { return "test.fail" }
func (failNode) Kind() Kind   { return KindRank }
func (failNode) Process(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
	return nil, errors.New("boom")
}

type recorder struct {
	calls []string
}

func (r *recorder) ObserveNode(pipeline string, node Node, _, _ int, _ time.Duration) {
	r.calls = append(r.calls, pipeline+"/"+node.Name())
}

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, len(ids))
	for i, id := range ids {
		out[i] = core.NewItem(id)
	}
	return out
}

func TestPipeline_Run(t *testing.T) {
	rec := &recorder{}
	p := &Pipeline{
		Name:     "test",
		Nodes:    []Node{&dropNode{id: "a"}, &dropNode{id: "c"}},
		Observer: rec,
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items("a", "b", "c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "b" {
		t.Errorf("out = %v", out)
	}
	if want := []string{"test/test.drop", "test/test.drop"}; !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("observer calls = %v", rec.calls)
	}
}

func TestPipeline_Errors(t *testing.T) {
	p := &Pipeline{Name: "test", Nodes: []Node{failNode{}}}
	if _, err := p.Run(context.Background(), nil, items("a")); err == nil {
		t.Error("expected node error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p = &Pipeline{Name: "test", Nodes: []Node{&dropNode{}}}
	if _, err := p.Run(ctx, nil, items("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: yaml
  nodes:
    - type: drop
      config: {id: b}
    - type: drop
`))
	if err != nil {
		t.Fatal(err)
	}
	f := NewNodeFactory()
	f.Register("drop", func(c map[string]any) (Node, error) {
		id, _ := c["id"].(string)
		return &dropNode{id: id}, nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "yaml" || len(p.Nodes) != 2 {
		t.Fatalf("pipeline = %+v", p)
	}
	out, err := p.Run(context.Background(), nil, items("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("out = %v", out)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "missing"})
	if _, err := cfg.BuildPipeline(f); err == nil {
		t.Error("expected unknown node type error")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json")
	yamlPath := filepath.Join(dir, "p.yaml")
	if err := os.WriteFile(jsonPath, []byte(`{"pipeline": {"name": "j", "nodes": [{"type": "rank.score"}]}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n  nodes:\n    - type: rerank.topn\n      config: {n: 3}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	j, err := LoadFromFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if j.Pipeline.Name != "j" || j.Pipeline.Nodes[0].Type != "rank.score" {
		t.Errorf("json config = %+v", j)
	}
	y, err := LoadFromFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if y.Pipeline.Name != "y" || y.Pipeline.Nodes[0].Config["n"] != 3 {
		t.Errorf("yaml config = %+v", y)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
