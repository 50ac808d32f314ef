package rerank

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/utils"
)

func scored(id string, score float64, c core.Category) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Meta[core.MetaCategory] = c
	return it
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestScoreSort(t *testing.T) {
	items := []*core.Item{
		scored("b", 0.5, core.CategoryVisit),
		scored("c", 0.9, core.CategoryVisit),
		scored("a", 0.5, core.CategoryEat),
	}
	out, err := (&ScoreSort{}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("ids = %v, want [c a b]", got)
	}
}

func TestTopNNode(t *testing.T) {
	items := func() []*core.Item {
		return []*core.Item{
			scored("a", 3, core.CategoryVisit),
			scored("b", 2, core.CategoryVisit),
			scored("c", 1, core.CategoryVisit),
		}
	}
	tests := []struct {
		name string
		n    int
		rctx *core.RecommendContext
		want []string
	}{
		{"explicit", 2, &core.RecommendContext{TopK: 1}, []string{"a", "b"}},
		{"from request", 0, &core.RecommendContext{TopK: 1}, []string{"a"}},
		{"no limit", 0, nil, []string{"a", "b", "c"}},
		{"larger than input", 10, nil, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), tt.rctx, items())
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversity(t *testing.T) {
	labeled := scored("d", 0.6, core.CategoryVisit)
	labeled.PutLabel("area", utils.Label{Value: "north", Source: "rule"})
	bare := core.NewItem("x")

	items := []*core.Item{
		scored("a", 0.9, core.CategoryVisit),
		scored("b", 0.8, core.CategoryVisit),
		scored("c", 0.7, core.CategoryEat),
		labeled,
		bare,
		scored("e", 0.5, core.CategoryEat),
	}

	out, err := (&Diversity{}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !reflect.DeepEqual(got, []string{"a", "c", "x"}) {
		t.Errorf("default = %v, want [a c x]", got)
	}

	out, err = (&Diversity{MaxPerCategory: 2}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !reflect.DeepEqual(got, []string{"a", "b", "c", "x", "e"}) {
		t.Errorf("max 2 = %v", got)
	}

	out, err = (&Diversity{LabelKey: "area"}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(items) {
		t.Errorf("label key without matches should keep items, got %v", ids(out))
	}
}
