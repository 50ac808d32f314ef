package filter

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/store"
)

func place(id string, c core.Category, score float64) *core.Item {
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

func TestExcludeFilter(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	if err := s.Set(ctx, "blacklist", []byte(`["stored"]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "broken", []byte(`not json`)); err != nil {
		t.Fatal(err)
	}

	rctx := &core.RecommendContext{ExcludeIDs: []string{"request"}}
	tests := []struct {
		name   string
		filter *ExcludeFilter
		id     string
		want   bool
	}{
		{"static", NewExcludeFilter([]string{"static"}, nil, ""), "static", true},
		{"request", NewExcludeFilter(nil, nil, ""), "request", true},
		{"store", NewExcludeFilter(nil, s, "blacklist"), "stored", true},
		{"store miss", NewExcludeFilter(nil, s, "blacklist"), "other", false},
		{"missing key ignored", NewExcludeFilter(nil, s, "absent"), "stored", false},
		{"broken value ignored", NewExcludeFilter(nil, s, "broken"), "stored", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldFilter(ctx, rctx, core.NewItem(tt.id))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestCategoryFilter(t *testing.T) {
	ctx := context.Background()
	eat := place("bistro", core.CategoryEat, 0)
	noMeta := core.NewItem("bare")

	tests := []struct {
		name   string
		filter CategoryFilter
		rctx   *core.RecommendContext
		item   *core.Item
		want   bool
	}{
		{"no category", CategoryFilter{}, &core.RecommendContext{}, eat, false},
		{"explicit match", CategoryFilter{Category: core.CategoryEat}, nil, eat, false},
		{"explicit mismatch", CategoryFilter{Category: core.CategoryVisit}, nil, eat, true},
		{"from request", CategoryFilter{}, &core.RecommendContext{CategoryFilter: core.CategoryHotel}, eat, true},
		{"missing meta", CategoryFilter{Category: core.CategoryEat}, nil, noMeta, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldFilter(ctx, tt.rctx, tt.item)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ShouldFilter = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`item.meta.category == "eat" && item.score > 0.5`)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if drop, err := f.ShouldFilter(ctx, nil, place("a", core.CategoryEat, 0.9)); err != nil || drop {
		t.Errorf("matching item dropped: %v, %v", drop, err)
	}
	if drop, err := f.ShouldFilter(ctx, nil, place("b", core.CategoryVisit, 0.9)); err != nil || !drop {
		t.Errorf("non-matching item kept: %v, %v", drop, err)
	}

	if _, err := NewExprFilter("item.score +"); err == nil {
		t.Error("expected compile error")
	}
}

func TestFilterNode(t *testing.T) {
	failing := Func{Label: "failing", Fn: func(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
		return true, errors.New("boom")
	}}
	var failures []string
	n := &FilterNode{
		Filters: []Filter{
			failing,
			NewExcludeFilter([]string{"b"}, nil, ""),
			&CategoryFilter{Category: core.CategoryVisit},
		},
		OnError: func(name string, item *core.Item, _ error) {
			failures = append(failures, name+":"+item.ID)
		},
	}
	b := place("b", core.CategoryVisit, 0)
	items := []*core.Item{place("a", core.CategoryVisit, 0), b, nil, place("c", core.CategoryEat, 0)}

	out, err := n.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("ids = %v, want [a]", got)
	}
	if lbl := b.Labels[LabelFiltered]; lbl.Source != "filter.exclude" {
		t.Errorf("filtered label = %+v", lbl)
	}
	if want := []string{"failing:a", "failing:b", "failing:c"}; !reflect.DeepEqual(failures, want) {
		t.Errorf("failures = %v, want %v", failures, want)
	}

	empty := &FilterNode{}
	if out, _ := empty.Process(context.Background(), nil, items); len(out) != len(items) {
		t.Errorf("node without filters changed items")
	}
}
