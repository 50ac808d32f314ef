package recall

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/tripkit/core"
)

func fittedContent(t *testing.T) *ContentBased {
	t.Helper()
	m := NewContentBased(0)
	if err := m.Fit(testPlaces()); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return m
}

func TestDocument_FieldWeights(t *testing.T) {
	doc := Document(&core.Attraction{ID: "x", Name: "Tower", Description: "tall", Tags: []string{"view"}})
	counts := map[string]int{}
	for _, term := range analyze(doc) {
		counts[term]++
	}
	if counts["view"] != 3 || counts["visit"] != 2 || counts["tall"] != 1 || counts["tower"] != 1 {
		t.Errorf("unexpected term counts: %v", counts)
	}
}

func TestContentBased_Recommend(t *testing.T) {
	m := fittedContent(t)

	profile, err := m.ProfileVector([]string{"art", "museum"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Recommend(profile, 3, nil, core.CategoryUnknown)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	top2 := ids(got[:2])
	if !contains(top2, "louvre") || !contains(top2, "orsay") {
		t.Errorf("top2 = %v, want louvre and orsay", top2)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatalf("results not sorted: %v", got)
		}
	}
}

func TestContentBased_ExcludeAndCategory(t *testing.T) {
	m := fittedContent(t)
	profile, _ := m.ProfileVector([]string{"art"}, nil, nil)

	got, _ := m.Recommend(profile, 0, []string{"louvre"}, core.CategoryUnknown)
	if contains(ids(got), "louvre") {
		t.Error("excluded place returned")
	}
	if len(got) != len(testPlaces())-1 {
		t.Errorf("len = %d, want %d", len(got), len(testPlaces())-1)
	}

	eat, _ := m.Recommend(profile, 0, nil, core.CategoryEat)
	if len(eat) != 2 {
		t.Fatalf("eat results = %v, want 2 restaurants", eat)
	}
	for _, s := range eat {
		if s.ID != "bistro" && s.ID != "ramen" {
			t.Errorf("non-eat place %q returned", s.ID)
		}
	}
}

func TestContentBased_SimilarPlaces(t *testing.T) {
	m := fittedContent(t)
	got, err := m.SimilarPlaces("louvre", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "orsay" {
		t.Errorf("most similar to louvre = %q, want orsay", got[0].ID)
	}
	if contains(ids(got), "louvre") {
		t.Error("SimilarPlaces must not return the seed place")
	}

	if _, err := m.SimilarPlaces("nowhere", 2); !core.IsNotFound(err) {
		t.Errorf("unknown place err = %v, want not found", err)
	}
}

func TestContentBased_ProfileFromLiked(t *testing.T) {
	m := fittedContent(t)

	liked, err := m.ProfileVector(nil, nil, []string{"eiffel", "ghost-id"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := m.Recommend(liked, 1, nil, core.CategoryUnknown)
	if got[0].ID != "eiffel" || math.Abs(got[0].Score-1) > 1e-9 {
		t.Errorf("liked-only profile top = %+v, want eiffel with score 1", got[0])
	}

	tagOnly, _ := m.ProfileVector([]string{"art"}, nil, nil)
	blended, _ := m.ProfileVector([]string{"art"}, nil, []string{"eiffel"})
	eiffel, _ := m.Vector("eiffel")
	want := eiffel.Vector.Scale(0.6).Add(tagOnly.Scale(0.4))
	if math.Abs(blended.Cosine(want)-1) > 1e-9 || math.Abs(blended.Norm()-want.Norm()) > 1e-9 {
		t.Error("blended profile should be 0.6*liked + 0.4*tag vector")
	}
}

func TestContentBased_CategoryProfile(t *testing.T) {
	m := fittedContent(t)
	profile, err := m.ProfileVector(nil, []core.Category{core.CategoryHotel}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := m.Recommend(profile, 1, nil, core.CategoryUnknown)
	if got[0].ID != "lumiere" {
		t.Errorf("hotel-category profile top = %q, want lumiere", got[0].ID)
	}
}

func TestContentBased_Errors(t *testing.T) {
	m := NewContentBased(0)
	if _, err := m.ProfileVector([]string{"art"}, nil, nil); !core.IsDataValidation(err) {
		t.Errorf("ProfileVector before Fit err = %v", err)
	}
	if _, err := m.Recommend(SparseVector{}, 3, nil, core.CategoryUnknown); !core.IsDataValidation(err) {
		t.Errorf("Recommend before Fit err = %v", err)
	}
	if _, err := m.SimilarPlaces("louvre", 3); !core.IsDataValidation(err) {
		t.Errorf("SimilarPlaces before Fit err = %v", err)
	}
	if err := m.Fit(nil); !core.IsDataValidation(err) {
		t.Errorf("Fit(nil) err = %v", err)
	}
	if err := m.Fit([]core.Recommendable{&PlaceRecord{ID: "blank"}}); !core.IsDataValidation(err) {
		t.Errorf("Fit(all empty documents) err = %v", err)
	}
}

func TestContentBased_RecallSource(t *testing.T) {
	m := fittedContent(t)
	m.CandidateLimit = 2

	items, err := m.Recall(context.Background(), &core.RecommendContext{})
	if err != nil || items != nil {
		t.Fatalf("no preference input should recall nothing, got %v, %v", items, err)
	}

	items, err = m.Recall(context.Background(), &core.RecommendContext{
		Preferences: core.UserPreferences{PreferTags: []string{"japanese"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != "ramen" {
		t.Errorf("recall = %v", items)
	}
}
