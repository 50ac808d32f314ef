package recall

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/tripkit/core"
)

func TestComponents(t *testing.T) {
	tests := []struct {
		factors, users, items int
		want                  int
	}{
		{50, 2, 2, 1},
		{50, 10, 5, 4},
		{3, 10, 10, 3},
		{50, 1, 5, 1},
		{0, 4, 4, 1},
	}
	for _, tt := range tests {
		if got := Components(tt.factors, tt.users, tt.items); got != tt.want {
			t.Errorf("Components(%d, %d, %d) = %d, want %d", tt.factors, tt.users, tt.items, got, tt.want)
		}
	}
}

func TestCollaborative_TwoByTwo(t *testing.T) {
	m := NewCollaborative(50)
	err := m.Fit([]core.Interaction{
		{UserID: "u1", PlaceID: "p1", Rating: 5},
		{UserID: "u1", PlaceID: "p2", Rating: 1},
		{UserID: "u2", PlaceID: "p1", Rating: 2},
		{UserID: "u2", PlaceID: "p2", Rating: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.NumComponents(); got != 1 {
		t.Fatalf("NumComponents = %d, want 1", got)
	}
	got, err := m.RecommendForUser("u1", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

// rankOneInteractions 生成评分矩阵 r[u][i] = a[u]·b[i]，秩为 1。
func rankOneInteractions() []core.Interaction {
	users := []struct {
		id string
		a  float64
	}{{"u1", 1}, {"u2", 2}, {"u3", 3}}
	items := []struct {
		id string
		b  float64
	}{{"i1", 1}, {"i2", 2}, {"i3", 3}, {"i4", 4}}
	var out []core.Interaction
	for _, u := range users {
		for _, it := range items {
			out = append(out, core.Interaction{UserID: u.id, PlaceID: it.id, Rating: u.a * it.b})
		}
	}
	return out
}

func TestCollaborative_KnownUser(t *testing.T) {
	m := NewCollaborative(1)
	if err := m.Fit(rankOneInteractions()); err != nil {
		t.Fatal(err)
	}
	got, err := m.RecommendForUser("u3", 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"i4", "i3", "i2", "i1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if math.Abs(got[0].Score-12) > 1e-6 {
		t.Errorf("predicted rating u3/i4 = %v, want 12", got[0].Score)
	}

	excluded, _ := m.RecommendForUser("u3", 2, []string{"i4"})
	if len(excluded) != 2 || excluded[0].ID != "i3" {
		t.Errorf("with exclusion = %v", excluded)
	}
}

func TestCollaborative_UnknownUser(t *testing.T) {
	m := NewCollaborative(1)
	if err := m.Fit(rankOneInteractions()); err != nil {
		t.Fatal(err)
	}
	got, err := m.RecommendForUser("stranger", 0, []string{"i1"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"i4", "i3", "i2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
		if got[i].Score < 0 {
			t.Errorf("popularity proxy should be non-negative, got %v", got[i].Score)
		}
	}

	items, err := m.Recall(context.Background(), &core.RecommendContext{UserID: "stranger"})
	if err != nil || items != nil {
		t.Errorf("unknown user should not be recalled, got %v, %v", items, err)
	}
}

func TestCollaborative_Errors(t *testing.T) {
	m := NewCollaborative(10)
	if err := m.Fit(nil); !core.IsDataValidation(err) {
		t.Errorf("Fit(nil) err = %v", err)
	}
	if _, err := m.RecommendForUser("u1", 3, nil); !core.IsDataValidation(err) {
		t.Errorf("RecommendForUser before Fit err = %v", err)
	}
	if m.NumComponents() != 0 || m.Fitted() {
		t.Error("unfitted model reports components")
	}
}

func TestCollaborative_Deterministic(t *testing.T) {
	a, b := NewCollaborative(2), NewCollaborative(2)
	if err := a.Fit(testInteractions()); err != nil {
		t.Fatal(err)
	}
	if err := b.Fit(testInteractions()); err != nil {
		t.Fatal(err)
	}
	ra, _ := a.RecommendForUser("alice", 0, nil)
	rb, _ := b.RecommendForUser("alice", 0, nil)
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("same seed produced different results: %v vs %v", ra, rb)
		}
	}
}

func TestCollaborative_StateRestore(t *testing.T) {
	m := NewCollaborative(2)
	if err := m.Fit(testInteractions()); err != nil {
		t.Fatal(err)
	}
	st := m.State()
	if st.Components != 2 {
		t.Fatalf("components = %d, want 2", st.Components)
	}

	restored := NewCollaborative(2)
	if err := restored.Restore(st); err != nil {
		t.Fatal(err)
	}
	want, _ := m.RecommendForUser("bob", 0, nil)
	got, _ := restored.RecommendForUser("bob", 0, nil)
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored model differs: %v vs %v", got, want)
		}
	}

	bad := *st
	bad.UserIDs = bad.UserIDs[:1]
	if err := NewCollaborative(2).Restore(&bad); !core.IsDataValidation(err) {
		t.Errorf("shape mismatch err = %v", err)
	}
}
