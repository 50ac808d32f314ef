package recall

import (
	"math"
	"testing"

	"github.com/rushteam/tripkit/core"
)

func TestAnalyze(t *testing.T) {
	got := analyze("The Art Museum, a great museum!")
	want := []string{"art", "museum", "great", "museum", "art museum", "museum great", "great museum"}
	if len(got) != len(want) {
		t.Fatalf("analyze = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("analyze = %v, want %v", got, want)
		}
	}
}

func TestTfidfVectorizer_EmptyCorpus(t *testing.T) {
	tests := []struct {
		name string
		docs []string
	}{
		{"no documents", nil},
		{"all empty", []string{"", "  "}},
		{"only stop words", []string{"the of and", "a an"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTfidfVectorizer(0).FitTransform(tt.docs)
			if !core.IsDataValidation(err) {
				t.Fatalf("err = %v, want data validation error", err)
			}
		})
	}
}

func TestTfidfVectorizer_MaxFeatures(t *testing.T) {
	v := NewTfidfVectorizer(2)
	if _, err := v.FitTransform([]string{"apple apple banana", "apple cherry"}); err != nil {
		t.Fatal(err)
	}
	if len(v.Vocabulary) != 2 {
		t.Fatalf("vocabulary size = %d, want 2: %v", len(v.Vocabulary), v.Vocabulary)
	}
	for _, term := range []string{"apple", "apple apple"} {
		if _, ok := v.Vocabulary[term]; !ok {
			t.Errorf("vocabulary missing %q: %v", term, v.Vocabulary)
		}
	}
}

func TestTfidfVectorizer_IDFAndNorm(t *testing.T) {
	v := NewTfidfVectorizer(0)
	vecs, err := v.FitTransform([]string{"museum art", "museum food", ""})
	if err != nil {
		t.Fatal(err)
	}
	n := 3.0
	wantMuseum := math.Log((1+n)/(1+2)) + 1
	wantArt := math.Log((1+n)/(1+1)) + 1
	if got := v.IDF[v.Vocabulary["museum"]]; math.Abs(got-wantMuseum) > 1e-12 {
		t.Errorf("idf(museum) = %v, want %v", got, wantMuseum)
	}
	if got := v.IDF[v.Vocabulary["art"]]; math.Abs(got-wantArt) > 1e-12 {
		t.Errorf("idf(art) = %v, want %v", got, wantArt)
	}
	for i := 0; i < 2; i++ {
		if norm := vecs[i].Norm(); math.Abs(norm-1) > 1e-12 {
			t.Errorf("row %d norm = %v, want 1", i, norm)
		}
	}
	if vecs[2].Len() != 0 {
		t.Errorf("empty document should produce a zero vector, got %v", vecs[2])
	}
}

func TestTfidfVectorizer_TransformBeforeFit(t *testing.T) {
	if _, err := NewTfidfVectorizer(0).Transform("museum"); !core.IsDataValidation(err) {
		t.Fatalf("err = %v, want data validation error", err)
	}
}

func TestTfidfVectorizer_TransformMatchesFit(t *testing.T) {
	docs := []string{"louvre art museum paris", "eiffel tower view"}
	v := NewTfidfVectorizer(0)
	vecs, err := v.FitTransform(docs)
	if err != nil {
		t.Fatal(err)
	}
	again, err := v.Transform(docs[0])
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(again.Cosine(vecs[0])-1) > 1e-12 {
		t.Error("Transform of a training document should reproduce its vector")
	}
}

func TestSparseVector_Ops(t *testing.T) {
	a := SparseVector{Indices: []int{0, 2}, Values: []float64{1, 2}}
	b := SparseVector{Indices: []int{1, 2}, Values: []float64{3, 4}}

	if got := a.Dot(b); got != 8 {
		t.Errorf("Dot = %v, want 8", got)
	}
	sum := a.Add(b)
	wantIdx := []int{0, 1, 2}
	wantVal := []float64{1, 3, 6}
	for i := range wantIdx {
		if sum.Indices[i] != wantIdx[i] || sum.Values[i] != wantVal[i] {
			t.Fatalf("Add = %+v", sum)
		}
	}
	if got := a.Scale(0.5).Values[1]; got != 1 {
		t.Errorf("Scale = %v, want 1", got)
	}
	if got := a.Cosine(SparseVector{}); got != 0 {
		t.Errorf("Cosine with zero vector = %v, want 0", got)
	}
	if got := a.Cosine(a); math.Abs(got-1) > 1e-12 {
		t.Errorf("self cosine = %v, want 1", got)
	}
	mean := Mean([]SparseVector{a, b})
	if mean.Values[2] != 3 {
		t.Errorf("Mean = %+v", mean)
	}
}
