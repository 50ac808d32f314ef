package recall

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rushteam/tripkit/core"
)

// SparseVector 是按下标升序存储的稀疏向量。
type SparseVector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// Len 非零元素个数
func (v SparseVector) Len() int { return len(v.Indices) }

// Dot 计算两个稀疏向量的点积（双指针归并）。
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm 返回 L2 范数。
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Cosine 余弦相似度；任一向量为零向量时返回 0。
func (v SparseVector) Cosine(o SparseVector) float64 {
	n1, n2 := v.Norm(), o.Norm()
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return v.Dot(o) / (n1 * n2)
}

// Scale 返回 v × f。
func (v SparseVector) Scale(f float64) SparseVector {
	out := SparseVector{Indices: append([]int(nil), v.Indices...), Values: make([]float64, len(v.Values))}
	for i, x := range v.Values {
		out.Values[i] = x * f
	}
	return out
}

// Add 返回 v + o。
func (v SparseVector) Add(o SparseVector) SparseVector {
	out := SparseVector{
		Indices: make([]int, 0, len(v.Indices)+len(o.Indices)),
		Values:  make([]float64, 0, len(v.Indices)+len(o.Indices)),
	}
	i, j := 0, 0
	for i < len(v.Indices) || j < len(o.Indices) {
		switch {
		case j >= len(o.Indices) || (i < len(v.Indices) && v.Indices[i] < o.Indices[j]):
			out.Indices = append(out.Indices, v.Indices[i])
			out.Values = append(out.Values, v.Values[i])
			i++
		case i >= len(v.Indices) || o.Indices[j] < v.Indices[i]:
			out.Indices = append(out.Indices, o.Indices[j])
			out.Values = append(out.Values, o.Values[j])
			j++
		default:
			out.Indices = append(out.Indices, v.Indices[i])
			out.Values = append(out.Values, v.Values[i]+o.Values[j])
			i++
			j++
		}
	}
	return out
}

// Mean 返回多个向量的均值；空输入返回零向量。
func Mean(vs []SparseVector) SparseVector {
	if len(vs) == 0 {
		return SparseVector{}
	}
	acc := SparseVector{}
	for _, v := range vs {
		acc = acc.Add(v)
	}
	return acc.Scale(1 / float64(len(vs)))
}

// TfidfVectorizer 把文档转为 TF-IDF 稀疏向量。
//
// 规则：
//   - 小写；token 为连续 ≥2 个字母/数字/下划线
//   - 过滤英文停用词后生成 unigram + bigram
//   - 词表按语料总词频取前 MaxFeatures 个（词频相同按字典序）
//   - idf = ln((1+n)/(1+df)) + 1；每行 L2 归一化
type TfidfVectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewTfidfVectorizer 创建向量化器，maxFeatures <= 0 时取 5000。
func NewTfidfVectorizer(maxFeatures int) *TfidfVectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	return &TfidfVectorizer{MaxFeatures: maxFeatures}
}

// Fitted 是否已训练
func (v *TfidfVectorizer) Fitted() bool {
	return v != nil && len(v.Vocabulary) > 0
}

// Validate 检查从外部载入的词表与 idf 是否一致：长度相同且每个词的下标都落在 idf 范围内。
func (v *TfidfVectorizer) Validate() error {
	if !v.Fitted() {
		return core.ErrNotFitted
	}
	if len(v.IDF) != len(v.Vocabulary) {
		return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidData,
			fmt.Sprintf("recommend: vectorizer has %d terms but %d idf weights", len(v.Vocabulary), len(v.IDF)))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidData,
				fmt.Sprintf("recommend: vectorizer term %q has index %d outside [0,%d)", term, idx, len(v.IDF)))
		}
	}
	return nil
}

// FitTransform 在语料上学习词表与 idf，并返回每个文档的向量。
// 词表为空（空语料或全部为空文档/停用词）时返回 core.ErrEmptyCorpus。
func (v *TfidfVectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if len(docs) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	terms := make([][]string, len(docs))
	freq := make(map[string]int)
	for i, doc := range docs {
		terms[i] = analyze(doc)
		for _, t := range terms[i] {
			freq[t]++
		}
	}
	if len(freq) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	vocabTerms := make([]string, 0, len(freq))
	for t := range freq {
		vocabTerms = append(vocabTerms, t)
	}
	sort.Slice(vocabTerms, func(i, j int) bool {
		if freq[vocabTerms[i]] != freq[vocabTerms[j]] {
			return freq[vocabTerms[i]] > freq[vocabTerms[j]]
		}
		return vocabTerms[i] < vocabTerms[j]
	})
	if len(vocabTerms) > v.MaxFeatures {
		vocabTerms = vocabTerms[:v.MaxFeatures]
	}
	// 下标按字典序分配，与词频无关
	sort.Strings(vocabTerms)
	v.Vocabulary = make(map[string]int, len(vocabTerms))
	for i, t := range vocabTerms {
		v.Vocabulary[t] = i
	}

	df := make([]int, len(vocabTerms))
	for _, ts := range terms {
		seen := make(map[int]struct{}, len(ts))
		for _, t := range ts {
			idx, ok := v.Vocabulary[t]
			if !ok {
				continue
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			df[idx]++
		}
	}
	n := float64(len(docs))
	v.IDF = make([]float64, len(df))
	for i, d := range df {
		v.IDF[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	out := make([]SparseVector, len(docs))
	for i, ts := range terms {
		out[i] = v.vectorize(ts)
	}
	return out, nil
}

// Transform 用已学习的词表向量化文档；未训练时返回 core.ErrNotFitted。
func (v *TfidfVectorizer) Transform(doc string) (SparseVector, error) {
	if !v.Fitted() {
		return SparseVector{}, core.ErrNotFitted
	}
	return v.vectorize(analyze(doc)), nil
}

func (v *TfidfVectorizer) vectorize(terms []string) SparseVector {
	counts := make(map[int]float64, len(terms))
	for _, t := range terms {
		if idx, ok := v.Vocabulary[t]; ok {
			counts[idx]++
		}
	}
	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	var norm float64
	for _, idx := range vec.Indices {
		w := counts[idx] * v.IDF[idx]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

// analyze 分词、去停用词并生成 unigram + bigram。
func analyze(doc string) []string {
	words := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
		a about above across after afterwards again against all almost alone along already also
		although always am among amongst amount an and another any anyhow anyone anything anyway
		anywhere are around as at back be became because become becomes becoming been before
		beforehand behind being below beside besides between beyond both bottom but by can
		cannot could did do does doing done down due during each eg either else elsewhere enough
		etc even ever every everyone everything everywhere except few for former formerly from
		further had has have having he hence her here hereafter hereby herein hers herself him
		himself his how however i ie if in indeed into is it its itself just last latter least
		less ltd made many may me meanwhile might mine more moreover most mostly much must my
		myself namely neither never nevertheless next no nobody none nor not nothing now nowhere
		of off often on once one only onto or other others otherwise our ours ourselves out over
		own per perhaps please rather re same seem seemed seeming seems several she should since
		so some somehow someone something sometime sometimes somewhere still such than that the
		their theirs them themselves then thence there thereafter thereby therefore therein
		thereupon these they this those though through throughout thru thus to together too
		toward towards under until up upon us very via was we well were what whatever when
		whence whenever where whereafter whereas whereby wherein whereupon wherever whether which
		while whither who whoever whole whom whose why will with within without would yet you
		your yours yourself yourselves`)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
