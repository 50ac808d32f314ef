// Package utils 提供推荐结果的解释标签。
package utils

import "strconv"

// Label 是附着在推荐结果上的解释信息，随 Item 透传到输出。
//
//	Value   取值，例如召回来源名或分数
//	Source  写入方：recall / hybrid / filter / rerank
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// ScoreLabel 以 4 位小数记录一个分数。
func ScoreLabel(v float64, source string) Label {
	return Label{Value: strconv.FormatFloat(v, 'f', 4, 64), Source: source}
}

// Float 把 Value 解析为数字。
func (l Label) Float() (float64, bool) {
	f, err := strconv.ParseFloat(l.Value, 64)
	return f, err == nil
}

// MergeLabel 合并同名 Label：Value 以 '|' 拼接，Source 以 ',' 拼接，任一方为空时取另一方。
func MergeLabel(existing, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  existing.Value + "|" + incoming.Value,
		Source: joinNonEmpty(existing.Source, incoming.Source, ","),
	}
}

func joinNonEmpty(a, b, sep string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + sep + b
	}
}
