// Package tripkit 是一个旅行规划工具包：混合地点推荐 + 多日行程编排。
//
// 设计要点：
// - Hybrid-first: 内容（TF-IDF）、协同（截断 SVD）、热度三路分数归一化后加权融合
// - Pipeline 后处理: 融合后的候选经 Filter → Rank → ReRank 节点链输出，可由 YAML 配置
// - Itinerary: 按天、按时间段贪心编排，推荐分数通过 Scorer 接入
//
// 子包：
//
//	recall     Hybrid 推荐器、模型快照、热度榜
//	itinerary  行程编排 Engine、候选提供方
//	pipeline   Node 链与配置加载
//	store      memory / redis / badger 存储
//	config     应用配置与 Node 注册表
package tripkit

import (
	"github.com/rushteam/tripkit/itinerary"
	"github.com/rushteam/tripkit/pipeline"
	"github.com/rushteam/tripkit/recall"
)

// 轻量 facade：便于直接 import "tripkit" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	Hybrid  = recall.Hybrid
	Engine  = itinerary.Engine
	Request = itinerary.ItineraryRequest
	Trip    = itinerary.TripItinerary
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewHybrid 创建混合推荐器，见 recall.NewHybrid。
func NewHybrid(opts ...recall.HybridOption) *Hybrid { return recall.NewHybrid(opts...) }

// NewEngine 创建行程编排引擎，见 itinerary.NewEngine。
func NewEngine(opts ...itinerary.Option) *Engine { return itinerary.NewEngine(opts...) }
