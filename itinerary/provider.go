package itinerary

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/tripkit/core"
)

// CandidateProvider 提供某城市的候选景点与餐厅。
type CandidateProvider interface {
	Candidates(ctx context.Context, city string) (visit, food []Spot, err error)
}

// ProviderFunc 把函数适配为 CandidateProvider。
type ProviderFunc func(ctx context.Context, city string) (visit, food []Spot, err error)

func (f ProviderFunc) Candidates(ctx context.Context, city string) ([]Spot, []Spot, error) {
	return f(ctx, city)
}

// SplitSpots 按类别拆分为景点与餐厅，并只保留 city 匹配（忽略大小写）的地点。
// city 为空或地点未标注城市时不做过滤；住宿与未知类别被丢弃。
func SplitSpots(spots []Spot, city string) (visit, food []Spot) {
	for _, sp := range spots {
		if city != "" && sp.City != "" && !strings.EqualFold(sp.City, city) {
			continue
		}
		switch sp.Category {
		case core.CategoryVisit:
			visit = append(visit, sp)
		case core.CategoryEat:
			food = append(food, sp)
		}
	}
	return visit, food
}

// FileProvider 从 JSON 文件读取地点数组：
//
//	[{"id": "p1", "name": "...", "category": "visit", "city": "paris", "lat": 48.86, "lng": 2.33, ...}]
type FileProvider struct {
	Path string
}

func (p FileProvider) Candidates(ctx context.Context, city string) ([]Spot, []Spot, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read spots: %w", err)
	}
	spots, err := DecodeSpots(data)
	if err != nil {
		return nil, nil, err
	}
	visit, food := SplitSpots(spots, city)
	return visit, food, nil
}

// DecodeSpots 解析 JSON 地点数组。
func DecodeSpots(data []byte) ([]Spot, error) {
	var spots []Spot
	if err := json.Unmarshal(data, &spots); err != nil {
		return nil, core.NewDomainError(core.ModuleItinerary, core.ErrorCodeInvalidData,
			fmt.Sprintf("itinerary: decode spots: %v", err))
	}
	return spots, nil
}

// StoreProvider 从 core.Store 读取按城市保存的地点（SaveSpotsByCity 写入）。
type StoreProvider struct {
	Store core.Store
}

// SpotsKey 城市地点列表在 Store 中的 key
func SpotsKey(city string) string {
	return "tripkit:spots:" + strings.ToLower(strings.TrimSpace(city))
}

// SaveSpotsByCity 按城市（忽略大小写）分组，每个城市一个 JSON 数组，经一次 BatchSet 整体写入。
// 未标注城市的地点被跳过。返回写入的城市数。
func SaveSpotsByCity(ctx context.Context, s core.Store, spots []Spot) (int, error) {
	byCity := make(map[string][]Spot)
	for _, sp := range spots {
		city := strings.ToLower(strings.TrimSpace(sp.City))
		if city == "" {
			continue
		}
		byCity[city] = append(byCity[city], sp)
	}
	if len(byCity) == 0 {
		return 0, nil
	}
	kvs := make(map[string][]byte, len(byCity))
	for city, citySpots := range byCity {
		data, err := json.Marshal(citySpots)
		if err != nil {
			return 0, fmt.Errorf("encode spots for %s: %w", city, err)
		}
		kvs[SpotsKey(city)] = data
	}
	if err := s.BatchSet(ctx, kvs); err != nil {
		return 0, fmt.Errorf("save spots to %s: %w", s.Name(), err)
	}
	return len(byCity), nil
}

func (p StoreProvider) Candidates(ctx context.Context, city string) ([]Spot, []Spot, error) {
	data, err := p.Store.Get(ctx, SpotsKey(city))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil, core.NewDomainError(core.ModuleItinerary, core.ErrorCodeNotFound,
				fmt.Sprintf("itinerary: no spots for city %q", city))
		}
		return nil, nil, fmt.Errorf("load spots from %s: %w", p.Store.Name(), err)
	}
	spots, err := DecodeSpots(data)
	if err != nil {
		return nil, nil, err
	}
	visit, food := SplitSpots(spots, city)
	return visit, food, nil
}
