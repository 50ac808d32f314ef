package itinerary

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/pkg/clock"
	"github.com/rushteam/tripkit/pkg/dsl"
)

// DateLayout 请求与输出中的日期格式
const DateLayout = "2006-01-02"

// BlockName 是一天中的时间段。
type BlockName string

const (
	Morning   BlockName = "morning"
	Lunch     BlockName = "lunch"
	Afternoon BlockName = "afternoon"
	Dinner    BlockName = "dinner"
	Evening   BlockName = "evening"
)

// BlockOrder 一天内时间段的编排顺序
var BlockOrder = []BlockName{Morning, Lunch, Afternoon, Dinner, Evening}

// IsMeal 是否为用餐时间段
func (b BlockName) IsMeal() bool {
	return b == Lunch || b == Dinner
}

// BlockRequest 是请求中单个时间段的设置；Enabled 为空视为启用，Start/End 为空取默认值。
type BlockRequest struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled"`
	Start   string `json:"start,omitempty" yaml:"start"`
	End     string `json:"end,omitempty" yaml:"end"`
}

// ItineraryRequest 是一次行程编排请求。
type ItineraryRequest struct {
	City             string                     `json:"city" yaml:"city"`
	StartDate        string                     `json:"start_date" yaml:"start_date"`
	Days             int                        `json:"days" yaml:"days" validate:"gte=1,lte=30"`
	Blocks           map[BlockName]BlockRequest `json:"blocks,omitempty" yaml:"blocks"`
	MaxLegKm         float64                    `json:"max_leg_distance_km,omitempty" yaml:"max_leg_distance_km" validate:"gte=0"`
	MaxItemsPerBlock int                        `json:"max_items_per_block,omitempty" yaml:"max_items_per_block" validate:"gte=0"`
	Preferences      core.UserPreferences       `json:"preferences" yaml:"preferences"`
	MustVisitIDs     []string                   `json:"must_visit_ids,omitempty" yaml:"must_visit_ids"`
	AvoidIDs         []string                   `json:"avoid_ids,omitempty" yaml:"avoid_ids"`

	// Filter 是作用于候选地点的 CEL 表达式，例如：
	//
	//	spot.price < 30.0 && !("nightlife" in spot.tags)
	Filter string `json:"filter,omitempty" yaml:"filter"`
}

// Window 是绝对分钟数表示的时间窗 [Start, End)。
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TripContext 是请求解析后的编排约束。Windows 中为 nil 的时间段不编排。
type TripContext struct {
	City             string
	Date             time.Time
	Days             int
	Windows          map[BlockName]*Window
	MaxItemsPerBlock int
	MaxLegKm         float64
	MustVisit        map[string]struct{}
	Avoid            map[string]struct{}
	Preferences      core.UserPreferences
	Filter           *dsl.Program
}

var validate = validator.New()

// BuildTripContext 校验请求并转换为编排约束。
// 这是编排过程中唯一会返回错误的步骤（core.IsInvalidInput）。
func BuildTripContext(req ItineraryRequest, cfg Config) (*TripContext, error) {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, invalidRequest("field %s fails %q", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return nil, invalidRequest("%v", err)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		d, err := time.Parse(DateLayout, req.StartDate)
		if err != nil {
			return nil, invalidRequest("bad start_date %q", req.StartDate)
		}
		date = d
	}

	for name := range req.Blocks {
		if !knownBlock(name) {
			return nil, invalidRequest("unknown block %q", name)
		}
	}
	windows := make(map[BlockName]*Window, len(BlockOrder))
	for _, name := range BlockOrder {
		w, err := resolveWindow(name, req.Blocks[name], cfg.Windows.For(name))
		if err != nil {
			return nil, err
		}
		windows[name] = w
	}

	prg, err := dsl.Compile(req.Filter)
	if err != nil {
		return nil, invalidRequest("bad filter: %v", err)
	}

	tc := &TripContext{
		City:             req.City,
		Date:             date,
		Days:             req.Days,
		Windows:          windows,
		MaxItemsPerBlock: req.MaxItemsPerBlock,
		MaxLegKm:         req.MaxLegKm,
		MustVisit:        idSet(req.MustVisitIDs),
		Avoid:            idSet(req.AvoidIDs),
		Preferences: core.UserPreferences{
			PreferTags: core.NormalizeTags(req.Preferences.PreferTags),
			AvoidTags:  core.NormalizeTags(req.Preferences.AvoidTags),
		},
		Filter: prg,
	}
	if tc.MaxItemsPerBlock <= 0 {
		tc.MaxItemsPerBlock = cfg.MaxItemsPerBlock
	}
	if tc.MaxLegKm <= 0 {
		tc.MaxLegKm = cfg.MaxLegKm
	}
	return tc, nil
}

func resolveWindow(name BlockName, br BlockRequest, def Span) (*Window, error) {
	if br.Enabled != nil && !*br.Enabled {
		return nil, nil
	}
	startStr, endStr := def.Start, def.End
	if br.Start != "" {
		startStr = br.Start
	}
	if br.End != "" {
		endStr = br.End
	}
	start, err := clock.ParseHHMM(startStr)
	if err != nil {
		return nil, invalidRequest("%s start: %v", name, err)
	}
	end, err := clock.ParseHHMM(endStr)
	if err != nil {
		return nil, invalidRequest("%s end: %v", name, err)
	}
	if end <= start {
		return nil, invalidRequest("%s window %s-%s is empty", name, startStr, endStr)
	}
	return &Window{Start: start, End: end}, nil
}

func knownBlock(name BlockName) bool {
	for _, b := range BlockOrder {
		if b == name {
			return true
		}
	}
	return false
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func invalidRequest(format string, args ...any) error {
	return core.NewDomainError(core.ModuleItinerary, core.ErrorCodeInvalidInput,
		"itinerary: "+fmt.Sprintf(format, args...))
}
