package itinerary

// Span 是一个 "HH:MM" 表示的时间段。
type Span struct {
	Start string `koanf:"start" json:"start" yaml:"start" validate:"required"`
	End   string `koanf:"end" json:"end" yaml:"end" validate:"required"`
}

// Windows 各时间段的默认时间窗，请求中未指定时使用。
type Windows struct {
	Morning   Span `koanf:"morning" json:"morning" yaml:"morning"`
	Lunch     Span `koanf:"lunch" json:"lunch" yaml:"lunch"`
	Afternoon Span `koanf:"afternoon" json:"afternoon" yaml:"afternoon"`
	Dinner    Span `koanf:"dinner" json:"dinner" yaml:"dinner"`
	Evening   Span `koanf:"evening" json:"evening" yaml:"evening"`
}

// For 返回指定时间段的默认时间窗。
func (w Windows) For(b BlockName) Span {
	switch b {
	case Morning:
		return w.Morning
	case Lunch:
		return w.Lunch
	case Afternoon:
		return w.Afternoon
	case Dinner:
		return w.Dinner
	default:
		return w.Evening
	}
}

// Config 是行程引擎的调参项。
type Config struct {
	// VisitRandomness / MealRandomness 打分随机扰动幅度 r，最终分数 × U[1−r, 1+r]
	VisitRandomness float64 `koanf:"visit_randomness" json:"visit_randomness" validate:"gte=0,lt=1"`
	MealRandomness  float64 `koanf:"meal_randomness" json:"meal_randomness" validate:"gte=0,lt=1"`

	// DefaultDwell 地点未给出建议停留时长时的默认值（分钟）
	DefaultDwell int `koanf:"default_dwell" json:"default_dwell" validate:"gt=0"`

	// OverrunTolerance 允许超出时间窗结束的分钟数；超出更多时尝试压缩停留时长
	OverrunTolerance int `koanf:"overrun_tolerance" json:"overrun_tolerance" validate:"gte=0"`

	// MinShrunkDwell 压缩后停留时长的下限
	MinShrunkDwell int `koanf:"min_shrunk_dwell" json:"min_shrunk_dwell" validate:"gt=0"`

	// ScanRelax 扫描候选时的放宽倍数；最终接受仍按 MaxLegKm 严格判断
	ScanRelax float64 `koanf:"scan_relax" json:"scan_relax" validate:"gte=1"`

	// MealChoices 用餐时间段最多收集的可行候选数，从中随机选一个
	MealChoices int `koanf:"meal_choices" json:"meal_choices" validate:"gt=0"`

	// 请求未指定时的默认约束
	MaxLegKm         float64 `koanf:"max_leg_km" json:"max_leg_km" validate:"gt=0"`
	MaxItemsPerBlock int     `koanf:"max_items_per_block" json:"max_items_per_block" validate:"gt=0"`

	// Seed 非 0 时每次编排使用固定种子
	Seed int64 `koanf:"seed" json:"seed"`

	Windows Windows `koanf:"windows" json:"windows"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		VisitRandomness:  0.25,
		MealRandomness:   0.30,
		DefaultDwell:     60,
		OverrunTolerance: 15,
		MinShrunkDwell:   30,
		ScanRelax:        1.5,
		MealChoices:      3,
		MaxLegKm:         5,
		MaxItemsPerBlock: 3,
		Windows: Windows{
			Morning:   Span{Start: "09:00", End: "12:00"},
			Lunch:     Span{Start: "12:00", End: "13:30"},
			Afternoon: Span{Start: "13:30", End: "17:30"},
			Dinner:    Span{Start: "18:00", End: "19:30"},
			Evening:   Span{Start: "19:30", End: "22:00"},
		},
	}
}
