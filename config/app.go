// Package config 负责应用配置加载与后处理 Node 注册表。
//
// 配置按三层叠加，后者覆盖前者：
//
//  1. 结构体默认值（Default）
//  2. YAML 配置文件（参数指定，或 TRIPKIT_CONFIG 环境变量）
//  3. TRIPKIT_ 前缀的环境变量（见 envMappings）
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/tripkit/core"
	"github.com/rushteam/tripkit/itinerary"
	"github.com/rushteam/tripkit/pkg/clock"
	"github.com/rushteam/tripkit/pkg/logging"
	"github.com/rushteam/tripkit/recall"
	"github.com/rushteam/tripkit/store"
)

// PathEnvVar 指定配置文件路径的环境变量
const PathEnvVar = "TRIPKIT_CONFIG"

const envPrefix = "TRIPKIT_"

// Config 是应用的完整配置。
type Config struct {
	Log         logging.Config    `koanf:"log"`
	Recommender RecommenderConfig `koanf:"recommender"`
	Cache       CacheConfig       `koanf:"cache"`
	Itinerary   itinerary.Config  `koanf:"itinerary"`
	Store       store.Config      `koanf:"store"`
}

// RecommenderConfig 混合推荐器参数。
type RecommenderConfig struct {
	MaxFeatures    int            `koanf:"max_features" validate:"gt=0"`
	Factors        int            `koanf:"factors" validate:"gt=0"`
	CandidateLimit int            `koanf:"candidate_limit" validate:"gt=0"`
	TopK           int            `koanf:"top_k" validate:"gt=0"`
	Timeout        time.Duration  `koanf:"timeout" validate:"gte=0"`
	RecallTimeout  time.Duration  `koanf:"recall_timeout" validate:"gte=0"` // 单路召回超时，0 不限制
	Seed           int64          `koanf:"seed"`
	Weights        recall.Weights `koanf:"weights"`

	// PipelinePath 可选的后处理 Pipeline 配置（YAML/JSON），为空时使用默认流程
	PipelinePath string `koanf:"pipeline_path"`
}

// CacheConfig 地点分数缓存。
type CacheConfig struct {
	Size int           `koanf:"size" validate:"gte=0"`
	TTL  time.Duration `koanf:"ttl" validate:"gte=0"`
}

// Default 返回默认配置。
func Default() *Config {
	rc := &core.DefaultRecommendConfig{}
	return &Config{
		Log: logging.Config{Level: "info", Format: "json"},
		Recommender: RecommenderConfig{
			MaxFeatures:    rc.DefaultMaxFeatures(),
			Factors:        rc.DefaultFactors(),
			CandidateLimit: rc.DefaultCandidateLimit(),
			TopK:           rc.DefaultTopKItems(),
			Timeout:        rc.DefaultTimeout(),
			RecallTimeout:  500 * time.Millisecond,
			Seed:           42,
			Weights:        recall.DefaultWeights(),
		},
		Cache:     CacheConfig{Size: 10000, TTL: 10 * time.Minute},
		Itinerary: itinerary.DefaultConfig(),
		Store: store.Config{
			Backend:    "badger",
			BadgerPath: "tripkit-data",
			ModelKey:   recall.DefaultModelKey,
		},
	}
}

// envMappings 环境变量（去掉前缀、小写）到配置路径的映射；未列出的变量被忽略。
var envMappings = map[string]string{
	"log_level":  "log.level",
	"log_format": "log.format",

	"max_features":    "recommender.max_features",
	"factors":         "recommender.factors",
	"candidate_limit": "recommender.candidate_limit",
	"top_k":           "recommender.top_k",
	"timeout":         "recommender.timeout",
	"recall_timeout":  "recommender.recall_timeout",
	"seed":            "recommender.seed",
	"pipeline_path":   "recommender.pipeline_path",

	"cache_size": "cache.size",
	"cache_ttl":  "cache.ttl",

	"visit_randomness":    "itinerary.visit_randomness",
	"meal_randomness":     "itinerary.meal_randomness",
	"max_leg_km":          "itinerary.max_leg_km",
	"max_items_per_block": "itinerary.max_items_per_block",
	"itinerary_seed":      "itinerary.seed",

	"store_backend": "store.backend",
	"redis_addr":    "store.redis_addr",
	"redis_db":      "store.redis_db",
	"badger_path":   "store.badger_path",
	"model_key":     "store.model_key",
}

// envTransformFunc 把 TRIPKIT_STORE_BACKEND 转为 store.backend。返回空串表示忽略该变量。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}

// Load 加载配置。path 为空时读取 TRIPKIT_CONFIG；两者都为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate 校验字段取值与时间窗格式。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}
	w := c.Recommender.Weights
	if w.Content+w.Collaborative+w.Popularity <= 0 {
		return errors.New("recommender.weights: at least one weight must be positive")
	}
	for _, name := range itinerary.BlockOrder {
		span := c.Itinerary.Windows.For(name)
		start, err := clock.ParseHHMM(span.Start)
		if err != nil {
			return fmt.Errorf("itinerary.windows.%s.start: %w", name, err)
		}
		end, err := clock.ParseHHMM(span.End)
		if err != nil {
			return fmt.Errorf("itinerary.windows.%s.end: %w", name, err)
		}
		if end <= start {
			return fmt.Errorf("itinerary.windows.%s: end %s is not after start %s", name, span.End, span.Start)
		}
	}
	return nil
}
