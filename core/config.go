package core

import "time"

// RecommendConfig 是推荐模型相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultMaxFeatures 返回 TF-IDF 词表上限
	DefaultMaxFeatures() int

	// DefaultFactors 返回 SVD 隐因子数
	DefaultFactors() int

	// DefaultCandidateLimit 返回每路召回的候选上限
	DefaultCandidateLimit() int

	// DefaultTopKItems 返回默认的 TopK 物品数
	DefaultTopKItems() int

	// DefaultTimeout 返回默认的超时时间
	DefaultTimeout() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultMaxFeatures() int {
	return 5000
}

func (c *DefaultRecommendConfig) DefaultFactors() int {
	return 50
}

func (c *DefaultRecommendConfig) DefaultCandidateLimit() int {
	return 100
}

func (c *DefaultRecommendConfig) DefaultTopKItems() int {
	return 10
}

func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 2 * time.Second
}
