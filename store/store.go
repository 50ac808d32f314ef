// Package store 提供 core.Store 的实现：内存、Redis、Badger。
//
// 接口定义在 core 包：
//
//	var s core.Store = store.NewMemoryStore()
//	var kv core.KeyValueStore = store.NewMemoryStore()
package store

import (
	"fmt"

	"github.com/rushteam/tripkit/core"
)

// Config 是存储后端配置。
type Config struct {
	Backend    string `koanf:"backend" validate:"oneof=memory redis badger"`
	RedisAddr  string `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB    int    `koanf:"redis_db" validate:"gte=0"`
	BadgerPath string `koanf:"badger_path" validate:"required_if=Backend badger"`
	ModelKey   string `koanf:"model_key"`
}

// Open 按配置打开存储后端。
func Open(cfg Config) (core.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisDB)
	case "badger":
		return NewBadgerStore(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// KeyValue 返回支持有序集合的存储视图；后端不支持时返回 core.ErrStoreNotSupported。
func KeyValue(s core.Store) (core.KeyValueStore, error) {
	if kv, ok := s.(core.KeyValueStore); ok {
		return kv, nil
	}
	return nil, fmt.Errorf("%s: sorted sets: %w", s.Name(), core.ErrStoreNotSupported)
}
