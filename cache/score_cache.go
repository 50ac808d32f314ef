// Package cache 提供推荐分数的本地缓存。
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/rushteam/tripkit/core"
)

// ScoreCache 是 (地点, 标签集合) → 分数 的内存缓存，采用 LRU + TTL 策略。
//
// 同一个 key 在同一个模型下总是映射到同一个分数，并发写入只会互相覆盖成相同的值。
// 模型重新训练后需要调用 Purge。
type ScoreCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
	now      func() time.Time

	hits   uint64
	misses uint64
}

type scoreEntry struct {
	key       string
	score     float64
	expiresAt time.Time
}

// NewScoreCache 创建缓存。capacity <= 0 时取 10000；ttl <= 0 表示不过期。
func NewScoreCache(capacity int, ttl time.Duration) *ScoreCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &ScoreCache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

// Key 生成缓存 key：地点 ID + 归一化后的标签（排序、去重、小写）。
func Key(placeID string, tags []string) string {
	norm := core.NormalizeTags(tags)
	if len(norm) == 0 {
		return placeID + "|"
	}
	return placeID + "|" + strings.Join(norm, ",")
}

// Get 读取分数。
func (c *ScoreCache) Get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return 0, false
	}
	ent := el.Value.(*scoreEntry)
	if c.ttl > 0 && c.now().After(ent.expiresAt) {
		c.removeElement(el)
		c.misses++
		return 0, false
	}
	c.ll.MoveToFront(el)
	c.hits++
	return ent.score, true
}

// Set 写入分数，超出容量时淘汰最久未访问的条目。
func (c *ScoreCache) Set(key string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*scoreEntry)
		ent.score = score
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&scoreEntry{key: key, score: score, expiresAt: expiresAt})
	c.items[key] = el
	for c.ll.Len() > c.capacity {
		c.removeElement(c.ll.Back())
	}
}

// Purge 清空缓存。
func (c *ScoreCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// Len 返回当前条目数（含尚未被惰性清理的过期条目）。
func (c *ScoreCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats 返回命中与未命中次数。
func (c *ScoreCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *ScoreCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*scoreEntry).key)
}
