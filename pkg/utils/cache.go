package utils

import (
	"sync"
	"time"
)

// TTLCache 单值过期缓存
// 每个实例独立持有数据，由调用方构造并注入，不使用包级变量
type TTLCache[T any] struct {
	mu        sync.RWMutex
	value     T
	expiresAt time.Time
	ok        bool
	ttl       time.Duration
	now       func() time.Time
}

// NewTTLCache 创建缓存
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{ttl: ttl, now: time.Now}
}

// WithClock 替换时钟（测试用）
func (c *TTLCache[T]) WithClock(now func() time.Time) *TTLCache[T] {
	c.now = now
	return c
}

// Get 获取未过期的值
func (c *TTLCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if !c.ok || !c.now().Before(c.expiresAt) {
		return zero, false
	}
	return c.value, true
}

// Set 写入并重置过期时间
func (c *TTLCache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = v
	c.ok = true
	c.expiresAt = c.now().Add(c.ttl)
}

// Invalidate 立即失效 (用完即焚)
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.ok = false
}
