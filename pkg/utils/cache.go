package utils

import (
	"sync"
	"sync/atomic"
	"time"
)

// TTLCache 并发安全的内存缓存，滑动过期：每次命中都会续期
// 过期项在读取时懒删除，或由 Sweep 批量清理
type TTLCache[V any] struct {
	items sync.Map // key -> *cacheItem[V]
	ttl   time.Duration
	now   func() time.Time
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem[V any] struct {
	value      V
	expiration atomic.Int64 // UnixNano
}

// NewTTLCache 创建缓存
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{ttl: ttl, now: time.Now}
}

// Set 设置缓存
func (c *TTLCache[V]) Set(key string, value V) {
	item := &cacheItem[V]{value: value}
	item.expiration.Store(c.now().Add(c.ttl).UnixNano())
	c.items.Store(key, item)
}

// Get 获取缓存并续期
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	val, ok := c.items.Load(key)
	if !ok {
		return zero, false
	}
	item := val.(*cacheItem[V])

	now := c.now()
	if now.UnixNano() > item.expiration.Load() {
		c.items.CompareAndDelete(key, item) // 懒删除
		return zero, false
	}
	item.expiration.Store(now.Add(c.ttl).UnixNano())
	return item.value, true
}

// Delete 删除缓存 (用完即焚)
func (c *TTLCache[V]) Delete(key string) {
	c.items.Delete(key)
}

// Sweep 清理所有过期项，返回清理数量；onEvict 可为 nil
func (c *TTLCache[V]) Sweep(onEvict func(key string, value V)) int {
	now := c.now().UnixNano()
	removed := 0
	c.items.Range(func(k, v any) bool {
		item := v.(*cacheItem[V])
		if now > item.expiration.Load() && c.items.CompareAndDelete(k, item) {
			removed++
			if onEvict != nil {
				onEvict(k.(string), item.value)
			}
		}
		return true
	})
	return removed
}

// Len 当前条目数（含尚未清理的过期项）
func (c *TTLCache[V]) Len() int {
	n := 0
	c.items.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
