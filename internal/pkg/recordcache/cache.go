package recordcache

import (
	"context"
	"strings"
	"sync"
	"time"

	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache 线程安全的 TTL 缓存，用于复用只读的怪兽/招式/道具定义。
// 命中时不刷新 TTL，定义更新后最多延迟一个 TTL 生效。
type Cache[V any] struct {
	name    string
	service string
	ttl     time.Duration
	metrics *metrics.ResourceMetrics
	logger  log.Logger
	clock   func() time.Time
	mu      sync.RWMutex
	store   map[string]*entry[V]
}

// New 返回 Cache 实例，metrics 可为 nil。
func New[V any](name string, ttl time.Duration, m *metrics.ResourceMetrics, logger log.Logger) *Cache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Cache[V]{
		name:    normalizeName(name),
		service: metrics.GetServiceName(),
		ttl:     ttl,
		metrics: m,
		logger:  logger.With("component", "record_cache", "cache", normalizeName(name)),
		clock:   time.Now,
		store:   make(map[string]*entry[V]),
	}
}

// Get 返回缓存值。
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		c.record("miss")
		return zero, false
	}

	c.mu.RLock()
	value, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		c.record("miss")
		return zero, false
	}

	if c.clock().After(value.expiresAt) {
		c.record("expired")
		c.logger.DebugContext(ctx, "record cache expired", log.String("key", key))
		c.mu.Lock()
		// 期间可能已被重新写入
		if current, ok := c.store[key]; ok && current == value {
			delete(c.store, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	c.record("hit")
	return value.value, true
}

// Set 写入或覆盖缓存。
func (c *Cache[V]) Set(ctx context.Context, key string, value V) {
	if key == "" {
		return
	}
	c.mu.Lock()
	c.store[key] = &entry[V]{
		value:     value,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()
	c.logger.DebugContext(ctx, "record cache updated", log.String("key", key))
}

// Delete 主动剔除缓存。
func (c *Cache[V]) Delete(ctx context.Context, key, reason string) {
	c.mu.Lock()
	_, ok := c.store[key]
	delete(c.store, key)
	c.mu.Unlock()
	if ok {
		c.logger.InfoContext(ctx, "record cache evicted",
			log.String("key", key),
			log.String("reason", reason))
	}
}

// Len 当前条目数（含已过期未清理的条目）。
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache[V]) record(result string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(c.name, result, c.service)
	}
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	return name
}
