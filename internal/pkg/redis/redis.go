package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tsu-battle/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// Nil 键不存在
const Nil = redis.Nil

// Config Redis 配置
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client Redis 客户端封装
type Client struct {
	*redis.Client
	service string
	metrics *metrics.ResourceMetrics
}

// NewClient 创建 Redis 客户端
func NewClient(cfg Config, service string, rm *metrics.ResourceMetrics) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	if service == "" {
		service = metrics.GetServiceName()
	}

	return &Client{
		Client:  rdb,
		service: service,
		metrics: rm,
	}, nil
}

// SetWithTTL 设置键值对，带过期时间
func (c *Client) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.Set(ctx, key, value, ttl).Err()
	c.record("SET", start, err)
	return err
}

// GetString 获取字符串值
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	start := time.Now()
	result, err := c.Get(ctx, key).Result()
	c.record("GET", start, err)
	return result, err
}

// MGetStrings 批量获取，不存在的键对应位置为空串且 found 为 false
func (c *Client) MGetStrings(ctx context.Context, keys ...string) (values []string, found []bool, err error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	start := time.Now()
	raw, err := c.MGet(ctx, keys...).Result()
	c.record("MGET", start, err)
	if err != nil {
		return nil, nil, err
	}

	values = make([]string, len(raw))
	found = make([]bool, len(raw))
	for i, v := range raw {
		if s, ok := v.(string); ok {
			values[i] = s
			found[i] = true
		}
	}
	return values, found, nil
}

// DeleteKey 删除键
func (c *Client) DeleteKey(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.Del(ctx, keys...).Err()
	c.record("DEL", start, err)
	return err
}

// RecordPoolStats 上报连接池状态
func (c *Client) RecordPoolStats() {
	if c.metrics == nil {
		return
	}
	stats := c.PoolStats()
	c.metrics.RecordRedisPoolStats(int(stats.TotalConns), int(stats.IdleConns), int(stats.StaleConns), c.service)
}

func (c *Client) record(operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	success := err == nil || errors.Is(err, redis.Nil)
	c.metrics.RecordRedisOperation(operation, success, time.Since(start), c.service)
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.RecordRedisError("nil", c.service)
	case err != nil:
		c.metrics.RecordRedisError("operation_error", c.service)
	}
}
