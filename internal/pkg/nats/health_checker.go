package nats

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"tsu-battle/internal/pkg/log"
)

// ConnStatus 可检查的连接
type ConnStatus interface {
	IsConnected() bool
	IsClosed() bool
}

var _ ConnStatus = (*nats.Conn)(nil)

// HealthChecker 消息总线连接健康检查，状态变化时写日志
// 战斗结算不依赖消息总线，断开期间事件发布会被跳过
type HealthChecker struct {
	conn     ConnStatus
	logger   log.Logger
	interval time.Duration

	mu        sync.RWMutex
	isHealthy bool
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(conn ConnStatus, checkInterval time.Duration, logger log.Logger) *HealthChecker {
	if checkInterval <= 0 {
		checkInterval = 10 * time.Second
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	hc := &HealthChecker{
		conn:     conn,
		logger:   logger.With("component", "nats_health"),
		interval: checkInterval,
		stopCh:   make(chan struct{}),
	}
	hc.isHealthy = hc.probe()
	return hc
}

// Start 周期检查直到 ctx 结束或 Stop
func (hc *HealthChecker) Start(ctx context.Context) {
	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hc.stopCh:
			return
		case <-ticker.C:
			hc.Check()
		}
	}
}

// Stop 停止健康检查，可重复调用
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() { close(hc.stopCh) })
}

// IsHealthy 最近一次检查的结果
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.isHealthy
}

// Check 立即检查一次并返回结果
func (hc *HealthChecker) Check() bool {
	healthy := hc.probe()

	hc.mu.Lock()
	changed := healthy != hc.isHealthy
	hc.isHealthy = healthy
	hc.mu.Unlock()

	if changed {
		if healthy {
			hc.logger.Info("消息总线连接已恢复")
		} else {
			hc.logger.Warn("消息总线连接不可用，战斗事件将被跳过")
		}
	}
	return healthy
}

func (hc *HealthChecker) probe() bool {
	return hc.conn != nil && hc.conn.IsConnected() && !hc.conn.IsClosed()
}

// WaitForHealthy 等待连接恢复健康
func (hc *HealthChecker) WaitForHealthy(ctx context.Context, maxWait time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if hc.Check() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
