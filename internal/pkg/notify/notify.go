package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
)

var (
	ncMu sync.RWMutex
	nc   *nats.Conn
)

// SetNatsConn 设置全局 NATS 连接（由 main 提供）
func SetNatsConn(conn *nats.Conn) {
	ncMu.Lock()
	defer ncMu.Unlock()
	nc = conn
}

// Connected 当前是否有可用连接
func Connected() bool {
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	return conn != nil && conn.IsConnected()
}

// PublishBattleEvent 发布战斗相关事件，返回是否实际发送
func PublishBattleEvent(ctx context.Context, subject string, payload interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ncMu.RLock()
	conn := nc
	ncMu.RUnlock()
	if conn == nil {
		return false, nil // 没有连接时静默降级
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshal battle event failed: %w", err)
	}
	if err := conn.Publish(subject, data); err != nil {
		return false, err
	}
	return true, nil
}

// Default subjects
const (
	SubjectBattleTurn = "battle.turn"
	SubjectBattleEnd  = "battle.end"
)
