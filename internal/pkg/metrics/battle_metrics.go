// File: internal/pkg/metrics/battle_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BattleMetrics 战斗引擎指标收集器
type BattleMetrics struct {
	// 开始的战斗数（按对手类型：wild/npc/player）
	BattlesStarted *prometheus.CounterVec

	// 结束的战斗数（按结束状态和原因）
	BattlesEnded *prometheus.CounterVec

	// 进行中的战斗数
	ActiveBattles *prometheus.GaugeVec

	// 结算的回合数
	TurnsResolved *prometheus.CounterVec

	// 单回合结算耗时
	TurnDuration *prometheus.HistogramVec

	// 行动数（按类型和结果）
	Actions *prometheus.CounterVec

	// 捕获尝试（按结果）
	CaptureAttempts *prometheus.CounterVec

	// 超时后由 AI 代替提交的行动数
	TimeoutFallbacks *prometheus.CounterVec
}

// TurnBuckets 回合结算是纯计算，集中在亚毫秒到几十毫秒
// 单位：秒
var TurnBuckets = []float64{
	0.0001, // 0.1ms
	0.0005, // 0.5ms
	0.001,  // 1ms
	0.005,  // 5ms
	0.01,   // 10ms
	0.05,   // 50ms
	0.1,    // 100ms
}

// NewBattleMetrics 创建战斗指标收集器
func NewBattleMetrics(namespace string) *BattleMetrics {
	return NewBattleMetricsWithRegistry(namespace, GetRegisterer())
}

// NewBattleMetricsWithRegistry 创建战斗指标收集器（使用自定义注册表）
func NewBattleMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BattleMetrics {
	factory := promauto.With(registerer)

	return &BattleMetrics{
		BattlesStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "started_total",
				Help:      "Total number of battles started by opponent kind",
			},
			[]string{"opponent", "service"},
		),

		BattlesEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "ended_total",
				Help:      "Total number of battles ended by state and reason",
			},
			[]string{"state", "reason", "service"},
		),

		ActiveBattles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "active",
				Help:      "Current number of active battles",
			},
			[]string{"service"},
		),

		TurnsResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "turns_resolved_total",
				Help:      "Total number of resolved turns",
			},
			[]string{"service"},
		),

		TurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "turn_duration_seconds",
				Help:      "Turn resolution duration in seconds",
				Buckets:   TurnBuckets,
			},
			[]string{"service"},
		),

		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "actions_total",
				Help:      "Total number of actions by kind and outcome (executed/skipped/rejected)",
			},
			[]string{"kind", "outcome", "service"},
		),

		CaptureAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "capture_attempts_total",
				Help:      "Total number of capture attempts by result (success/failure)",
			},
			[]string{"result", "service"},
		),

		TimeoutFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "timeout_fallbacks_total",
				Help:      "Total number of actions chosen by AI after a turn timeout",
			},
			[]string{"service"},
		),
	}
}

// RecordBattleStarted 记录战斗开始
func (m *BattleMetrics) RecordBattleStarted(opponent, service string) {
	service = normalizeServiceName(service)
	m.BattlesStarted.WithLabelValues(opponent, service).Inc()
	m.ActiveBattles.WithLabelValues(service).Inc()
}

// RecordBattleEnded 记录战斗结束
//
// 参数:
//   - state: 结束状态 ("completed", "cancelled")
//   - reason: 结束原因 ("knockout", "draw", "fled", "captured", "forced", "turn_limit")
func (m *BattleMetrics) RecordBattleEnded(state, reason, service string) {
	service = normalizeServiceName(service)
	m.BattlesEnded.WithLabelValues(state, reason, service).Inc()
	m.ActiveBattles.WithLabelValues(service).Dec()
}

// RecordTurn 记录一次回合结算
func (m *BattleMetrics) RecordTurn(duration time.Duration, service string) {
	service = normalizeServiceName(service)
	m.TurnsResolved.WithLabelValues(service).Inc()
	m.TurnDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordAction 记录行动
func (m *BattleMetrics) RecordAction(kind, outcome, service string) {
	service = normalizeServiceName(service)
	m.Actions.WithLabelValues(kind, outcome, service).Inc()
}

// RecordCapture 记录捕获尝试
func (m *BattleMetrics) RecordCapture(success bool, service string) {
	service = normalizeServiceName(service)
	result := "success"
	if !success {
		result = "failure"
	}
	m.CaptureAttempts.WithLabelValues(result, service).Inc()
}

// RecordTimeoutFallback 记录超时代打
func (m *BattleMetrics) RecordTimeoutFallback(count int, service string) {
	if count <= 0 {
		return
	}
	service = normalizeServiceName(service)
	m.TimeoutFallbacks.WithLabelValues(service).Add(float64(count))
}
