// File: internal/pkg/metrics/error_metrics.go
package metrics

import (
	"strconv"

	"tsu-battle/internal/pkg/xerrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrorMetrics 错误监控指标
type ErrorMetrics struct {
	// 错误总数（按操作与错误码）
	ErrorsByCode *prometheus.CounterVec

	// 错误总数（按分类：validation/invalid_state/data）
	ErrorsByCategory *prometheus.CounterVec

	// 严重错误计数
	CriticalErrors *prometheus.CounterVec
}

// NewErrorMetrics 创建新的错误指标收集器
func NewErrorMetrics(namespace string) *ErrorMetrics {
	return NewErrorMetricsWithRegistry(namespace, GetRegisterer())
}

// NewErrorMetricsWithRegistry 创建新的错误指标收集器（使用自定义注册表）
func NewErrorMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *ErrorMetrics {
	factory := promauto.With(registerer)

	return &ErrorMetrics{
		ErrorsByCode: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by operation and error code",
			},
			[]string{"service", "operation", "code", "level"},
		),

		ErrorsByCategory: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_category_total",
				Help:      "Total number of errors by category (validation, invalid_state, data, etc.)",
			},
			[]string{"service", "category"},
		),

		CriticalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "critical_errors_total",
				Help:      "Total number of critical errors",
			},
			[]string{"service", "operation", "code"},
		),
	}
}

// RecordError 记录错误指标
func (m *ErrorMetrics) RecordError(appErr *xerrors.AppError, operation, service string) {
	if appErr == nil {
		return
	}

	service = normalizeServiceName(service)
	if operation == "" {
		operation = "unknown"
	}
	code := strconv.Itoa(appErr.Code.ToInt())

	m.ErrorsByCode.WithLabelValues(service, operation, code, appErr.Level.String()).Inc()

	if appErr.Category != "" {
		m.ErrorsByCategory.WithLabelValues(service, appErr.Category).Inc()
	}

	if appErr.IsCritical() {
		m.CriticalErrors.WithLabelValues(service, operation, code).Inc()
	}
}
