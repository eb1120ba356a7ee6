// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxPaths 路由标签的最大基数
const DefaultMaxPaths = 100

// HeaderRoutePattern 回传匹配到的路由模板
const HeaderRoutePattern = "X-Route-Pattern"

// Middleware Echo 中间件 - 按路由模板记录请求数、延迟与进行中的请求数
// 健康检查与 /metrics 端点不计入
func Middleware(m *HTTPMetrics, tracker *PathLimitTracker) echo.MiddlewareFunc {
	if tracker == nil {
		tracker = NewPathLimitTracker(DefaultMaxPaths)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil || IsHealthCheckEndpoint(c.Request().URL.Path) {
				return next(c)
			}

			service := GetServiceName()
			m.IncInProgress(service)
			defer m.DecInProgress(service)

			route := tracker.TrackPath(NormalizeRoute(c.Path()))
			c.Response().Header().Set(HeaderRoutePattern, route)

			start := time.Now()
			err := next(c)
			if err != nil {
				// 交给 echo 的错误处理器写出状态码
				c.Error(err)
			}
			m.RecordRequest(service, route, c.Request().Method, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

// Handler 返回 Prometheus metrics HTTP 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoHandler Echo 框架的 Prometheus metrics 处理器
func EchoHandler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
