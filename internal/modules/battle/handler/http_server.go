package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	custommiddleware "tsu-battle/internal/middleware"
	"tsu-battle/internal/pkg/i18n"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/security"
	"tsu-battle/internal/pkg/trace"
	"tsu-battle/internal/pkg/validator"
)

// HTTPConfig 网关配置
type HTTPConfig struct {
	// 开发环境下记录请求体
	Environment string
	CORSOrigins []string
	// 每个客户端每秒请求数，0 使用默认值
	RateLimit rate.Limit
	// 为空时 /healthz 始终返回 200
	Healthy func() bool
}

// NewEcho 组装战斗网关：/api/v1 下的战斗路由、/metrics 与 /healthz
func NewEcho(h *HTTPHandler, httpMetrics *metrics.HTTPMetrics, cfg HTTPConfig, logger log.Logger) *echo.Echo {
	if logger == nil {
		logger = log.GetLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = custommiddleware.ErrorHandler(logger)

	// 中间件顺序：追踪 → 指标 → 语言 → 日志 → 安全 → 限流 → panic 恢复
	loggingConfig := custommiddleware.DefaultLoggingConfig()
	loggingConfig.LogRequestBody = cfg.Environment == "development"

	e.Use(trace.Middleware())
	e.Use(metrics.Middleware(httpMetrics, nil))
	e.Use(i18n.Middleware())
	e.Use(custommiddleware.LoggingMiddleware(logger, loggingConfig))
	e.Use(security.SecurityHeadersMiddleware())
	e.Use(security.CORSMiddleware(security.DefaultCORSConfig(cfg.CORSOrigins...)))
	e.Use(custommiddleware.RateLimitMiddleware(cfg.RateLimit))
	e.Use(custommiddleware.RecoveryMiddleware(logger))

	e.GET("/metrics", metrics.EchoHandler())
	e.GET("/healthz", func(c echo.Context) error {
		if cfg.Healthy != nil && !cfg.Healthy() {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}
