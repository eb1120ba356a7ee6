package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tsu-battle/internal/pkg/ctxkey"
	"tsu-battle/internal/pkg/log"
)

// LoggingConfig 日志配置
type LoggingConfig struct {
	// SkipPaths 跳过日志记录的路径前缀
	SkipPaths []string

	// LogRequestBody 是否记录请求体（仅开发环境）
	LogRequestBody bool

	// MaxBodySize 最大记录的 body 大小（字节）
	MaxBodySize int64
}

// DefaultLoggingConfig 默认日志配置
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths: []string{
			"/healthz",
			"/metrics",
		},
		MaxBodySize: 10 * 1024, // 10KB
	}
}

// LoggingMiddleware 带配置的请求日志中间件，trace_id 与 battle_id 由日志 handler 从 context 注入
func LoggingMiddleware(logger log.Logger, config *LoggingConfig) echo.MiddlewareFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	logger = logger.With("component", "http")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if shouldSkip(c.Request().URL.Path, config.SkipPaths) {
				return next(c)
			}

			if battleID := c.Param("id"); battleID != "" {
				ctx := ctxkey.WithValue(c.Request().Context(), ctxkey.BattleID, battleID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			ctx := c.Request().Context()

			fields := []any{
				log.String("method", c.Request().Method),
				log.String("route", c.Path()),
				log.String("client_ip", c.RealIP()),
			}
			if config.LogRequestBody {
				if body := readAndRestoreBody(c, config.MaxBodySize); body != "" {
					fields = append(fields, log.String("request_body", body))
				}
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// 先写出错误响应，日志才能拿到最终状态码
				c.Error(err)
			}

			status := c.Response().Status
			fields = append(fields,
				log.Int("status_code", status),
				log.Duration("duration", time.Since(start).Milliseconds()),
			)
			switch {
			case status >= 500:
				logger.ErrorContext(ctx, "请求完成（服务器错误）", append(fields, log.Any("error", err))...)
			case status >= 400:
				logger.WarnContext(ctx, "请求完成（客户端错误）", fields...)
			default:
				logger.InfoContext(ctx, "请求完成", fields...)
			}
			return nil
		}
	}
}

// shouldSkip 检查是否应该跳过日志记录
func shouldSkip(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}

// readAndRestoreBody 读取并恢复请求体
func readAndRestoreBody(c echo.Context, maxSize int64) string {
	if c.Request().Body == nil {
		return ""
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(c.Request().Body, maxSize))
	if err != nil {
		return ""
	}
	rest, _ := io.ReadAll(c.Request().Body)
	c.Request().Body = io.NopCloser(bytes.NewReader(append(bodyBytes, rest...)))

	body := string(bodyBytes)
	if len(rest) > 0 {
		body += "... (truncated)"
	}
	return body
}
