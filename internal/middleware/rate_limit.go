package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"tsu-battle/internal/pkg/xerrors"
)

// DefaultRateLimit 每个客户端每秒允许的请求数
const DefaultRateLimit rate.Limit = 50

// RateLimitMiddleware 按客户端 IP 限流，limit <= 0 时使用默认值
func RateLimitMiddleware(limit rate.Limit) echo.MiddlewareFunc {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	config := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(limit),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return xerrors.FromCode(xerrors.CodeRateLimitExceeded).
				WithService("http", "rate_limiter").
				WithMetadata("client_ip", identifier)
		},
	}

	return middleware.RateLimiterWithConfig(config)
}
