package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/xerrors"
)

// RecoveryMiddleware 捕获 panic 并转换为内部错误交给错误处理器
func RecoveryMiddleware(logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(c.Request().Context(), "请求处理 panic",
						log.Any("panic_value", r),
						log.String("path", c.Request().URL.Path),
						log.String("method", c.Request().Method),
					)
					err = xerrors.FromCode(xerrors.CodeInternalError).
						WithService("http", "recovery").
						WithMetadata("panic_value", fmt.Sprintf("%v", r))
				}
			}()
			return next(c)
		}
	}
}
