// File: internal/pkg/i18n/middleware.go
package i18n

import (
	"github.com/labstack/echo/v4"
)

// Middleware Echo 中间件 - 查询参数 lang 优先，其次 Accept-Language
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := ParseAcceptLanguage(c.Request().Header.Get("Accept-Language"))
			if code := c.QueryParam("lang"); code != "" {
				lang = ParseLanguageCode(code)
			}

			c.SetRequest(c.Request().WithContext(WithLanguage(c.Request().Context(), lang)))
			c.Response().Header().Set("Content-Language", GetLanguageCode(lang))
			return next(c)
		}
	}
}
