// File: internal/pkg/response/echo.go
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tsu-battle/internal/pkg/xerrors"
)

// Echo 框架适配器 - 简化 Echo Handler 中的响应处理

// EchoOK Echo 成功响应
func EchoOK[T any](c echo.Context, data *T) error {
	return c.JSON(http.StatusOK, Success(c.Request().Context(), data))
}

// EchoError Echo 错误响应，HTTP 状态码由错误分类决定
func EchoError(c echo.Context, err error) error {
	return c.JSON(HTTPStatus(err), FromError[EmptyData](c.Request().Context(), err))
}

// EchoBadRequest Echo 400 错误响应
func EchoBadRequest(c echo.Context, field, message string) error {
	return EchoError(c, xerrors.NewInvalidArgumentError(field, message))
}

// HTTPStatus 错误对应的 HTTP 状态码
func HTTPStatus(err error) int {
	appErr, ok := xerrors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case xerrors.CodeInvalidParams:
		return http.StatusBadRequest
	case xerrors.CodeResourceNotFound, xerrors.CodeBattleNotFound:
		return http.StatusNotFound
	case xerrors.CodeBattleNotActive:
		return http.StatusConflict
	case xerrors.CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	}
	switch appErr.Category {
	case xerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case xerrors.CategoryInvalidState:
		return http.StatusConflict
	case xerrors.CategoryData:
		return http.StatusFailedDependency
	}
	if appErr.IsRetryable() {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
