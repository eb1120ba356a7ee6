package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/response"
	"tsu-battle/internal/pkg/xerrors"
)

// ErrorHandler 统一错误处理，所有错误都以 ResponseResult 结构写出
func ErrorHandler(logger log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		ctx := c.Request().Context()

		var appErr *xerrors.AppError
		switch e := err.(type) {
		case *echo.HTTPError:
			appErr = convertEchoError(e)
		default:
			var ok bool
			if appErr, ok = xerrors.As(err); !ok {
				appErr = xerrors.NewWithError(xerrors.CodeInternalError, "系统内部错误", err).
					WithService("http", "error_handler")
				logger.ErrorContext(ctx, "未处理的错误",
					log.Any("original_error", err),
					log.String("error_type", fmt.Sprintf("%T", err)),
				)
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(response.HTTPStatus(appErr))
			return
		}
		_ = response.EchoError(c, appErr)
	}
}

// convertEchoError 将 Echo 错误转换为业务错误
func convertEchoError(echoErr *echo.HTTPError) *xerrors.AppError {
	message := fmt.Sprintf("%v", echoErr.Message)
	switch echoErr.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return xerrors.FromCode(xerrors.CodeInvalidParams).WithMetadata("echo_message", message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return xerrors.FromCode(xerrors.CodeResourceNotFound).WithMetadata("echo_message", message)
	case http.StatusTooManyRequests:
		return xerrors.FromCode(xerrors.CodeRateLimitExceeded).WithMetadata("echo_message", message)
	default:
		return xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_code", fmt.Sprintf("%d", echoErr.Code)).
			WithMetadata("echo_message", message)
	}
}
