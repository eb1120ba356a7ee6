// File: internal/pkg/response/responser.go
package response

import (
	"context"
	"encoding/json"
	"time"

	"tsu-battle/internal/pkg/ctxkey"
	"tsu-battle/internal/pkg/i18n"
	"tsu-battle/internal/pkg/xerrors"
)

// EmptyData 表示成功响应中没有数据
type EmptyData struct{}

// ResponseResult 消息总线请求-应答的统一响应结构
type ResponseResult[T any] struct {
	Code        int    `json:"code"`                  // 业务响应码
	Message     string `json:"message"`               // 响应消息
	Data        *T     `json:"data,omitempty"`        // 响应数据，成功时返回
	Error       string `json:"error,omitempty"`       // 错误详情，失败时返回
	Recoverable bool   `json:"recoverable,omitempty"` // 可在本回合内修正后重新提交
	Timestamp   int64  `json:"timestamp"`             // Unix时间戳
	TraceId     string `json:"trace_id,omitempty"`    // 请求追踪ID
}

// Success 创建一个成功的响应
func Success[T any](ctx context.Context, data *T) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   i18n.GetErrorMessage(xerrors.CodeSuccess, i18n.GetLanguage(ctx)),
		Data:      data,
		Timestamp: time.Now().Unix(),
		TraceId:   ctxkey.GetString(ctx, ctxkey.TraceID),
	}
}

// Error 创建一个失败的响应
func Error[T any](code int, message string, err string) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      code,
		Message:   message,
		Error:     err,
		Timestamp: time.Now().Unix(),
	}
}

// FromError 把错误转换为响应，消息按请求语言本地化；非 AppError 统一视为内部错误
func FromError[T any](ctx context.Context, err error) *ResponseResult[T] {
	code := xerrors.CodeInternalError
	recoverable := false
	detail := ""
	if appErr, ok := xerrors.As(err); ok {
		code = appErr.Code
		recoverable = appErr.IsRecoverable()
		if appErr.Context != nil {
			if reason, ok := appErr.Context.Metadata["reason"].(string); ok {
				detail = reason
			}
		}
	}
	resp := Error[T](code.ToInt(), i18n.LocalizeError(ctx, err), detail)
	resp.Recoverable = recoverable
	resp.TraceId = ctxkey.GetString(ctx, ctxkey.TraceID)
	return resp
}

// Marshal 序列化响应；失败时退回到内部错误响应
func Marshal[T any](resp *ResponseResult[T]) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		fallback, _ := json.Marshal(Error[EmptyData](xerrors.CodeInternalError.ToInt(), xerrors.CodeInternalError.Message(), err.Error()))
		return fallback
	}
	return data
}
