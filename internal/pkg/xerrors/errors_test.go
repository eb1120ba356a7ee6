package xerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryByCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category string
		level    ErrorLevel
	}{
		{name: "行动校验错误", err: FromCode(CodeBattleMoveNoPP), category: CategoryValidation, level: LevelWarn},
		{name: "战斗状态错误", err: FromCode(CodeBattleNotActive), category: CategoryInvalidState, level: LevelWarn},
		{name: "数据错误", err: FromCode(CodeBattleDataInvalid), category: CategoryData, level: LevelError},
		{name: "外部服务错误", err: FromCode(CodeCacheError), category: "external", level: LevelCritical},
		{name: "参数错误", err: FromCode(CodeInvalidParams), category: "system", level: LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.level, tt.err.Level)
		})
	}
}

func TestBattleConstructors(t *testing.T) {
	t.Run("行动错误可恢复", func(t *testing.T) {
		err := NewActionError(CodeBattleTargetInvalid, "target fainted")
		assert.True(t, err.IsRecoverable())
		assert.True(t, IsValidationError(err))
		assert.Equal(t, "target fainted", err.Context.Metadata["reason"])
	})

	t.Run("战斗不存在与未进行中", func(t *testing.T) {
		notFound := NewBattleNotFoundError("b-1")
		assert.True(t, IsInvalidStateError(notFound))
		assert.Equal(t, "b-1", notFound.Context.BattleID)
		assert.False(t, notFound.IsRecoverable())

		notActive := NewBattleNotActiveError("b-2", "completed")
		assert.Equal(t, "completed", notActive.Context.Metadata["state"])
	})

	t.Run("数据错误保留原因", func(t *testing.T) {
		cause := errors.New("record missing")
		err := NewBattleDataError("move", "tackle", cause)
		assert.True(t, IsDataError(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "move", err.Context.Metadata["record_kind"])
		assert.Contains(t, err.Error(), "record missing")
	})

	t.Run("外部服务错误可重试", func(t *testing.T) {
		err := NewExternalServiceError("redis", nil)
		assert.True(t, err.IsRetryable())
		assert.True(t, err.IsCritical())
	})
}

func TestWrapAndAs(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternalError, "x"))

	original := FromCode(CodeBattleNotFound)
	wrapped := fmt.Errorf("outer: %w", original)
	assert.Same(t, original, Wrap(wrapped, CodeInternalError, "x"), "已是 AppError 时原样返回")

	plain := Wrap(errors.New("io"), CodeCacheError, "缓存读取失败")
	require.NotNil(t, plain)
	assert.Equal(t, CodeCacheError, plain.Code)
	assert.NotEmpty(t, plain.File)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.True(t, HasCode(wrapped, CodeBattleNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeBattleNotFound))
	assert.Same(t, original, got)
}

func TestWithContextCopies(t *testing.T) {
	base := FromCode(CodeInternalError)
	withCtx := base.WithContext(&ErrorContext{TraceID: "t-1"})
	assert.Nil(t, base.Context)
	assert.Equal(t, "t-1", withCtx.Context.TraceID)
}

func TestErrorList(t *testing.T) {
	list := NewErrorList()
	assert.NoError(t, list.ErrOrNil())

	list.Add(nil)
	list.Add(FromCode(CodeBattleMoveNoPP))
	assert.Equal(t, "[830005] 招式 PP 不足", list.Error())

	list.Add(FromCode(CodeBattleTargetInvalid))
	assert.Equal(t, "2 errors occurred", list.Error())
	assert.Equal(t, CodeBattleMoveNoPP, list.First().Code)
	assert.Error(t, list.ErrOrNil())
}
