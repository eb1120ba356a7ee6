// File: internal/pkg/i18n/error_messages.go
package i18n

import (
	"context"

	"tsu-battle/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// ErrorMessages 错误消息的多语言映射
var ErrorMessages = map[xerrors.ErrorCode]map[language.Tag]string{
	// 1xxxxx: 通用错误码
	xerrors.CodeSuccess:           {language.Chinese: "操作成功", language.English: "Operation successful"},
	xerrors.CodeInternalError:     {language.Chinese: "内部服务错误", language.English: "Internal server error"},
	xerrors.CodeInvalidParams:     {language.Chinese: "参数错误", language.English: "Invalid parameters"},
	xerrors.CodeResourceNotFound:  {language.Chinese: "资源不存在", language.English: "Resource not found"},
	xerrors.CodeRateLimitExceeded: {language.Chinese: "请求过于频繁", language.English: "Too many requests"},

	// 7xxxxx: 外部服务错误码
	xerrors.CodeExternalServiceError: {language.Chinese: "外部服务错误", language.English: "External service error"},
	xerrors.CodeCacheError:           {language.Chinese: "缓存服务错误", language.English: "Cache service error"},
	xerrors.CodeMessageQueueError:    {language.Chinese: "消息队列错误", language.English: "Message queue error"},

	// 战斗行动 (830xxx)
	xerrors.CodeBattleActionInvalid:   {language.Chinese: "行动无效", language.English: "Invalid action"},
	xerrors.CodeBattleActionDuplicate: {language.Chinese: "本回合已提交行动", language.English: "Action already submitted this turn"},
	xerrors.CodeBattleActorFainted:    {language.Chinese: "行动怪兽已倒下", language.English: "The acting monster has fainted"},
	xerrors.CodeBattleMoveNotFound:    {language.Chinese: "招式不在招式列表中", language.English: "Move is not in the moveset"},
	xerrors.CodeBattleMoveNoPP:        {language.Chinese: "招式 PP 不足", language.English: "Move has no PP left"},
	xerrors.CodeBattleTargetInvalid:   {language.Chinese: "目标无效", language.English: "Invalid target"},
	xerrors.CodeBattleItemUnavailable: {language.Chinese: "道具不可用", language.English: "Item unavailable"},
	xerrors.CodeBattleSwitchInvalid:   {language.Chinese: "无法替换", language.English: "Cannot switch"},
	xerrors.CodeBattleEscapeBlocked:   {language.Chinese: "无法逃跑", language.English: "Cannot escape"},
	xerrors.CodeBattleMoveRestricted:  {language.Chinese: "招式被限制", language.English: "Move is restricted"},

	// 战斗状态 (831xxx)
	xerrors.CodeBattleNotFound:  {language.Chinese: "战斗不存在", language.English: "Battle not found"},
	xerrors.CodeBattleNotActive: {language.Chinese: "战斗未处于进行中", language.English: "Battle is not active"},

	// 数据 (832xxx)
	xerrors.CodeBattleDataInvalid: {language.Chinese: "战斗数据无效", language.English: "Battle data is invalid"},
}

// GetErrorMessage 获取错误码对应语言的消息
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	if messages, ok := ErrorMessages[code]; ok {
		if msg, ok := messages[lang]; ok {
			return msg
		}
		// 如果指定语言没有翻译，返回中文（默认）
		if msg, ok := messages[language.Chinese]; ok {
			return msg
		}
	}
	// 如果完全没有定义，返回通用错误消息
	if lang == language.English {
		return "Unknown error"
	}
	return "未知错误"
}

// LocalizeError 返回面向玩家的错误文案，非 AppError 统一为内部错误
func LocalizeError(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	lang := GetLanguage(ctx)
	if appErr, ok := xerrors.As(err); ok {
		return GetErrorMessage(appErr.Code, lang)
	}
	return GetErrorMessage(xerrors.CodeInternalError, lang)
}
