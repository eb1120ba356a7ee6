// File: internal/pkg/xerrors/codes.go
package xerrors

import "fmt"

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// IsValid 检查错误码是否在预定义列表中
func (c ErrorCode) IsValid() bool {
	_, exists := codeMessages[c]
	return exists
}

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// ToInt 转换为 int（用于 JSON 序列化等场景）
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 业务错误码统一定义
// 按模块或领域对错误码进行分段，便于管理。
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求过于频繁

	// 6xxxxx: 业务逻辑错误码
	CodeDataIntegrityError ErrorCode = 600002 // 数据完整性错误

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误
	CodeCacheError           ErrorCode = 700004 // 缓存服务错误
	CodeMessageQueueError    ErrorCode = 700005 // 消息队列错误

	// 83xxxx: 战斗相关
	// 830xxx 行动校验错误，回合窗口内可重新提交
	CodeBattleActionInvalid   ErrorCode = 830001 // 行动无效
	CodeBattleActionDuplicate ErrorCode = 830002 // 本回合已提交行动
	CodeBattleActorFainted    ErrorCode = 830003 // 行动怪兽已倒下
	CodeBattleMoveNotFound    ErrorCode = 830004 // 招式不在招式列表中
	CodeBattleMoveNoPP        ErrorCode = 830005 // 招式 PP 不足
	CodeBattleTargetInvalid   ErrorCode = 830006 // 目标无效
	CodeBattleItemUnavailable ErrorCode = 830007 // 道具不可用
	CodeBattleSwitchInvalid   ErrorCode = 830008 // 无法替换
	CodeBattleEscapeBlocked   ErrorCode = 830009 // 无法逃跑
	CodeBattleMoveRestricted  ErrorCode = 830010 // 招式被限制

	// 831xxx 战斗状态错误，不可重试
	CodeBattleNotFound  ErrorCode = 831001 // 战斗不存在
	CodeBattleNotActive ErrorCode = 831002 // 战斗未处于进行中

	// 832xxx 协作方数据错误
	CodeBattleDataInvalid ErrorCode = 832001 // 战斗数据无效
)

// -----------------------------------------------------------------------------
// 错误消息映射
// -----------------------------------------------------------------------------
var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeResourceNotFound:  "资源不存在",
	CodeRateLimitExceeded: "请求过于频繁",

	CodeDataIntegrityError: "数据完整性错误",

	CodeExternalServiceError: "外部服务错误",
	CodeCacheError:           "缓存服务错误",
	CodeMessageQueueError:    "消息队列错误",

	CodeBattleActionInvalid:   "行动无效",
	CodeBattleActionDuplicate: "本回合已提交行动",
	CodeBattleActorFainted:    "行动怪兽已倒下",
	CodeBattleMoveNotFound:    "招式不在招式列表中",
	CodeBattleMoveNoPP:        "招式 PP 不足",
	CodeBattleTargetInvalid:   "目标无效",
	CodeBattleItemUnavailable: "道具不可用",
	CodeBattleSwitchInvalid:   "无法替换",
	CodeBattleEscapeBlocked:   "无法逃跑",
	CodeBattleMoveRestricted:  "招式被限制",
	CodeBattleNotFound:        "战斗不存在",
	CodeBattleNotActive:       "战斗未处于进行中",
	CodeBattleDataInvalid:     "战斗数据无效",
}

// 辅助函数
// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 600000 && code < 700000:
		return "business"
	case code >= 700000 && code < 800000:
		return "external"
	case code >= 830000 && code < 831000:
		return CategoryValidation
	case code >= 831000 && code < 832000:
		return CategoryInvalidState
	case code >= 832000 && code < 833000:
		return CategoryData
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code == CodeInvalidParams:
		return LevelWarn
	case code >= 830000 && code < 832000: // 玩家提交的行动问题
		return LevelWarn
	case code >= 700001 && code < 800000: // 外部服务错误
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		CodeInternalError:        true,
		CodeExternalServiceError: true,
		CodeCacheError:           true,
		CodeMessageQueueError:    true,
	}
	return retryableCodes[code]
}
