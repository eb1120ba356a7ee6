package handler

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/pkg/ctxkey"
	"tsu-battle/internal/pkg/i18n"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/response"
	"tsu-battle/internal/pkg/trace"
	"tsu-battle/internal/pkg/validator"
	"tsu-battle/internal/pkg/xerrors"
)

// 请求-应答主题
const (
	SubjectStart    = "battle.rpc.start"
	SubjectAction   = "battle.rpc.action"
	SubjectAdvance  = "battle.rpc.advance"
	SubjectForceEnd = "battle.rpc.force_end"
	SubjectGet      = "battle.rpc.get"
)

// DefaultQueue 多实例部署时共享的队列组
const DefaultQueue = "battle-workers"

// RequestMeta 请求公共字段
type RequestMeta struct {
	Lang    string `json:"lang,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// StartRequest 开战请求
type StartRequest struct {
	RequestMeta
	service.StartBattleRequest
}

// ActionRequest 提交行动请求
type ActionRequest struct {
	RequestMeta
	BattleID string        `json:"battle_id" validate:"required"`
	Action   domain.Action `json:"action"`
}

// BattleRequest 针对单场战斗的请求
type BattleRequest struct {
	RequestMeta
	BattleID string `json:"battle_id" validate:"required"`
	Reason   string `json:"reason,omitempty"`
}

// BattleManager 请求处理依赖的战斗管理能力
type BattleManager interface {
	StartBattle(ctx context.Context, req service.StartBattleRequest) (*domain.Battle, error)
	SubmitAction(ctx context.Context, battleID string, action domain.Action) (*service.TurnReport, error)
	AdvanceTurn(ctx context.Context, battleID string) (*service.TurnReport, error)
	ForceEnd(ctx context.Context, battleID, reason string) (*domain.BattleEndResult, error)
	GetBattle(ctx context.Context, battleID string) (*domain.Battle, error)
}

// BattleHandler 通过 NATS 请求-应答暴露战斗管理
type BattleHandler struct {
	manager BattleManager
	timeout time.Duration
	logger  log.Logger
}

// NewBattleHandler 创建处理器
func NewBattleHandler(manager BattleManager, timeout time.Duration, logger log.Logger) *BattleHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleHandler{
		manager: manager,
		timeout: timeout,
		logger:  logger.With("component", "battle_handler"),
	}
}

// Register 以队列组订阅所有请求主题
func (h *BattleHandler) Register(conn *nats.Conn, queue string) ([]*nats.Subscription, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	subjects := []string{SubjectStart, SubjectAction, SubjectAdvance, SubjectForceEnd, SubjectGet}
	subs := make([]*nats.Subscription, 0, len(subjects))
	for _, subject := range subjects {
		sub, err := conn.QueueSubscribe(subject, queue, h.onMessage)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}
	h.logger.Info("战斗请求处理器已注册", "subjects", strings.Join(subjects, ","), "queue", queue)
	return subs, nil
}

func (h *BattleHandler) onMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	reply := h.Handle(ctx, msg.Subject, msg.Data)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(reply); err != nil {
		h.logger.Error("回复战斗请求失败", err, "subject", msg.Subject)
	}
}

// Handle 按主题分发请求并返回序列化后的响应
func (h *BattleHandler) Handle(ctx context.Context, subject string, data []byte) []byte {
	switch subject {
	case SubjectStart:
		var req StartRequest
		ctx, err := h.decode(ctx, data, &req, &req.RequestMeta)
		if err != nil {
			return h.fail(ctx, subject, err)
		}
		b, err := h.manager.StartBattle(ctx, req.StartBattleRequest)
		if err != nil {
			return h.fail(ctx, subject, err)
		}
		return response.Marshal(response.Success(ctx, b))

	case SubjectAction:
		var req ActionRequest
		ctx, err := h.decode(ctx, data, &req, &req.RequestMeta)
		if err != nil {
			return h.fail(ctx, subject, err)
		}
		ctx = ctxkey.WithValue(ctx, ctxkey.BattleID, req.BattleID)
		ctx = ctxkey.WithValue(ctx, ctxkey.ParticipantID, req.Action.ParticipantID)
		report, err := h.manager.SubmitAction(ctx, req.BattleID, req.Action)
		if err != nil {
			return h.fail(ctx, subject, err)
		}
		return response.Marshal(response.Success(ctx, report))

	case SubjectAdvance, SubjectForceEnd, SubjectGet:
		var req BattleRequest
		ctx, err := h.decode(ctx, data, &req, &req.RequestMeta)
		if err != nil {
			return h.fail(ctx, subject, err)
		}
		ctx = ctxkey.WithValue(ctx, ctxkey.BattleID, req.BattleID)
		switch subject {
		case SubjectAdvance:
			report, err := h.manager.AdvanceTurn(ctx, req.BattleID)
			if err != nil {
				return h.fail(ctx, subject, err)
			}
			return response.Marshal(response.Success(ctx, report))
		case SubjectForceEnd:
			end, err := h.manager.ForceEnd(ctx, req.BattleID, req.Reason)
			if err != nil {
				return h.fail(ctx, subject, err)
			}
			return response.Marshal(response.Success(ctx, end))
		default:
			b, err := h.manager.GetBattle(ctx, req.BattleID)
			if err != nil {
				return h.fail(ctx, subject, err)
			}
			return response.Marshal(response.Success(ctx, b))
		}
	}
	return h.fail(ctx, subject, xerrors.NewInvalidArgumentError("subject", "未知的请求主题: "+subject))
}

// decode 解析请求体并把语言、追踪 ID 写入 ctx
func (h *BattleHandler) decode(ctx context.Context, data []byte, out interface{}, meta *RequestMeta) (context.Context, error) {
	if err := json.Unmarshal(data, out); err != nil {
		return ctx, xerrors.NewWithError(xerrors.CodeInvalidParams, "请求格式错误", err)
	}
	ctx = i18n.WithLanguage(ctx, i18n.ParseLanguageCode(meta.Lang))
	ctx = trace.EnsureTraceID(ctx, meta.TraceID)
	if err := validator.Struct(out); err != nil {
		return ctx, xerrors.NewInvalidArgumentError("request", validator.TranslateValidationError(err))
	}
	return ctx, nil
}

func (h *BattleHandler) fail(ctx context.Context, subject string, err error) []byte {
	if appErr, ok := xerrors.As(err); ok {
		log.LogAppError(ctx, h.logger, "战斗请求处理失败", appErr.WithService("battle", subject))
	} else {
		h.logger.ErrorContext(ctx, "战斗请求处理失败", "subject", subject, "error", err)
	}
	return response.Marshal(response.FromError[response.EmptyData](ctx, err))
}
