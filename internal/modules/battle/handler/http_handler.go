package handler

import (
	"github.com/labstack/echo/v4"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/pkg/ctxkey"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/response"
	"tsu-battle/internal/pkg/validator"
)

// ForceEndRequest 强制结束请求体
type ForceEndRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

// HTTPHandler 通过 HTTP 暴露战斗管理，与 NATS 处理器共享同一个 BattleManager
type HTTPHandler struct {
	manager BattleManager
	logger  log.Logger
}

// NewHTTPHandler 创建 HTTP 处理器
func NewHTTPHandler(manager BattleManager, logger log.Logger) *HTTPHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &HTTPHandler{
		manager: manager,
		logger:  logger.With("component", "battle_http_handler"),
	}
}

// RegisterRoutes 注册战斗路由
func (h *HTTPHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/battles", h.StartBattle)
	g.GET("/battles/:id", h.GetBattle)
	g.POST("/battles/:id/actions", h.SubmitAction)
	g.POST("/battles/:id/advance", h.AdvanceTurn)
	g.POST("/battles/:id/end", h.ForceEnd)
}

// StartBattle 开战
// @Summary 开始战斗
// @Tags 战斗
// @Accept json
// @Produce json
// @Param request body service.StartBattleRequest true "开战请求"
// @Success 200 {object} response.ResponseResult[domain.Battle]
// @Router /api/v1/battles [post]
func (h *HTTPHandler) StartBattle(c echo.Context) error {
	var req service.StartBattleRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, "request", "请求格式错误")
	}
	b, err := h.manager.StartBattle(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return response.EchoOK(c, b)
}

// GetBattle 查询战斗快照
// @Summary 查询战斗
// @Tags 战斗
// @Produce json
// @Param id path string true "战斗ID"
// @Success 200 {object} response.ResponseResult[domain.Battle]
// @Router /api/v1/battles/{id} [get]
func (h *HTTPHandler) GetBattle(c echo.Context) error {
	b, err := h.manager.GetBattle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.EchoOK(c, b)
}

// SubmitAction 提交行动；拒绝时状态未变，可在本回合内修正后重新提交
// @Summary 提交行动
// @Tags 战斗
// @Accept json
// @Produce json
// @Param id path string true "战斗ID"
// @Param request body domain.Action true "行动"
// @Success 200 {object} response.ResponseResult[service.TurnReport]
// @Failure 422 {object} response.ResponseResult[response.EmptyData] "行动被拒绝"
// @Router /api/v1/battles/{id}/actions [post]
func (h *HTTPHandler) SubmitAction(c echo.Context) error {
	var action domain.Action
	if err := c.Bind(&action); err != nil {
		return response.EchoBadRequest(c, "action", "请求格式错误")
	}
	ctx := ctxkey.WithValue(c.Request().Context(), ctxkey.ParticipantID, action.ParticipantID)
	report, err := h.manager.SubmitAction(ctx, c.Param("id"), action)
	if err != nil {
		return err
	}
	return response.EchoOK(c, report)
}

// AdvanceTurn 以超时方式结算当前回合
// @Summary 推进回合
// @Tags 战斗
// @Produce json
// @Param id path string true "战斗ID"
// @Success 200 {object} response.ResponseResult[service.TurnReport]
// @Router /api/v1/battles/{id}/advance [post]
func (h *HTTPHandler) AdvanceTurn(c echo.Context) error {
	report, err := h.manager.AdvanceTurn(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.EchoOK(c, report)
}

// ForceEnd 强制结束战斗
// @Summary 强制结束
// @Tags 战斗
// @Accept json
// @Produce json
// @Param id path string true "战斗ID"
// @Param request body ForceEndRequest false "结束原因"
// @Success 200 {object} response.ResponseResult[domain.BattleEndResult]
// @Router /api/v1/battles/{id}/end [post]
func (h *HTTPHandler) ForceEnd(c echo.Context) error {
	var req ForceEndRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return response.EchoBadRequest(c, "reason", "请求格式错误")
		}
		if err := c.Validate(&req); err != nil {
			return response.EchoBadRequest(c, "reason", validator.TranslateValidationError(err))
		}
	}
	end, err := h.manager.ForceEnd(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return response.EchoOK(c, end)
}
