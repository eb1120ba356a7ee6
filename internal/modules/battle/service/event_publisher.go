package service

import (
	"context"
	"time"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/notify"
)

// EventPublisher 通过 NATS 发布回合结果与战斗结算，同时实现 BattleLogSink 与 BattleResultSink
// 没有连接时静默跳过
type EventPublisher struct {
	turnSubject string
	endSubject  string
	metrics     *metrics.ResourceMetrics
	logger      log.Logger
	now         func() time.Time
}

// NewEventPublisher 创建事件发布者，subject 为空时使用默认主题
func NewEventPublisher(turnSubject, endSubject string, m *metrics.ResourceMetrics, logger log.Logger) *EventPublisher {
	if turnSubject == "" {
		turnSubject = notify.SubjectBattleTurn
	}
	if endSubject == "" {
		endSubject = notify.SubjectBattleEnd
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &EventPublisher{
		turnSubject: turnSubject,
		endSubject:  endSubject,
		metrics:     m,
		logger:      logger.With("component", "battle_event_publisher"),
		now:         time.Now,
	}
}

// PublishTurn 发布一个回合的全部结果
func (p *EventPublisher) PublishTurn(ctx context.Context, battleID string, turn int, results []*domain.TurnResult) error {
	return p.publish(ctx, p.turnSubject, TurnEvent{
		BattleID:    battleID,
		Turn:        turn,
		Results:     results,
		PublishedAt: p.now(),
	})
}

// PublishEnd 发布战斗结算
func (p *EventPublisher) PublishEnd(ctx context.Context, result *domain.BattleEndResult) error {
	return p.publish(ctx, p.endSubject, EndEvent{BattleEndResult: result, PublishedAt: p.now()})
}

func (p *EventPublisher) publish(ctx context.Context, subject string, payload interface{}) error {
	sent, err := notify.PublishBattleEvent(ctx, subject, payload)
	result := "success"
	switch {
	case err != nil:
		result = "error"
	case !sent:
		result = "skipped"
		p.logger.DebugContext(ctx, "消息总线未连接，跳过事件发布", "subject", subject)
	}
	if p.metrics != nil {
		p.metrics.RecordEventPublished(subject, result, metrics.GetServiceName())
	}
	return err
}
