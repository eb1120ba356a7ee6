package service

import (
	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/repository/interfaces"
)

// ContainerDeps 服务容器的可选依赖
type ContainerDeps struct {
	Chart           *domain.TypeChart
	LogSink         BattleLogSink
	ResultSink      BattleResultSink
	BattleMetrics   *metrics.BattleMetrics
	ErrorMetrics    *metrics.ErrorMetrics
	ResourceMetrics *metrics.ResourceMetrics
	Logger          log.Logger
}

// ServiceContainer 战斗服务容器，统一创建并共享各组件实例
type ServiceContainer struct {
	source interfaces.MonsterSnapshotSource

	DamageCalculator *DamageCalculator
	StatusService    *StatusEffectService
	StatusMoves      *StatusMoveService
	ActionService    *BattleActionService
	AIService        *BattleAIService
	RewardService    *RewardService
	SnapshotBuilder  *SnapshotBuilder
	BattleManager    *BattleManagerService
}

// NewServiceContainer 创建服务容器
// 未提供输出协作方时使用 NATS 事件发布者，无连接时发布会静默跳过
func NewServiceContainer(source interfaces.MonsterSnapshotSource, rules config.BattleRules, deps ContainerDeps) *ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	chart := deps.Chart
	if chart == nil {
		chart = domain.DefaultTypeChart()
	}

	c := &ServiceContainer{source: source}
	c.DamageCalculator = NewDamageCalculator(chart, rules)
	c.StatusService = NewStatusEffectService(rules)
	c.StatusMoves = NewStatusMoveService(c.DamageCalculator, c.StatusService, rules, logger)
	c.ActionService = NewBattleActionService(c.DamageCalculator, c.StatusService, c.StatusMoves, rules, logger)
	c.AIService = NewBattleAIService(c.DamageCalculator, c.StatusService, c.ActionService, rules, logger)
	c.RewardService = NewRewardService(rules)
	c.SnapshotBuilder = NewSnapshotBuilder(source)

	logSink, resultSink := deps.LogSink, deps.ResultSink
	if logSink == nil || resultSink == nil {
		publisher := NewEventPublisher("", "", deps.ResourceMetrics, logger)
		if logSink == nil {
			logSink = publisher
		}
		if resultSink == nil {
			resultSink = publisher
		}
	}

	c.BattleManager = NewBattleManagerService(
		c.SnapshotBuilder,
		c.StatusService,
		c.ActionService,
		c.AIService,
		c.RewardService,
		rules,
		logger,
		WithLogSink(logSink),
		WithResultSink(resultSink),
		WithBattleMetrics(deps.BattleMetrics),
		WithErrorMetrics(deps.ErrorMetrics),
	)
	return c
}

// GetBattleManager 获取战斗管理器
func (c *ServiceContainer) GetBattleManager() *BattleManagerService {
	return c.BattleManager
}

// GetSnapshotSource 获取快照数据源
func (c *ServiceContainer) GetSnapshotSource() interfaces.MonsterSnapshotSource {
	return c.source
}
