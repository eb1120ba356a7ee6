// Package service 战斗结算引擎：伤害计算、状态生命周期、行动执行、AI 决策与回合编排。
// 结算过程本身不做 I/O，外部协作方通过本文件中的窄接口注入。
package service

import (
	"context"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/rng"
)

// StatusSource 状态施加来源
type StatusSource struct {
	// 施加者怪兽 ID
	SourceID string
	// 来自对方的状态会被替身挡下
	FromOpponent bool
	// 允许覆盖已有主要异常
	Override bool
	Field    domain.Field
	// 指定持续回合，0 使用规则默认值
	Turns int
	// 替身 HP
	HP int
}

// StatusEffectSink 状态效果窄接口，变化类招式与行动执行只通过它修改状态
type StatusEffectSink interface {
	ApplyStatus(m *domain.BattleMonster, kind domain.StatusKind, src StatusSource, r rng.Source) StatusApplication
	ApplyStageChange(m *domain.BattleMonster, stat domain.Stat, delta int) domain.StageChange
	ResetStages(m *domain.BattleMonster) bool
	Cure(m *domain.BattleMonster, kind domain.StatusKind) bool
	CurePrimary(m *domain.BattleMonster) (domain.StatusKind, bool)
	ResetOnSwitchOut(m *domain.BattleMonster)
}

// BattleLogSink 回合结果输出（展示/日志协作方）
type BattleLogSink interface {
	PublishTurn(ctx context.Context, battleID string, turn int, results []*domain.TurnResult) error
}

// BattleResultSink 战斗结算输出（经济/成长协作方）
type BattleResultSink interface {
	PublishEnd(ctx context.Context, result *domain.BattleEndResult) error
}

type nopLogSink struct{}

func (nopLogSink) PublishTurn(context.Context, string, int, []*domain.TurnResult) error { return nil }

type nopResultSink struct{}

func (nopResultSink) PublishEnd(context.Context, *domain.BattleEndResult) error { return nil }
