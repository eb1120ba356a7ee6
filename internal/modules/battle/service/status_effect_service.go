package service

import (
	"fmt"
	"slices"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/rng"
)

// RejectReason 状态施加被拒绝的原因
type RejectReason string

const (
	RejectUnknownStatus   RejectReason = "unknown_status"
	RejectFainted         RejectReason = "fainted"
	RejectTypeImmunity    RejectReason = "type_immunity"
	RejectHasPrimary      RejectReason = "already_has_primary"
	RejectSubstitute      RejectReason = "substitute"
	RejectMistyTerrain    RejectReason = "misty_terrain"
	RejectElectricTerrain RejectReason = "electric_terrain"
	RejectAlreadyActive   RejectReason = "already_active"
)

// StatusApplication 状态施加结果
type StatusApplication struct {
	Applied bool
	Kind    domain.StatusKind
	Reason  RejectReason
	// 覆盖施加时被替换的主要异常
	Replaced domain.StatusKind
}

// StartOfTurnOutcome 回合开始处理结果
type StartOfTurnOutcome struct {
	Skip       bool
	Cause      domain.StatusKind
	SelfDamage int
	Messages   []string
	Removed    []domain.StatusKind
}

// HPTransfer 回合结束时流向其他怪兽的回复（寄生种子）
type HPTransfer struct {
	MonsterID string
	Healing   int
}

// EndOfTurnOutcome 回合结束处理结果
type EndOfTurnOutcome struct {
	Damage    int
	Healing   int
	Messages  []string
	Removed   []domain.StatusKind
	Transfers []HPTransfer
	Fainted   bool
}

// MonsterLookup 按 ID 查找场上怪兽
type MonsterLookup func(id string) *domain.BattleMonster

// 属性对状态的免疫
var statusImmunities = map[domain.StatusKind][]domain.Type{
	domain.StatusBurn:      {domain.TypeFire},
	domain.StatusFreeze:    {domain.TypeIce},
	domain.StatusPoison:    {domain.TypePoison, domain.TypeSteel},
	domain.StatusToxic:     {domain.TypePoison, domain.TypeSteel},
	domain.StatusParalysis: {domain.TypeElectric},
	domain.StatusLeechSeed: {domain.TypeGrass},
}

// StatusEffectService 主要异常与临时状态的施加、回合处理与解除
type StatusEffectService struct {
	rules config.StatusRules
	field config.FieldRules
}

// NewStatusEffectService 创建状态引擎
func NewStatusEffectService(rules config.BattleRules) *StatusEffectService {
	return &StatusEffectService{rules: rules.Status, field: rules.Field}
}

// IsImmune 属性是否免疫该状态
func (s *StatusEffectService) IsImmune(m *domain.BattleMonster, kind domain.StatusKind) bool {
	return m.HasAnyType(statusImmunities[kind]...)
}

// CanApply 不修改状态的施加预检，AI 评分使用
func (s *StatusEffectService) CanApply(m *domain.BattleMonster, kind domain.StatusKind, src StatusSource) RejectReason {
	switch {
	case !kind.Valid():
		return RejectUnknownStatus
	case !m.CanBattle():
		return RejectFainted
	case s.IsImmune(m, kind):
		return RejectTypeImmunity
	}
	if src.FromOpponent && kind != domain.StatusSubstitute {
		if _, ok := m.Volatile(domain.StatusSubstitute); ok {
			return RejectSubstitute
		}
	}
	if kind.IsPrimary() {
		if src.Field.Terrain == domain.TerrainMisty {
			return RejectMistyTerrain
		}
		if src.Field.Terrain == domain.TerrainElectric && kind == domain.StatusSleep {
			return RejectElectricTerrain
		}
		if m.Status != nil && !src.Override {
			return RejectHasPrimary
		}
		return ""
	}
	if _, ok := m.Volatile(kind); ok {
		return RejectAlreadyActive
	}
	return ""
}

// ApplyStatus 施加状态；睡眠/冰冻的持续回合在施加时一次性确定
func (s *StatusEffectService) ApplyStatus(m *domain.BattleMonster, kind domain.StatusKind, src StatusSource, r rng.Source) StatusApplication {
	if reason := s.CanApply(m, kind, src); reason != "" {
		return StatusApplication{Kind: kind, Reason: reason}
	}

	result := StatusApplication{Applied: true, Kind: kind}
	if kind.IsPrimary() {
		if m.Status != nil {
			result.Replaced = m.Status.Kind
		}
		status := &domain.PrimaryStatus{Kind: kind}
		switch kind {
		case domain.StatusSleep:
			status.TurnsLeft = s.rollTurns(src.Turns, s.rules.SleepMinTurns, s.rules.SleepMaxTurns, r)
		case domain.StatusFreeze:
			status.TurnsLeft = s.rollTurns(src.Turns, s.rules.FreezeMinTurns, s.rules.FreezeMaxTurns, r)
		}
		m.Status = status
		return result
	}

	v := &domain.VolatileStatus{SourceID: src.SourceID}
	switch kind {
	case domain.StatusConfusion:
		v.TurnsLeft = s.rollTurns(src.Turns, s.rules.ConfusionMinTurns, s.rules.ConfusionMaxTurns, r)
	case domain.StatusTaunt:
		v.TurnsLeft = s.fixedTurns(src.Turns, s.rules.TauntTurns)
	case domain.StatusEmbargo:
		v.TurnsLeft = s.fixedTurns(src.Turns, s.rules.EmbargoTurns)
	case domain.StatusTrapped:
		v.TurnsLeft = s.fixedTurns(src.Turns, s.rules.TrappedTurns)
	case domain.StatusSubstitute:
		v.HP = src.HP
	default:
		v.TurnsLeft = max(src.Turns, 0)
	}
	if m.Volatiles == nil {
		m.Volatiles = make(map[domain.StatusKind]*domain.VolatileStatus)
	}
	m.Volatiles[kind] = v
	return result
}

func (s *StatusEffectService) rollTurns(fixed, lo, hi int, r rng.Source) int {
	if fixed > 0 {
		return fixed
	}
	return rng.Between(r, lo, hi)
}

func (s *StatusEffectService) fixedTurns(fixed, def int) int {
	if fixed > 0 {
		return fixed
	}
	return def
}

// ApplyStageChange 调整能力等级并截断到 [-6, 6]
func (s *StatusEffectService) ApplyStageChange(m *domain.BattleMonster, stat domain.Stat, delta int) domain.StageChange {
	before := m.Stage(stat)
	after := domain.ClampStage(before + delta)
	if m.Stages == nil {
		m.Stages = domain.StatStages{}
	}
	m.Stages[stat] = after
	return domain.StageChange{
		MonsterID: m.ID,
		Stat:      stat,
		Requested: delta,
		Applied:   after - before,
		Before:    before,
		After:     after,
	}
}

// ResetStages 清空能力等级，返回是否有等级被改变
func (s *StatusEffectService) ResetStages(m *domain.BattleMonster) bool {
	changed := false
	for _, v := range m.Stages {
		if v != 0 {
			changed = true
			break
		}
	}
	m.Stages = domain.StatStages{}
	return changed
}

// Cure 解除指定状态
func (s *StatusEffectService) Cure(m *domain.BattleMonster, kind domain.StatusKind) bool {
	if kind.IsPrimary() {
		if m.PrimaryKind() != kind {
			return false
		}
		m.Status = nil
		return true
	}
	if _, ok := m.Volatiles[kind]; !ok {
		return false
	}
	delete(m.Volatiles, kind)
	return true
}

// CurePrimary 解除主要异常
func (s *StatusEffectService) CurePrimary(m *domain.BattleMonster) (domain.StatusKind, bool) {
	if m.Status == nil {
		return "", false
	}
	kind := m.Status.Kind
	m.Status = nil
	return kind, true
}

// ResetOnSwitchOut 离场时清除临时状态与能力等级，剧毒计数归零
func (s *StatusEffectService) ResetOnSwitchOut(m *domain.BattleMonster) {
	m.Volatiles = nil
	m.Stages = domain.StatStages{}
	m.Protected = false
	m.ProtectCount = 0
	if m.Status != nil && m.Status.Kind == domain.StatusToxic {
		m.Status.Counter = 0
	}
}

// ConsumeFlinch 行动前检查畏缩，畏缩只生效一次
func (s *StatusEffectService) ConsumeFlinch(m *domain.BattleMonster) bool {
	if _, ok := m.Volatiles[domain.StatusFlinch]; !ok {
		return false
	}
	delete(m.Volatiles, domain.StatusFlinch)
	return true
}

// Incapacitated 行动时仍处于睡眠/冰冻（本回合中途被施加）
func (s *StatusEffectService) Incapacitated(m *domain.BattleMonster) (domain.StatusKind, bool) {
	switch kind := m.PrimaryKind(); kind {
	case domain.StatusSleep, domain.StatusFreeze:
		return kind, true
	}
	return "", false
}

// Thaw 火属性伤害招式解除冰冻
func (s *StatusEffectService) Thaw(m *domain.BattleMonster) bool {
	return s.Cure(m, domain.StatusFreeze)
}

// EffectiveSpeed 计入能力等级与麻痹后的速度
func (s *StatusEffectService) EffectiveSpeed(m *domain.BattleMonster) float64 {
	speed := m.EffectiveStat(domain.StatSpeed)
	if m.PrimaryKind() == domain.StatusParalysis {
		speed *= s.rules.ParalysisSpeedMultiplier
	}
	return speed
}

// ProcessStartOfTurn 行动前的状态判定
// 睡眠/冰冻：计数为 0 时醒来并可行动，否则计数减一并跳过行动
func (s *StatusEffectService) ProcessStartOfTurn(m *domain.BattleMonster, r rng.Source) StartOfTurnOutcome {
	var out StartOfTurnOutcome
	if !m.CanBattle() {
		return out
	}

	if s.ConsumeFlinch(m) {
		out.Skip, out.Cause = true, domain.StatusFlinch
		out.Removed = append(out.Removed, domain.StatusFlinch)
		out.Messages = append(out.Messages, fmt.Sprintf("%s 畏缩了，无法行动", m.Name))
		return out
	}

	if m.Status != nil {
		switch m.Status.Kind {
		case domain.StatusSleep, domain.StatusFreeze:
			kind := m.Status.Kind
			if m.Status.TurnsLeft <= 0 {
				m.Status = nil
				out.Removed = append(out.Removed, kind)
				if kind == domain.StatusSleep {
					out.Messages = append(out.Messages, fmt.Sprintf("%s 醒过来了", m.Name))
				} else {
					out.Messages = append(out.Messages, fmt.Sprintf("%s 的冰冻解除了", m.Name))
				}
				break
			}
			m.Status.TurnsLeft--
			out.Skip, out.Cause = true, kind
			if kind == domain.StatusSleep {
				out.Messages = append(out.Messages, fmt.Sprintf("%s 正在呼呼大睡", m.Name))
			} else {
				out.Messages = append(out.Messages, fmt.Sprintf("%s 被冻住了，无法行动", m.Name))
			}
			return out
		case domain.StatusParalysis:
			if rng.Chance(r, s.rules.ParalysisSkipChance) {
				out.Skip, out.Cause = true, domain.StatusParalysis
				out.Messages = append(out.Messages, fmt.Sprintf("%s 身体麻痹，无法行动", m.Name))
				return out
			}
		}
	}

	if v, ok := m.Volatile(domain.StatusConfusion); ok {
		v.TurnsLeft--
		if v.TurnsLeft <= 0 {
			delete(m.Volatiles, domain.StatusConfusion)
			out.Removed = append(out.Removed, domain.StatusConfusion)
			out.Messages = append(out.Messages, fmt.Sprintf("%s 的混乱解除了", m.Name))
			return out
		}
		if rng.Chance(r, s.rules.ConfusionSelfHitChance) {
			out.SelfDamage = m.TakeDamage(m.FractionOfMax(s.rules.ConfusionSelfHitFraction))
			out.Skip, out.Cause = true, domain.StatusConfusion
			out.Messages = append(out.Messages, fmt.Sprintf("%s 陷入混乱，攻击了自己（%d）", m.Name, out.SelfDamage))
		}
	}
	return out
}

// ProcessEndOfTurn 回合结束时的持续伤害、回复与计数递减
func (s *StatusEffectService) ProcessEndOfTurn(m *domain.BattleMonster, field domain.Field, lookup MonsterLookup) EndOfTurnOutcome {
	var out EndOfTurnOutcome
	if !m.CanBattle() {
		return out
	}

	hurt := func(amount int, format string) {
		if m.Fainted {
			return
		}
		dealt := m.TakeDamage(amount)
		out.Damage += dealt
		out.Messages = append(out.Messages, fmt.Sprintf(format, m.Name, dealt))
	}
	heal := func(amount int, format string) {
		if m.Fainted {
			return
		}
		if healed := m.Heal(amount); healed > 0 {
			out.Healing += healed
			out.Messages = append(out.Messages, fmt.Sprintf(format, m.Name, healed))
		}
	}

	if m.Status != nil {
		switch m.Status.Kind {
		case domain.StatusPoison:
			hurt(m.FractionOfMax(s.rules.PoisonFraction), "%s 受到毒的伤害（%d）")
		case domain.StatusToxic:
			m.Status.Counter++
			hurt(m.FractionOfMax(s.rules.ToxicStepFraction*float64(m.Status.Counter)), "%s 受到剧毒的伤害（%d）")
		case domain.StatusBurn:
			hurt(m.FractionOfMax(s.rules.BurnFraction), "%s 受到灼伤的伤害（%d）")
		}
	}

	if v, ok := m.Volatile(domain.StatusLeechSeed); ok && !m.Fainted {
		drained := m.TakeDamage(m.FractionOfMax(s.rules.LeechSeedFraction))
		out.Damage += drained
		out.Messages = append(out.Messages, fmt.Sprintf("%s 的体力被寄生种子吸取（%d）", m.Name, drained))
		if lookup != nil {
			if seeder := lookup(v.SourceID); seeder != nil && seeder.CanBattle() {
				if healed := seeder.Heal(drained); healed > 0 {
					out.Transfers = append(out.Transfers, HPTransfer{MonsterID: seeder.ID, Healing: healed})
				}
			}
		}
	}

	if _, ok := m.Volatile(domain.StatusCurse); ok {
		hurt(m.FractionOfMax(s.rules.CurseFraction), "%s 受到诅咒的伤害（%d）")
	}

	switch field.Weather {
	case domain.WeatherSandstorm:
		if !m.HasAnyType(domain.TypeRock, domain.TypeGround, domain.TypeSteel) {
			hurt(m.FractionOfMax(s.field.ChipFraction), "%s 受到沙暴的伤害（%d）")
		}
	case domain.WeatherHail:
		if !m.HasType(domain.TypeIce) {
			hurt(m.FractionOfMax(s.field.ChipFraction), "%s 受到冰雹的伤害（%d）")
		}
	}

	if _, ok := m.Volatile(domain.StatusIngrain); ok {
		heal(m.FractionOfMax(s.rules.IngrainHealFraction), "%s 从根部吸取了养分（%d）")
	}
	if field.Terrain == domain.TerrainGrassy {
		heal(m.FractionOfMax(s.field.GrassyHealFraction), "%s 受到青草场地的治愈（%d）")
	}

	out.Removed = append(out.Removed, s.tickVolatiles(m)...)
	out.Fainted = m.Fainted
	return out
}

// tickVolatiles 递减临时状态计数，按固定顺序处理以保证可复现
func (s *StatusEffectService) tickVolatiles(m *domain.BattleMonster) []domain.StatusKind {
	if len(m.Volatiles) == 0 {
		return nil
	}
	kinds := make([]domain.StatusKind, 0, len(m.Volatiles))
	for kind := range m.Volatiles {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	var removed []domain.StatusKind
	for _, kind := range kinds {
		v := m.Volatiles[kind]
		if kind == domain.StatusFlinch {
			delete(m.Volatiles, kind)
			removed = append(removed, kind)
			continue
		}
		// 混乱在行动前计数
		if kind == domain.StatusConfusion || v.TurnsLeft <= 0 {
			continue
		}
		v.TurnsLeft--
		if v.TurnsLeft == 0 {
			delete(m.Volatiles, kind)
			removed = append(removed, kind)
		}
	}
	return removed
}
