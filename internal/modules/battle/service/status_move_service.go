package service

import (
	"math"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/rng"
)

// 按天气调整的回复比例
var weatherHealFractions = map[domain.Weather]float64{
	domain.WeatherSun:       2.0 / 3,
	domain.WeatherRain:      0.25,
	domain.WeatherSandstorm: 0.25,
	domain.WeatherHail:      0.25,
	domain.WeatherSnow:      0.25,
}

const defaultHealFraction = 0.5

// StatusMoveService 变化类招式结算：能力等级、异常状态、回复与场地效果
type StatusMoveService struct {
	calc   *DamageCalculator
	status StatusEffectSink
	field  config.FieldRules
	stat   config.StatusRules
	logger log.Logger
}

// NewStatusMoveService 创建变化类招式结算器
func NewStatusMoveService(calc *DamageCalculator, status StatusEffectSink, rules config.BattleRules, logger log.Logger) *StatusMoveService {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &StatusMoveService{
		calc:   calc,
		status: status,
		field:  rules.Field,
		stat:   rules.Status,
		logger: logger.With("component", "status_move"),
	}
}

// Resolve 结算变化类招式，任一效果生效即视为成功
func (s *StatusMoveService) Resolve(b *domain.Battle, user, target *domain.BattleMonster, move *domain.Move, r rng.Source) *domain.TurnResult {
	res := domain.NewTurnResult(b.Turn, domain.PhaseAction)
	res.ActorID = user.ID
	res.MoveID = move.ID
	if target != nil {
		res.TargetID = target.ID
	}
	res.Logf("%s 使用了 %s", user.Name, move.Name)

	succeeded := false
	for _, effect := range move.Effects {
		if s.applyPrimary(b, user, target, effect, r, res) {
			succeeded = true
		}
	}
	if !succeeded {
		res.Failed = true
		res.Logf("但是失败了")
	}

	if !move.HasEffect(domain.EffectProtect) {
		user.ProtectCount = 0
	}
	s.logger.Debug("status move resolved",
		"battle_id", b.ID, "move", move.ID, "user", user.ID, "failed", res.Failed)
	return res
}

func (s *StatusMoveService) applyPrimary(b *domain.Battle, user, target *domain.BattleMonster, e domain.MoveEffect, r rng.Source, res *domain.TurnResult) bool {
	switch e.Kind {
	case domain.EffectStatus, domain.EffectFocusEnergy:
		return s.ApplyStatusEffect(b, user, target, e, r, res)
	case domain.EffectStatChange:
		return s.ApplyStatEffect(user, target, e, r, res)
	case domain.EffectHeal:
		return s.heal(b, s.recipient(user, target, e, true), e, res)
	case domain.EffectCure:
		return s.cure(s.recipient(user, target, e, true), res)
	case domain.EffectWeather:
		return s.setWeather(b, e, res)
	case domain.EffectTerrain:
		return s.setTerrain(b, e, res)
	case domain.EffectProtect:
		return s.protect(user, r, res)
	case domain.EffectSubstitute:
		return s.substitute(b, user, r, res)
	case domain.EffectForceSwitch:
		return s.forceSwitch(b, user, target, r, res)
	case domain.EffectResetStages:
		return s.resetStages(b, res)
	}
	return false
}

// recipient 效果承受者；回复/治愈类效果总是作用于使用者
func (s *StatusMoveService) recipient(user, target *domain.BattleMonster, e domain.MoveEffect, selfOnly bool) *domain.BattleMonster {
	if e.Self || target == nil || selfOnly {
		return user
	}
	return target
}

// ApplyStatusEffect 按概率施加异常/临时状态，攻击招式的追加效果也经由此处
func (s *StatusMoveService) ApplyStatusEffect(b *domain.Battle, user, target *domain.BattleMonster, e domain.MoveEffect, r rng.Source, res *domain.TurnResult) bool {
	kind := e.Status
	if e.Kind == domain.EffectFocusEnergy {
		kind = domain.StatusFocusEnergy
		e.Self = true
	}
	recipient := s.recipient(user, target, e, false)
	if !rng.Chance(r, e.EffectiveChance()) {
		return false
	}

	app := s.status.ApplyStatus(recipient, kind, StatusSource{
		SourceID:     user.ID,
		FromOpponent: recipient.OwnerID != user.OwnerID,
		Field:        b.Field,
		Turns:        e.Turns,
	}, r)
	if !app.Applied {
		res.Logf("%s 没有陷入 %s（%s）", recipient.Name, kind, app.Reason)
		if app.Reason == RejectSubstitute {
			res.Blocked = true
		}
		return false
	}
	if app.Replaced != "" {
		res.AddRemoved(recipient.ID, app.Replaced, "replaced")
	}
	res.AddApplied(recipient.ID, kind)
	res.Logf("%s 陷入了 %s 状态", recipient.Name, kind)
	return true
}

// ApplyStatEffect 按概率调整能力等级；已在边界时失败
func (s *StatusMoveService) ApplyStatEffect(user, target *domain.BattleMonster, e domain.MoveEffect, r rng.Source, res *domain.TurnResult) bool {
	recipient := s.recipient(user, target, e, false)
	if e.Stages == 0 || !rng.Chance(r, e.EffectiveChance()) {
		return false
	}
	if recipient != user {
		if _, ok := recipient.Volatile(domain.StatusSubstitute); ok {
			res.Blocked = true
			res.Logf("%s 的替身挡住了能力变化", recipient.Name)
			return false
		}
	}

	current := recipient.Stage(e.Stat)
	if (e.Stages > 0 && current >= domain.MaxStage) || (e.Stages < 0 && current <= domain.MinStage) {
		if e.Stages > 0 {
			res.Logf("%s 的 %s 已经无法再提高了", recipient.Name, e.Stat)
		} else {
			res.Logf("%s 的 %s 已经无法再降低了", recipient.Name, e.Stat)
		}
		return false
	}

	change := s.status.ApplyStageChange(recipient, e.Stat, e.Stages)
	res.StageChanges = append(res.StageChanges, change)
	res.Logf("%s 的 %s 变化了 %+d", recipient.Name, e.Stat, change.Applied)
	return true
}

func (s *StatusMoveService) heal(b *domain.Battle, m *domain.BattleMonster, e domain.MoveEffect, res *domain.TurnResult) bool {
	fraction := e.Fraction
	if e.WeatherScaled {
		fraction = defaultHealFraction
		if f, ok := weatherHealFractions[b.Field.Weather]; ok {
			fraction = f
		}
	}
	if fraction <= 0 {
		fraction = defaultHealFraction
	}

	amount := s.calc.ComputeHealing(m, HealSpec{Percent: fraction})
	if amount <= 0 {
		res.Logf("%s 的体力已经满了", m.Name)
		return false
	}
	res.Healing += m.Heal(amount)
	res.Logf("%s 回复了 %d 点体力", m.Name, amount)
	return true
}

func (s *StatusMoveService) cure(m *domain.BattleMonster, res *domain.TurnResult) bool {
	kind, ok := s.status.CurePrimary(m)
	if !ok {
		return false
	}
	res.AddRemoved(m.ID, kind, "cured")
	res.Logf("%s 的 %s 治愈了", m.Name, kind)
	return true
}

func (s *StatusMoveService) fieldTurns(e domain.MoveEffect) int {
	if e.Turns > 0 {
		return e.Turns
	}
	return s.field.DefaultDuration
}

func (s *StatusMoveService) setWeather(b *domain.Battle, e domain.MoveEffect, res *domain.TurnResult) bool {
	if e.Weather == domain.WeatherNone || b.Field.Weather == e.Weather {
		return false
	}
	turns := s.fieldTurns(e)
	b.Field.Weather, b.Field.WeatherTurns = e.Weather, turns
	res.FieldChanges = append(res.FieldChanges, domain.FieldChange{Kind: domain.FieldKindWeather, Value: string(e.Weather), Turns: turns})
	res.Logf("天气变为 %s", e.Weather)
	return true
}

func (s *StatusMoveService) setTerrain(b *domain.Battle, e domain.MoveEffect, res *domain.TurnResult) bool {
	if e.Terrain == domain.TerrainNone || b.Field.Terrain == e.Terrain {
		return false
	}
	turns := s.fieldTurns(e)
	b.Field.Terrain, b.Field.TerrainTurns = e.Terrain, turns
	res.FieldChanges = append(res.FieldChanges, domain.FieldChange{Kind: domain.FieldKindTerrain, Value: string(e.Terrain), Turns: turns})
	res.Logf("场地变为 %s", e.Terrain)
	return true
}

// protect 连续使用时成功率为 1/3^n
func (s *StatusMoveService) protect(user *domain.BattleMonster, r rng.Source, res *domain.TurnResult) bool {
	chance := 1 / math.Pow(3, float64(user.ProtectCount))
	if !rng.Chance(r, chance) {
		user.ProtectCount = 0
		return false
	}
	user.Protected = true
	user.ProtectCount++
	res.Logf("%s 守住了自己", user.Name)
	return true
}

func (s *StatusMoveService) substitute(b *domain.Battle, user *domain.BattleMonster, r rng.Source, res *domain.TurnResult) bool {
	if _, ok := user.Volatile(domain.StatusSubstitute); ok {
		res.Logf("%s 已经有替身了", user.Name)
		return false
	}
	cost := user.FractionOfMax(s.stat.SubstituteCostFraction)
	if user.CurrentHP <= cost {
		res.Logf("%s 的体力不足以制造替身", user.Name)
		return false
	}
	app := s.status.ApplyStatus(user, domain.StatusSubstitute, StatusSource{SourceID: user.ID, Field: b.Field, HP: cost}, r)
	if !app.Applied {
		return false
	}
	user.TakeDamage(cost)
	res.Recoil += cost
	res.AddApplied(user.ID, domain.StatusSubstitute)
	res.Logf("%s 制造了替身", user.Name)
	return true
}

func (s *StatusMoveService) forceSwitch(b *domain.Battle, user, target *domain.BattleMonster, r rng.Source, res *domain.TurnResult) bool {
	if target == nil || target.OwnerID == user.OwnerID || !target.CanBattle() {
		return false
	}
	if _, ok := target.Volatile(domain.StatusIngrain); ok {
		res.Logf("%s 扎下了根，无法被换下", target.Name)
		return false
	}
	owner := b.Participant(target.OwnerID)
	if owner == nil {
		return false
	}
	bench := owner.Bench()
	if len(bench) == 0 {
		return false
	}
	next := bench[r.IntN(len(bench))]
	idx, _ := owner.FindMonster(next.ID)

	s.status.ResetOnSwitchOut(target)
	owner.Active = idx
	res.Switched = true
	res.SwitchIn = next.ID
	res.Logf("%s 被强制换下，%s 出场", target.Name, next.Name)
	return true
}

func (s *StatusMoveService) resetStages(b *domain.Battle, res *domain.TurnResult) bool {
	changed := false
	for _, m := range b.ActiveMonsters() {
		if s.status.ResetStages(m) {
			changed = true
		}
	}
	if !changed {
		return false
	}
	res.Logf("所有能力变化都被消除了")
	return true
}
