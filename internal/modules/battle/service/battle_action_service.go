package service

import (
	"math"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/rng"
	"tsu-battle/internal/pkg/xerrors"
)

// BattleActionService 行动校验与执行
// 校验不修改任何状态；校验失败的行动不会产生部分结果
type BattleActionService struct {
	calc      *DamageCalculator
	status    *StatusEffectService
	moves     *StatusMoveService
	damage    config.DamageRules
	secondary map[domain.Type]domain.MoveEffect
	logger    log.Logger
}

// NewBattleActionService 创建行动执行器
func NewBattleActionService(calc *DamageCalculator, status *StatusEffectService, moves *StatusMoveService, rules config.BattleRules, logger log.Logger) *BattleActionService {
	if logger == nil {
		logger = log.GetLogger()
	}
	secondary := make(map[domain.Type]domain.MoveEffect, len(rules.Damage.TypeSecondaryStatus))
	for typeName, st := range rules.Damage.TypeSecondaryStatus {
		t, err := domain.ParseType(typeName)
		if err != nil {
			continue
		}
		kind, err := domain.ParseStatus(st.Status)
		if err != nil {
			continue
		}
		secondary[t] = domain.MoveEffect{Kind: domain.EffectStatus, Status: kind, Chance: st.Chance}
	}
	return &BattleActionService{
		calc:      calc,
		status:    status,
		moves:     moves,
		damage:    rules.Damage,
		secondary: secondary,
		logger:    logger.With("component", "battle_action"),
	}
}

// Struggle 挣扎招式
func (s *BattleActionService) Struggle() *domain.Move {
	return domain.NewStruggle(s.damage.StrugglePower, s.damage.StruggleRecoilFraction)
}

// HasSelectableMove 是否还有可选招式（PP 大于 0 且未被挑衅限制）
func (s *BattleActionService) HasSelectableMove(m *domain.BattleMonster) bool {
	for _, slot := range m.Moves {
		if slot.PP > 0 && !s.restricted(m, slot.Move) {
			return true
		}
	}
	return false
}

func (s *BattleActionService) restricted(m *domain.BattleMonster, move *domain.Move) bool {
	return move.IsStatus() && m.HasStatus(domain.StatusTaunt)
}

func actionError(b *domain.Battle, code xerrors.ErrorCode, reason string) *xerrors.AppError {
	return xerrors.NewActionError(code, reason).WithBattle(b.ID)
}

// Validate 校验行动，不修改状态
func (s *BattleActionService) Validate(b *domain.Battle, a domain.Action) error {
	if b.State != domain.StateActive {
		return xerrors.NewBattleNotActiveError(b.ID, string(b.State))
	}
	p := b.Participant(a.ParticipantID)
	if p == nil || p.Fled {
		return actionError(b, xerrors.CodeBattleActionInvalid, "unknown participant").
			WithMetadata("participant_id", a.ParticipantID)
	}
	actor := p.ActiveMonster()
	if actor == nil || (a.MonsterID != "" && a.MonsterID != actor.ID) {
		return actionError(b, xerrors.CodeBattleActionInvalid, "actor is not the active monster").
			WithMetadata("monster_id", a.MonsterID)
	}
	if !actor.CanBattle() {
		return actionError(b, xerrors.CodeBattleActorFainted, "").WithMetadata("monster_id", actor.ID)
	}

	switch a.Kind {
	case domain.ActionAttack:
		slot := actor.FindMove(a.MoveID)
		if slot == nil {
			return actionError(b, xerrors.CodeBattleMoveNotFound, "").WithMetadata("move_id", a.MoveID)
		}
		if slot.PP <= 0 {
			return actionError(b, xerrors.CodeBattleMoveNoPP, "").WithMetadata("move_id", a.MoveID)
		}
		if s.restricted(actor, slot.Move) {
			return actionError(b, xerrors.CodeBattleMoveRestricted, "taunt").WithMetadata("move_id", a.MoveID)
		}
		if _, err := s.resolveTarget(b, p, actor, slot.Move, a.TargetID); err != nil {
			return err
		}
	case domain.ActionStruggle:
		if s.HasSelectableMove(actor) {
			return actionError(b, xerrors.CodeBattleActionInvalid, "struggle requires no usable moves")
		}
		if _, err := s.resolveTarget(b, p, actor, s.Struggle(), a.TargetID); err != nil {
			return err
		}
	case domain.ActionItem:
		if _, _, err := s.validateItem(b, p, actor, a); err != nil {
			return err
		}
	case domain.ActionSwitch:
		if _, err := s.validateSwitch(b, p, actor, a); err != nil {
			return err
		}
	case domain.ActionCapture:
		if _, _, err := s.validateCapture(b, p, actor, a); err != nil {
			return err
		}
	case domain.ActionFlee:
		if err := s.validateFlee(b, actor); err != nil {
			return err
		}
	default:
		return actionError(b, xerrors.CodeBattleActionInvalid, "unknown action kind").
			WithMetadata("kind", string(a.Kind))
	}
	return nil
}

// resolveTarget 对手目标招式默认选择第一个对方出场怪兽；自身/场地招式目标为使用者
func (s *BattleActionService) resolveTarget(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, move *domain.Move, targetID string) (*domain.BattleMonster, error) {
	if move.Target != domain.TargetOpponent {
		return actor, nil
	}
	opponents := b.OpposingActive(p)
	if len(opponents) == 0 {
		return nil, actionError(b, xerrors.CodeBattleTargetInvalid, "no opposing monster")
	}
	if targetID == "" {
		return opponents[0], nil
	}
	for _, m := range opponents {
		if m.ID == targetID {
			return m, nil
		}
	}
	return nil, actionError(b, xerrors.CodeBattleTargetInvalid, "target is not an opposing active monster").
		WithMetadata("target_id", targetID)
}

func (s *BattleActionService) validateItem(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action) (*domain.InventorySlot, *domain.BattleMonster, error) {
	if actor.HasStatus(domain.StatusEmbargo) {
		return nil, nil, actionError(b, xerrors.CodeBattleItemUnavailable, "embargo")
	}
	slot := p.FindItem(a.ItemID)
	if slot == nil || slot.Quantity <= 0 {
		return nil, nil, actionError(b, xerrors.CodeBattleItemUnavailable, "not in inventory").WithMetadata("item_id", a.ItemID)
	}
	if slot.Item.Kind == domain.ItemCapture {
		return nil, nil, actionError(b, xerrors.CodeBattleActionInvalid, "capture items require a capture action")
	}

	target := actor
	if a.TargetID != "" {
		_, target = p.FindMonster(a.TargetID)
	}
	if target == nil || target.Captured {
		return nil, nil, actionError(b, xerrors.CodeBattleTargetInvalid, "item target must be an own monster").
			WithMetadata("target_id", a.TargetID)
	}
	if (slot.Item.Kind == domain.ItemRevive) != target.Fainted {
		return nil, nil, actionError(b, xerrors.CodeBattleTargetInvalid, "revive items only target fainted monsters").
			WithMetadata("target_id", target.ID)
	}
	return slot, target, nil
}

func (s *BattleActionService) validateSwitch(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action) (int, error) {
	idx, m := p.FindMonster(a.SwitchToID)
	switch {
	case m == nil:
		return -1, actionError(b, xerrors.CodeBattleSwitchInvalid, "not in roster").WithMetadata("monster_id", a.SwitchToID)
	case !m.CanBattle():
		return -1, actionError(b, xerrors.CodeBattleSwitchInvalid, "monster cannot battle").WithMetadata("monster_id", a.SwitchToID)
	case idx == p.Active:
		return -1, actionError(b, xerrors.CodeBattleSwitchInvalid, "monster already active").WithMetadata("monster_id", a.SwitchToID)
	case actor.HasStatus(domain.StatusTrapped), actor.HasStatus(domain.StatusIngrain):
		return -1, actionError(b, xerrors.CodeBattleSwitchInvalid, "trapped")
	}
	return idx, nil
}

func (s *BattleActionService) validateCapture(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action) (*domain.InventorySlot, *domain.BattleMonster, error) {
	if p.Kind == domain.ControllerWild {
		return nil, nil, actionError(b, xerrors.CodeBattleActionInvalid, "wild monsters cannot capture")
	}
	slot := p.FindItem(a.ItemID)
	if slot == nil || slot.Quantity <= 0 || slot.Item.Kind != domain.ItemCapture {
		return nil, nil, actionError(b, xerrors.CodeBattleItemUnavailable, "no capture item").WithMetadata("item_id", a.ItemID)
	}
	opponents := b.OpposingActive(p)
	for _, m := range opponents {
		if a.TargetID != "" && m.ID != a.TargetID {
			continue
		}
		if owner := b.Participant(m.OwnerID); owner != nil && owner.Kind == domain.ControllerWild {
			return slot, m, nil
		}
	}
	return nil, nil, actionError(b, xerrors.CodeBattleTargetInvalid, "capture target must be an active wild monster").
		WithMetadata("target_id", a.TargetID)
}

func (s *BattleActionService) validateFlee(b *domain.Battle, actor *domain.BattleMonster) error {
	owner := b.Participant(actor.OwnerID)
	for _, other := range b.TeamMembers(owner.Team.Other()) {
		if other.Kind != domain.ControllerWild {
			return actionError(b, xerrors.CodeBattleEscapeBlocked, "cannot flee from a trainer battle")
		}
	}
	if actor.HasStatus(domain.StatusTrapped) || actor.HasStatus(domain.StatusIngrain) {
		return actionError(b, xerrors.CodeBattleEscapeBlocked, "trapped")
	}
	return nil
}

// Retarget 执行时原目标已离场的，改为当前的对方出场怪兽
func (s *BattleActionService) Retarget(b *domain.Battle, a domain.Action) domain.Action {
	if a.TargetID == "" || (a.Kind != domain.ActionAttack && a.Kind != domain.ActionStruggle) {
		return a
	}
	p := b.Participant(a.ParticipantID)
	if p == nil {
		return a
	}
	for _, m := range b.OpposingActive(p) {
		if m.ID == a.TargetID {
			return a
		}
	}
	a.TargetID = ""
	return a
}

// Execute 校验并执行行动
func (s *BattleActionService) Execute(b *domain.Battle, a domain.Action, r rng.Source) (*domain.TurnResult, error) {
	if err := s.Validate(b, a); err != nil {
		return nil, err
	}

	p := b.Participant(a.ParticipantID)
	actor := p.ActiveMonster()
	res := domain.NewTurnResult(b.Turn, domain.PhaseAction)
	res.ActionKind = a.Kind
	res.ParticipantID = p.ID
	res.ActorID = actor.ID

	var err error
	switch a.Kind {
	case domain.ActionAttack:
		slot := actor.FindMove(a.MoveID)
		target, _ := s.resolveTarget(b, p, actor, slot.Move, a.TargetID)
		res = s.executeMove(b, p, actor, target, slot.Move, slot, r, res)
	case domain.ActionStruggle:
		move := s.Struggle()
		target, _ := s.resolveTarget(b, p, actor, move, a.TargetID)
		res = s.executeMove(b, p, actor, target, move, nil, r, res)
	case domain.ActionItem:
		err = s.executeItem(b, p, actor, a, res)
	case domain.ActionSwitch:
		err = s.executeSwitch(b, p, actor, a, res)
	case domain.ActionCapture:
		err = s.executeCapture(b, p, actor, a, r, res)
	case domain.ActionFlee:
		s.executeFlee(b, p, actor, r, res)
	}
	if err != nil {
		return nil, err
	}

	actor.HasActed = true
	if !res.Skipped {
		b.StatsFor(p.ID).Participation++
	}
	return res, nil
}

func (s *BattleActionService) executeMove(b *domain.Battle, p *domain.Participant, actor, target *domain.BattleMonster, move *domain.Move, slot *domain.MoveSlot, r rng.Source, res *domain.TurnResult) *domain.TurnResult {
	res.MoveID = move.ID
	res.TargetID = target.ID

	if s.status.ConsumeFlinch(actor) {
		res.Skipped = true
		res.AddRemoved(actor.ID, domain.StatusFlinch, "flinched")
		res.Logf("%s 畏缩了，无法行动", actor.Name)
		return res
	}
	if kind, ok := s.status.Incapacitated(actor); ok {
		res.Skipped = true
		res.Logf("%s 因 %s 无法行动", actor.Name, kind)
		return res
	}
	if slot != nil {
		slot.PP--
	}

	if move.IsStatus() {
		return s.executeStatusMove(b, actor, target, move, r, res)
	}

	if !move.HasEffect(domain.EffectProtect) {
		actor.ProtectCount = 0
	}
	res.Logf("%s 使用了 %s", actor.Name, move.Name)

	if target.Protected && target != actor {
		res.Blocked = true
		res.Logf("%s 守住了攻击", target.Name)
		return res
	}
	if !rng.Chance(r, s.calc.Accuracy(actor, target, move, b.Field)) {
		res.Missed = true
		res.Logf("%s 的攻击没有命中", actor.Name)
		return res
	}

	critical := rng.Chance(r, s.calc.CriticalChance(actor, move))
	dmg := s.calc.ComputeDamage(actor, target, move, b.Field, critical, s.calc.RandomFactor(r))
	res.Critical = dmg.Critical
	res.Effectiveness = dmg.Effectiveness
	if dmg.Immune {
		res.Logf("对 %s 没有效果", target.Name)
		return res
	}

	hitSubstitute := false
	if sub, ok := target.Volatile(domain.StatusSubstitute); ok && target != actor {
		hitSubstitute = true
		absorbed := min(dmg.Damage, sub.HP)
		sub.HP -= absorbed
		res.Damage = absorbed
		res.Logf("替身代替 %s 承受了攻击（%d）", target.Name, absorbed)
		if sub.HP <= 0 {
			s.status.Cure(target, domain.StatusSubstitute)
			res.AddRemoved(target.ID, domain.StatusSubstitute, "broken")
			res.Logf("%s 的替身消失了", target.Name)
		}
	} else {
		res.Damage = target.TakeDamage(dmg.Damage)
		res.Logf("%s 受到了 %d 点伤害", target.Name, res.Damage)
	}

	if critical {
		res.Logf("会心一击！")
	}
	switch {
	case dmg.Effectiveness > 1:
		res.Logf("效果拔群！")
	case dmg.Effectiveness < 1:
		res.Logf("效果不理想")
	}

	stats := b.StatsFor(p.ID)
	stats.DamageDealt += res.Damage
	if target.Fainted {
		stats.KOs++
		res.AddFainted(target.ID)
		res.Logf("%s 倒下了", target.Name)
	}

	if move.Type == domain.TypeFire && !target.Fainted && s.status.Thaw(target) {
		res.AddRemoved(target.ID, domain.StatusFreeze, "thawed")
		res.Logf("%s 的冰冻被融化了", target.Name)
	}

	s.applySecondary(b, actor, target, move, hitSubstitute, r, res)

	if actor.Fainted {
		res.AddFainted(actor.ID)
		res.Logf("%s 倒下了", actor.Name)
	}
	return res
}

func (s *BattleActionService) executeStatusMove(b *domain.Battle, actor, target *domain.BattleMonster, move *domain.Move, r rng.Source, res *domain.TurnResult) *domain.TurnResult {
	opponentTargeted := move.Target == domain.TargetOpponent && target != actor
	if opponentTargeted {
		if target.Protected {
			res.Blocked = true
			res.Logf("%s 使用了 %s，但 %s 守住了", actor.Name, move.Name, target.Name)
			actor.ProtectCount = 0
			return res
		}
		if !rng.Chance(r, s.calc.Accuracy(actor, target, move, b.Field)) {
			res.Missed = true
			res.Logf("%s 使用了 %s，但没有命中", actor.Name, move.Name)
			actor.ProtectCount = 0
			return res
		}
	} else {
		target = nil
	}

	resolved := s.moves.Resolve(b, actor, target, move, r)
	resolved.ActionKind = res.ActionKind
	resolved.ParticipantID = res.ParticipantID
	if target == nil {
		resolved.TargetID = actor.ID
	}
	if actor.Fainted {
		resolved.AddFainted(actor.ID)
	}
	return resolved
}

// applySecondary 攻击招式的追加效果：状态、能力变化、畏缩、吸取、反伤
func (s *BattleActionService) applySecondary(b *domain.Battle, actor, target *domain.BattleMonster, move *domain.Move, hitSubstitute bool, r rng.Source, res *domain.TurnResult) {
	hasStatusEffect := false
	for _, e := range move.Effects {
		// 吸取与反伤总是作用于使用者
		targetEffect := !e.Self && e.Kind != domain.EffectDrain && e.Kind != domain.EffectRecoil
		if targetEffect && target.Fainted {
			continue
		}
		switch e.Kind {
		case domain.EffectStatus:
			hasStatusEffect = true
			s.moves.ApplyStatusEffect(b, actor, target, e, r, res)
		case domain.EffectStatChange:
			s.moves.ApplyStatEffect(actor, target, e, r, res)
		case domain.EffectFlinch:
			if target.HasActed || hitSubstitute || !rng.Chance(r, e.EffectiveChance()) {
				continue
			}
			app := s.status.ApplyStatus(target, domain.StatusFlinch, StatusSource{SourceID: actor.ID, Field: b.Field}, r)
			if app.Applied {
				res.AddApplied(target.ID, domain.StatusFlinch)
			}
		case domain.EffectDrain:
			if res.Damage <= 0 {
				continue
			}
			amount := max(1, int(math.Floor(float64(res.Damage)*e.Fraction)))
			if healed := actor.Heal(amount); healed > 0 {
				res.Healing += healed
				res.Logf("%s 吸取了 %d 点体力", actor.Name, healed)
			}
		case domain.EffectRecoil:
			var amount int
			if move.ID == domain.StruggleMoveID {
				amount = actor.FractionOfMax(e.Fraction)
			} else if res.Damage > 0 {
				amount = max(1, int(math.Floor(float64(res.Damage)*e.Fraction)))
			}
			if dealt := actor.TakeDamage(amount); dealt > 0 {
				res.Recoil += dealt
				res.Logf("%s 受到了 %d 点反作用伤害", actor.Name, dealt)
			}
		}
	}

	if hasStatusEffect || target.Fainted {
		return
	}
	if e, ok := s.secondary[move.Type]; ok {
		s.moves.ApplyStatusEffect(b, actor, target, e, r, res)
	}
}

func (s *BattleActionService) executeItem(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action, res *domain.TurnResult) error {
	slot, target, err := s.validateItem(b, p, actor, a)
	if err != nil {
		return err
	}
	item := slot.Item
	res.ItemID = item.ID
	res.TargetID = target.ID
	res.Logf("%s 使用了 %s", p.Name, item.Name)

	used := false
	switch item.Kind {
	case domain.ItemHeal:
		amount := s.calc.ComputeHealing(target, HealSpec{Fixed: item.HealAmount, Percent: item.HealPercent})
		if amount > 0 {
			res.Healing = target.Heal(amount)
			res.Logf("%s 回复了 %d 点体力", target.Name, res.Healing)
			used = true
		}
	case domain.ItemRevive:
		fraction := item.HealPercent
		if fraction <= 0 {
			fraction = defaultHealFraction
		}
		res.Healing = target.Revive(target.FractionOfMax(fraction))
		res.Logf("%s 复活了", target.Name)
		used = res.Healing > 0
	case domain.ItemCure:
		if item.CureStatus == "" {
			if kind, ok := s.status.CurePrimary(target); ok {
				res.AddRemoved(target.ID, kind, "cured")
				used = true
			}
		} else if s.status.Cure(target, item.CureStatus) {
			res.AddRemoved(target.ID, item.CureStatus, "cured")
			used = true
		}
	case domain.ItemStatBoost:
		current := target.Stage(item.Stat)
		if item.Stages != 0 && domain.ClampStage(current+item.Stages) != current {
			res.StageChanges = append(res.StageChanges, s.status.ApplyStageChange(target, item.Stat, item.Stages))
			used = true
		}
	}

	if !used {
		res.Failed = true
		res.Logf("但是没有效果")
		return nil
	}
	slot.Quantity--
	return nil
}

func (s *BattleActionService) executeSwitch(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action, res *domain.TurnResult) error {
	idx, err := s.validateSwitch(b, p, actor, a)
	if err != nil {
		return err
	}
	s.status.ResetOnSwitchOut(actor)
	p.Active = idx
	next := p.Roster[idx]
	next.HasActed = true
	res.Switched = true
	res.SwitchIn = next.ID
	res.Logf("%s 收回了 %s，派出了 %s", p.Name, actor.Name, next.Name)
	return nil
}

func (s *BattleActionService) executeCapture(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, a domain.Action, r rng.Source, res *domain.TurnResult) error {
	slot, target, err := s.validateCapture(b, p, actor, a)
	if err != nil {
		return err
	}
	slot.Quantity--
	res.ItemID = slot.Item.ID
	res.TargetID = target.ID

	outcome := s.calc.ComputeCaptureShakes(target, slot.Item, s.calc.StatusCaptureModifier(target), b.Field, r)
	res.Capture = &domain.CaptureOutcome{
		TargetID:  target.ID,
		Success:   outcome.Success,
		Shakes:    outcome.Shakes,
		CatchRate: outcome.CatchRate,
	}
	res.Logf("%s 投出了 %s，摇晃了 %d 次", p.Name, slot.Item.Name, outcome.Shakes)
	if !outcome.Success {
		res.Logf("%s 挣脱了", target.Name)
		return nil
	}

	target.Captured = true
	stats := b.StatsFor(p.ID)
	stats.Captured = append(stats.Captured, target.ID)
	res.Logf("成功捕获了 %s！", target.Name)
	return nil
}

// executeFlee 逃跑概率 (A*128/B + 30*尝试次数)/256，A 不低于 B 时必定成功
func (s *BattleActionService) executeFlee(b *domain.Battle, p *domain.Participant, actor *domain.BattleMonster, r rng.Source, res *domain.TurnResult) {
	p.EscapeAttempts++
	speed := s.status.EffectiveSpeed(actor)
	fastest := 0.0
	for _, m := range b.OpposingActive(p) {
		fastest = math.Max(fastest, s.status.EffectiveSpeed(m))
	}

	escaped := fastest <= 0 || speed >= fastest
	if !escaped {
		odds := (speed*128/fastest + 30*float64(p.EscapeAttempts)) / 256
		escaped = rng.Chance(r, odds)
	}
	if !escaped {
		res.Failed = true
		res.Logf("%s 没能逃走", p.Name)
		return
	}
	p.Fled = true
	res.Fled = true
	res.Logf("%s 成功逃走了", p.Name)
}
