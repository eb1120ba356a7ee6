package service

import (
	"math"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/rng"
)

// MoveScore 招式评分
type MoveScore struct {
	Move  *domain.Move
	Score float64
}

// BattleAIService 野生怪兽与 NPC 训练师的行动选择
type BattleAIService struct {
	calc    *DamageCalculator
	status  *StatusEffectService
	actions *BattleActionService
	rules   config.AIRules
	logger  log.Logger
}

// NewBattleAIService 创建 AI
func NewBattleAIService(calc *DamageCalculator, status *StatusEffectService, actions *BattleActionService, rules config.BattleRules, logger log.Logger) *BattleAIService {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleAIService{
		calc:    calc,
		status:  status,
		actions: actions,
		rules:   rules.AI,
		logger:  logger.With("component", "battle_ai"),
	}
}

// SelectAction 为参战方选择本回合行动
// 顺序：回复道具 → 换人 → 招式评分；野生怪兽不使用道具也不换人
func (s *BattleAIService) SelectAction(b *domain.Battle, participantID string, r rng.Source) domain.Action {
	p := b.Participant(participantID)
	if p == nil {
		return domain.Action{Kind: domain.ActionStruggle, ParticipantID: participantID}
	}
	actor := p.ActiveMonster()
	opponents := b.OpposingActive(p)
	if actor == nil || len(opponents) == 0 {
		return domain.StruggleAction(p.ID, "")
	}
	target := opponents[0]
	tier := s.rules.Tier(p.Difficulty)

	if p.Kind != domain.ControllerWild {
		if actor.HPFraction() < tier.HealThreshold {
			if item := s.pickHealItem(p, actor); item != nil {
				return domain.ItemAction(p.ID, item.ID, actor.ID)
			}
		}
		if actor.HPFraction() < tier.SwitchThreshold {
			if next := s.pickSwitch(p, actor, target); next != nil {
				return domain.SwitchAction(p.ID, next.ID)
			}
		}
	}

	if !s.actions.HasSelectableMove(actor) {
		return domain.StruggleAction(p.ID, target.ID)
	}

	scores := s.ScoreMoves(b, actor, target, tier)
	choice := s.choose(scores, tier, r)
	if choice.Move.Target != domain.TargetOpponent {
		return domain.AttackAction(p.ID, choice.Move.ID, "")
	}
	return domain.AttackAction(p.ID, choice.Move.ID, target.ID)
}

// ScoreMoves 为全部可选招式评分，顺序与招式列表一致
func (s *BattleAIService) ScoreMoves(b *domain.Battle, actor, target *domain.BattleMonster, tier config.AITier) []MoveScore {
	var scores []MoveScore
	for _, slot := range actor.Moves {
		if slot.PP <= 0 || s.actions.restricted(actor, slot.Move) {
			continue
		}
		scores = append(scores, MoveScore{Move: slot.Move, Score: s.ScoreMove(b, actor, target, slot.Move, tier)})
	}
	return scores
}

// choose 以 RandomChance 概率按分数加权随机，否则取最高分；同分取靠前的招式
func (s *BattleAIService) choose(scores []MoveScore, tier config.AITier, r rng.Source) MoveScore {
	if rng.Chance(r, tier.RandomChance) {
		total := 0.0
		for _, sc := range scores {
			total += sc.Score
		}
		if total <= 0 {
			return scores[r.IntN(len(scores))]
		}
		pick := r.Float64() * total
		for _, sc := range scores {
			if pick < sc.Score {
				return sc
			}
			pick -= sc.Score
		}
		return scores[len(scores)-1]
	}

	best := scores[0]
	for _, sc := range scores[1:] {
		if sc.Score > best.Score {
			best = sc
		}
	}
	return best
}

// ScoreMove 单个招式评分；必定失败的招式为 0
func (s *BattleAIService) ScoreMove(b *domain.Battle, actor, target *domain.BattleMonster, move *domain.Move, tier config.AITier) float64 {
	if move.IsDamaging() {
		return s.scoreDamage(b, actor, target, move, tier)
	}

	accuracy := s.calc.Accuracy(actor, target, move, b.Field)
	score := 0.0
	for _, e := range move.Effects {
		switch e.Kind {
		case domain.EffectStatus, domain.EffectFocusEnergy:
			kind, recipient := e.Status, target
			if e.Kind == domain.EffectFocusEnergy {
				kind = domain.StatusFocusEnergy
			}
			if e.Self || e.Kind == domain.EffectFocusEnergy {
				recipient = actor
			}
			src := StatusSource{FromOpponent: recipient != actor, Field: b.Field}
			if s.status.CanApply(recipient, kind, src) == "" {
				score += s.rules.StatusUtility * e.EffectiveChance() * accuracy
			}
		case domain.EffectStatChange:
			score += s.scoreStatChange(actor, target, e, accuracy)
		case domain.EffectHeal:
			if actor.HPFraction() < tier.HealThreshold {
				score += s.rules.HealUtility * (1 - actor.HPFraction())
			}
		case domain.EffectCure:
			if actor.Status != nil {
				score += s.rules.StatusUtility
			}
		case domain.EffectWeather:
			if b.Field.Weather != e.Weather {
				score += s.rules.StatUtility / 2
			}
		case domain.EffectTerrain:
			if b.Field.Terrain != e.Terrain {
				score += s.rules.StatUtility / 2
			}
		case domain.EffectSubstitute:
			if _, ok := actor.Volatile(domain.StatusSubstitute); !ok && actor.HPFraction() > 0.5 {
				score += s.rules.StatUtility / 2
			}
		case domain.EffectProtect:
			if actor.ProtectCount == 0 {
				score += s.rules.StatUtility / 3
			}
		case domain.EffectForceSwitch:
			if owner := b.Participant(target.OwnerID); owner != nil && len(owner.Bench()) > 0 {
				score += s.rules.StatUtility / 3
			}
		case domain.EffectResetStages:
			if positiveStages(target) > positiveStages(actor) {
				score += s.rules.StatUtility
			}
		}
	}
	return score
}

func (s *BattleAIService) scoreDamage(b *domain.Battle, actor, target *domain.BattleMonster, move *domain.Move, tier config.AITier) float64 {
	dmg := s.calc.ComputeDamage(actor, target, move, b.Field, false, s.calc.MeanRandomFactor())
	if dmg.Immune || target.CurrentHP <= 0 {
		return 0
	}
	accuracy := s.calc.Accuracy(actor, target, move, b.Field)
	expected := float64(dmg.Damage) * accuracy
	score := math.Min(1, expected/float64(target.CurrentHP))
	if dmg.Damage >= target.CurrentHP {
		score += s.rules.KnockoutBonus * accuracy
	}
	// 克制倍率按难度档位折算
	advantage := math.Min(dmg.Effectiveness, 2) - 1
	return score * (1 + tier.TypeAdvantageWeight*advantage/2)
}

func (s *BattleAIService) scoreStatChange(actor, target *domain.BattleMonster, e domain.MoveEffect, accuracy float64) float64 {
	if e.Self {
		if e.Stages > 0 && actor.Stage(e.Stat) < domain.MaxStage && actor.HPFraction() >= 0.5 {
			return s.rules.StatUtility
		}
		return 0
	}
	if _, ok := target.Volatile(domain.StatusSubstitute); ok {
		return 0
	}
	if e.Stages < 0 && target.Stage(e.Stat) > domain.MinStage {
		return s.rules.StatUtility * accuracy
	}
	return 0
}

func positiveStages(m *domain.BattleMonster) int {
	total := 0
	for _, v := range m.Stages {
		if v > 0 {
			total += v
		}
	}
	return total
}

// pickHealItem 选能补满缺口的最小回复道具，都不够时选回复量最大的
func (s *BattleAIService) pickHealItem(p *domain.Participant, actor *domain.BattleMonster) *domain.Item {
	if actor.HasStatus(domain.StatusEmbargo) {
		return nil
	}
	missing := actor.MissingHP()
	var covering, largest *domain.Item
	coveringAmount, largestAmount := 0, 0
	for _, slot := range p.Inventory {
		if slot.Quantity <= 0 || slot.Item.Kind != domain.ItemHeal {
			continue
		}
		amount := slot.Item.HealAmount + int(float64(actor.MaxHP)*slot.Item.HealPercent)
		if amount >= missing && (covering == nil || amount < coveringAmount) {
			covering, coveringAmount = slot.Item, amount
		}
		if amount > largestAmount {
			largest, largestAmount = slot.Item, amount
		}
	}
	if covering != nil {
		return covering
	}
	return largest
}

// pickSwitch 选对当前对手克制关系更好的候补
func (s *BattleAIService) pickSwitch(p *domain.Participant, actor, target *domain.BattleMonster) *domain.BattleMonster {
	if actor.HasStatus(domain.StatusTrapped) || actor.HasStatus(domain.StatusIngrain) {
		return nil
	}
	best := actor
	bestScore := s.matchup(actor, target)
	for _, m := range p.Bench() {
		if score := s.matchup(m, target); score > bestScore {
			best, bestScore = m, score
		}
	}
	if best == actor {
		return nil
	}
	return best
}

// matchup 己方最佳攻击倍率减去对手属性对己方的最大倍率
func (s *BattleAIService) matchup(m, opponent *domain.BattleMonster) float64 {
	chart := s.calc.TypeChart()
	offense := 0.0
	for _, slot := range m.Moves {
		if slot.PP > 0 && slot.Move.IsDamaging() {
			offense = math.Max(offense, chart.Effectiveness(slot.Move.Type, opponent.Types))
		}
	}
	defense := 0.0
	for _, t := range opponent.Types {
		defense = math.Max(defense, chart.Effectiveness(t, m.Types))
	}
	return offense - defense
}
