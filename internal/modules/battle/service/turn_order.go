package service

import (
	"cmp"
	"slices"

	"tsu-battle/internal/modules/battle/domain"
)

type orderedAction struct {
	action   domain.Action
	priority int
	attack   bool
	speed    float64
	seq      int
}

// OrderActions 计算行动顺序
// 优先度高者先行；同优先度时非招式行动（换人/道具/捕获/逃跑）先于招式；
// 再按计入能力等级与麻痹后的速度降序；最后按提交顺序
func OrderActions(b *domain.Battle, actions []domain.Action, status *StatusEffectService) []domain.Action {
	entries := make([]orderedAction, 0, len(actions))
	for i, a := range actions {
		entry := orderedAction{action: a, attack: a.Kind.IsAttack(), seq: i}
		if p := b.Participant(a.ParticipantID); p != nil {
			if actor := p.ActiveMonster(); actor != nil {
				entry.speed = status.EffectiveSpeed(actor)
				if a.Kind == domain.ActionAttack {
					if slot := actor.FindMove(a.MoveID); slot != nil {
						entry.priority = slot.Move.Priority
					}
				}
			}
		}
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(x, y orderedAction) int {
		if c := cmp.Compare(y.priority, x.priority); c != 0 {
			return c
		}
		if x.attack != y.attack {
			if x.attack {
				return 1
			}
			return -1
		}
		if c := cmp.Compare(y.speed, x.speed); c != 0 {
			return c
		}
		return cmp.Compare(x.seq, y.seq)
	})

	ordered := make([]domain.Action, len(entries))
	for i, e := range entries {
		ordered[i] = e.action
	}
	return ordered
}

// OrderBySpeed 回合结束处理顺序：速度降序，同速保持参战方顺序
func OrderBySpeed(monsters []*domain.BattleMonster, status *StatusEffectService) []*domain.BattleMonster {
	ordered := slices.Clone(monsters)
	slices.SortStableFunc(ordered, func(x, y *domain.BattleMonster) int {
		return cmp.Compare(status.EffectiveSpeed(y), status.EffectiveSpeed(x))
	})
	return ordered
}
