package service

import (
	"context"
	"fmt"
	"sync"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

type engine struct {
	rules   config.BattleRules
	calc    *DamageCalculator
	status  *StatusEffectService
	moves   *StatusMoveService
	actions *BattleActionService
	ai      *BattleAIService
}

func newEngine() *engine {
	rules := config.DefaultBattleRules()
	logger := log.NewNopLogger()
	e := &engine{rules: rules}
	e.calc = NewDamageCalculator(nil, rules)
	e.status = NewStatusEffectService(rules)
	e.moves = NewStatusMoveService(e.calc, e.status, rules, logger)
	e.actions = NewBattleActionService(e.calc, e.status, e.moves, rules, logger)
	e.ai = NewBattleAIService(e.calc, e.status, e.actions, rules, logger)
	return e
}

func uniformStats(hp, v int) domain.Stats {
	return domain.Stats{HP: hp, Attack: v, Defense: v, SpAttack: v, SpDefense: v, Speed: v}
}

func newMonster(id string, level int, stats domain.Stats, types ...domain.Type) *domain.BattleMonster {
	return &domain.BattleMonster{
		ID:             id,
		Name:           id,
		Level:          level,
		Types:          types,
		Stats:          stats,
		MaxHP:          stats.HP,
		CurrentHP:      stats.HP,
		Stages:         domain.StatStages{},
		CatchRate:      45,
		BaseExperience: 70,
	}
}

func withMoves(m *domain.BattleMonster, moves ...*domain.Move) *domain.BattleMonster {
	for _, mv := range moves {
		m.Moves = append(m.Moves, &domain.MoveSlot{Move: mv, PP: mv.PP, MaxPP: mv.PP})
	}
	return m
}

func attackMove(id string, t domain.Type, category domain.MoveCategory, power int) *domain.Move {
	return &domain.Move{
		ID:         id,
		Name:       id,
		Type:       t,
		Category:   category,
		Power:      power,
		PP:         10,
		Target:     domain.TargetOpponent,
		AlwaysHits: true,
	}
}

func statusMove(id string, t domain.Type, target domain.MoveTarget, effects ...domain.MoveEffect) *domain.Move {
	return &domain.Move{
		ID:         id,
		Name:       id,
		Type:       t,
		Category:   domain.CategoryStatus,
		PP:         10,
		Target:     target,
		AlwaysHits: true,
		Effects:    effects,
	}
}

func newParticipant(id string, kind domain.ControllerKind, team domain.Team, roster ...*domain.BattleMonster) *domain.Participant {
	for _, m := range roster {
		m.OwnerID = id
	}
	return &domain.Participant{ID: id, Name: id, Kind: kind, Team: team, Roster: roster}
}

func newActiveBattle(participants ...*domain.Participant) *domain.Battle {
	b := &domain.Battle{
		ID:           "battle-test",
		State:        domain.StateActive,
		Turn:         1,
		Participants: participants,
	}
	for _, p := range participants {
		b.StatsFor(p.ID)
	}
	return b
}

// memorySource 内存数据源，记录读取次数
type memorySource struct {
	mu       sync.Mutex
	monsters map[string]*interfaces.MonsterRecord
	moves    map[string]*interfaces.MoveRecord
	items    map[string]*interfaces.ItemRecord
	reads    int
}

func intPtr(v int) *int { return &v }

func newMemorySource() *memorySource {
	s := &memorySource{
		monsters: map[string]*interfaces.MonsterRecord{},
		moves:    map[string]*interfaces.MoveRecord{},
		items:    map[string]*interfaces.ItemRecord{},
	}
	s.moves["tackle"] = &interfaces.MoveRecord{ID: "tackle", Name: "Tackle", Type: "normal", Category: "physical", Power: intPtr(40), Accuracy: intPtr(100), PP: 35, Target: "opponent"}
	s.moves["ember"] = &interfaces.MoveRecord{ID: "ember", Name: "Ember", Type: "fire", Category: "special", Power: intPtr(40), Accuracy: intPtr(100), PP: 25, Target: "opponent"}
	s.moves["growl"] = &interfaces.MoveRecord{
		ID: "growl", Name: "Growl", Type: "normal", Category: "status", Accuracy: intPtr(100), PP: 40, Target: "opponent",
		Effects: []interfaces.MoveEffectRecord{{Kind: "stat_change", Stat: "attack", Stages: -1}},
	}
	s.monsters["sparky"] = &interfaces.MonsterRecord{
		ID: "sparky", Name: "Sparky", Level: 25, Types: []string{"electric"},
		Stats:     interfaces.StatsRecord{HP: 70, Attack: 55, Defense: 40, SpAttack: 60, SpDefense: 50, Speed: 90},
		Moves:     []string{"tackle", "growl"},
		CatchRate: 190, BaseExperience: 112,
	}
	s.monsters["embercub"] = &interfaces.MonsterRecord{
		ID: "embercub", Name: "Embercub", Level: 24, Types: []string{"fire"},
		Stats:     interfaces.StatsRecord{HP: 78, Attack: 62, Defense: 48, SpAttack: 65, SpDefense: 50, Speed: 65},
		Moves:     []string{"ember", "tackle"},
		CatchRate: 45, BaseExperience: 62,
	}
	s.monsters["weakling"] = &interfaces.MonsterRecord{
		ID: "weakling", Name: "Weakling", Level: 2, Types: []string{"normal"},
		Stats:     interfaces.StatsRecord{HP: 10, Attack: 5, Defense: 5, SpAttack: 5, SpDefense: 5, Speed: 1},
		Moves:     []string{"growl"},
		CatchRate: 255, BaseExperience: 50,
	}
	s.items["potion"] = &interfaces.ItemRecord{ID: "potion", Name: "Potion", Kind: "heal", HealAmount: 20}
	s.items["master-ball"] = &interfaces.ItemRecord{ID: "master-ball", Name: "Master Ball", Kind: "capture", Guaranteed: true}
	return s
}

func (s *memorySource) GetMonster(_ context.Context, id string) (*interfaces.MonsterRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	rec, ok := s.monsters[id]
	if !ok {
		return nil, xerrors.NewNotFoundError("monster", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *memorySource) GetMove(_ context.Context, id string) (*interfaces.MoveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	rec, ok := s.moves[id]
	if !ok {
		return nil, xerrors.NewNotFoundError("move", id)
	}
	cp := *rec
	return &cp, nil
}

func (s *memorySource) GetItem(_ context.Context, id string) (*interfaces.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	rec, ok := s.items[id]
	if !ok {
		return nil, xerrors.NewNotFoundError("item", id)
	}
	cp := *rec
	return &cp, nil
}

// recordingSink 记录输出协作方收到的回合与结算
type recordingSink struct {
	mu    sync.Mutex
	turns []int
	ends  []*domain.BattleEndResult
	err   error
}

func (s *recordingSink) PublishTurn(_ context.Context, _ string, turn int, _ []*domain.TurnResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	return s.err
}

func (s *recordingSink) PublishEnd(_ context.Context, result *domain.BattleEndResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends = append(s.ends, result)
	return s.err
}

func (s *recordingSink) endCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ends)
}

func describe(b *domain.Battle) string {
	return fmt.Sprintf("%s state=%s turn=%d", b.ID, b.State, b.Turn)
}
