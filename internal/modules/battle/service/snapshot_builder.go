package service

import (
	"context"
	"fmt"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/validator"
	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

// 记录种类，用于数据错误定位
const (
	recordMonster = "monster"
	recordMove    = "move"
	recordItem    = "item"
)

// InventorySpec 参战方携带的道具
type InventorySpec struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// ParticipantSpec 开战时的参战方描述
type ParticipantSpec struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Kind        domain.ControllerKind `json:"kind"`
	Team        domain.Team           `json:"team"`
	MonsterIDs  []string              `json:"monster_ids"`
	Difficulty  string                `json:"difficulty,omitempty"`
	Inventory   []InventorySpec       `json:"inventory,omitempty"`
	RewardItems []string              `json:"reward_items,omitempty"`
}

// SnapshotBuilder 把协作方记录转换为战斗快照；所有读取与校验在修改任何战斗状态之前完成
type SnapshotBuilder struct {
	source    interfaces.MonsterSnapshotSource
	validator *validator.Validator
}

// NewSnapshotBuilder 创建快照构建器
func NewSnapshotBuilder(source interfaces.MonsterSnapshotSource) *SnapshotBuilder {
	return &SnapshotBuilder{source: source, validator: validator.New()}
}

// BuildParticipant 读取并构建参战方
func (b *SnapshotBuilder) BuildParticipant(ctx context.Context, spec ParticipantSpec) (*domain.Participant, error) {
	p := &domain.Participant{
		ID:          spec.ID,
		Name:        spec.Name,
		Kind:        spec.Kind,
		Team:        spec.Team,
		Difficulty:  spec.Difficulty,
		RewardItems: append([]string(nil), spec.RewardItems...),
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	moves := make(map[string]*domain.Move)
	for _, id := range spec.MonsterIDs {
		m, err := b.BuildMonster(ctx, p.ID, id, moves)
		if err != nil {
			return nil, err
		}
		p.Roster = append(p.Roster, m)
	}

	for _, inv := range spec.Inventory {
		if inv.Quantity <= 0 {
			continue
		}
		item, err := b.BuildItem(ctx, inv.ItemID)
		if err != nil {
			return nil, err
		}
		p.Inventory = append(p.Inventory, &domain.InventorySlot{Item: item, Quantity: inv.Quantity})
	}

	p.Active = -1
	for i, m := range p.Roster {
		if m.CanBattle() {
			p.Active = i
			break
		}
	}
	if p.Active < 0 {
		return nil, xerrors.NewBattleDataError("participant", p.ID, fmt.Errorf("no monster able to battle"))
	}
	return p, nil
}

// BuildMonster 读取怪兽记录及其招式；moves 用于在同一参战方内复用招式定义
func (b *SnapshotBuilder) BuildMonster(ctx context.Context, ownerID, monsterID string, moves map[string]*domain.Move) (*domain.BattleMonster, error) {
	rec, err := b.source.GetMonster(ctx, monsterID)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordMonster, monsterID, err)
	}
	if rec == nil {
		return nil, xerrors.NewBattleDataError(recordMonster, monsterID, fmt.Errorf("record is nil"))
	}
	if err := b.validator.Validate(rec); err != nil {
		return nil, xerrors.NewBattleDataError(recordMonster, monsterID, err).
			WithMetadata("validation", validator.TranslateValidationError(err))
	}

	m, err := MonsterFromRecord(ownerID, rec)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordMonster, monsterID, err)
	}

	for _, moveID := range rec.Moves {
		move, ok := moves[moveID]
		if !ok {
			if move, err = b.BuildMove(ctx, moveID); err != nil {
				return nil, err
			}
			if moves != nil {
				moves[moveID] = move
			}
		}
		m.Moves = append(m.Moves, &domain.MoveSlot{Move: move, PP: move.PP, MaxPP: move.PP})
	}
	return m, nil
}

// BuildMove 读取招式定义
func (b *SnapshotBuilder) BuildMove(ctx context.Context, moveID string) (*domain.Move, error) {
	rec, err := b.source.GetMove(ctx, moveID)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordMove, moveID, err)
	}
	if rec == nil {
		return nil, xerrors.NewBattleDataError(recordMove, moveID, fmt.Errorf("record is nil"))
	}
	if err := b.validator.Validate(rec); err != nil {
		return nil, xerrors.NewBattleDataError(recordMove, moveID, err).
			WithMetadata("validation", validator.TranslateValidationError(err))
	}
	move, err := MoveFromRecord(rec)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordMove, moveID, err)
	}
	return move, nil
}

// BuildItem 读取道具定义
func (b *SnapshotBuilder) BuildItem(ctx context.Context, itemID string) (*domain.Item, error) {
	rec, err := b.source.GetItem(ctx, itemID)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordItem, itemID, err)
	}
	if rec == nil {
		return nil, xerrors.NewBattleDataError(recordItem, itemID, fmt.Errorf("record is nil"))
	}
	if err := b.validator.Validate(rec); err != nil {
		return nil, xerrors.NewBattleDataError(recordItem, itemID, err).
			WithMetadata("validation", validator.TranslateValidationError(err))
	}
	item, err := ItemFromRecord(rec)
	if err != nil {
		return nil, xerrors.NewBattleDataError(recordItem, itemID, err)
	}
	return item, nil
}

// MonsterFromRecord 怪兽记录转换为战斗快照（不含招式）
func MonsterFromRecord(ownerID string, rec *interfaces.MonsterRecord) (*domain.BattleMonster, error) {
	types := make([]domain.Type, 0, len(rec.Types))
	for _, name := range rec.Types {
		t, err := domain.ParseType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	m := &domain.BattleMonster{
		ID:      rec.ID,
		OwnerID: ownerID,
		Name:    rec.Name,
		Species: rec.Species,
		Level:   rec.Level,
		Types:   types,
		Stats: domain.Stats{
			HP:        rec.Stats.HP,
			Attack:    rec.Stats.Attack,
			Defense:   rec.Stats.Defense,
			SpAttack:  rec.Stats.SpAttack,
			SpDefense: rec.Stats.SpDefense,
			Speed:     rec.Stats.Speed,
		},
		MaxHP:          rec.Stats.HP,
		CurrentHP:      rec.Stats.HP,
		Stages:         domain.StatStages{},
		CatchRate:      rec.CatchRate,
		BaseExperience: rec.BaseExperience,
	}
	if rec.CurrentHP != nil {
		if *rec.CurrentHP > m.MaxHP {
			return nil, fmt.Errorf("current_hp %d exceeds max hp %d", *rec.CurrentHP, m.MaxHP)
		}
		m.CurrentHP = *rec.CurrentHP
		m.Fainted = m.CurrentHP == 0
	}
	if rec.Status != "" {
		kind, err := domain.ParseStatus(rec.Status)
		if err != nil {
			return nil, err
		}
		if !kind.IsPrimary() {
			return nil, fmt.Errorf("status %q is not a primary status", rec.Status)
		}
		m.Status = &domain.PrimaryStatus{Kind: kind}
	}
	return m, nil
}

// MoveFromRecord 招式记录转换为招式定义
func MoveFromRecord(rec *interfaces.MoveRecord) (*domain.Move, error) {
	t, err := domain.ParseType(rec.Type)
	if err != nil {
		return nil, err
	}
	move := &domain.Move{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      t,
		Category:  domain.MoveCategory(rec.Category),
		PP:        rec.PP,
		Priority:  rec.Priority,
		Target:    domain.MoveTarget(rec.Target),
		CritStage: rec.CritStage,
	}
	if rec.Power != nil {
		move.Power = *rec.Power
	}
	if rec.Accuracy == nil {
		move.AlwaysHits = true
	} else {
		move.Accuracy = *rec.Accuracy
	}
	if move.Category != domain.CategoryStatus && move.Power <= 0 {
		return nil, fmt.Errorf("damaging move %q has no power", rec.ID)
	}

	for _, er := range rec.Effects {
		e, err := effectFromRecord(er)
		if err != nil {
			return nil, err
		}
		move.Effects = append(move.Effects, e)
	}
	return move, nil
}

func effectFromRecord(rec interfaces.MoveEffectRecord) (domain.MoveEffect, error) {
	e := domain.MoveEffect{
		Kind:          domain.EffectKind(rec.Kind),
		Stages:        rec.Stages,
		Chance:        rec.Chance,
		Self:          rec.Self,
		Fraction:      rec.Fraction,
		WeatherScaled: rec.WeatherScaled,
		Turns:         rec.Turns,
	}
	var err error
	switch e.Kind {
	case domain.EffectStatus:
		e.Status, err = domain.ParseStatus(rec.Status)
	case domain.EffectStatChange:
		e.Stat, err = domain.ParseStat(rec.Stat)
	case domain.EffectWeather:
		e.Weather, err = domain.ParseWeather(rec.Weather)
	case domain.EffectTerrain:
		e.Terrain, err = domain.ParseTerrain(rec.Terrain)
	case domain.EffectHeal, domain.EffectCure, domain.EffectProtect, domain.EffectSubstitute,
		domain.EffectForceSwitch, domain.EffectResetStages, domain.EffectFlinch,
		domain.EffectDrain, domain.EffectRecoil, domain.EffectFocusEnergy:
	default:
		err = fmt.Errorf("unknown effect kind %q", rec.Kind)
	}
	return e, err
}

// ItemFromRecord 道具记录转换为道具定义
func ItemFromRecord(rec *interfaces.ItemRecord) (*domain.Item, error) {
	item := &domain.Item{
		ID:              rec.ID,
		Name:            rec.Name,
		Kind:            domain.ItemKind(rec.Kind),
		HealAmount:      rec.HealAmount,
		HealPercent:     rec.HealPercent,
		CaptureModifier: rec.CaptureModifier,
		Guaranteed:      rec.Guaranteed,
		Stages:          rec.Stages,
	}
	if rec.CureStatus != "" {
		kind, err := domain.ParseStatus(rec.CureStatus)
		if err != nil {
			return nil, err
		}
		item.CureStatus = kind
	}
	if rec.Stat != "" {
		stat, err := domain.ParseStat(rec.Stat)
		if err != nil {
			return nil, err
		}
		item.Stat = stat
	}
	if item.Kind == domain.ItemCapture && item.CaptureModifier <= 0 && !item.Guaranteed {
		item.CaptureModifier = 1
	}
	return item, nil
}
