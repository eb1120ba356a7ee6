package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/rng"
)

// statusDuel 一对一的变化招式测试场景
func statusDuel() (*domain.Battle, *domain.BattleMonster, *domain.BattleMonster) {
	user := newMonster("user", 20, uniformStats(100, 50), domain.TypeNormal)
	target := newMonster("target", 20, uniformStats(100, 50), domain.TypeWater)
	b := newActiveBattle(
		newParticipant("p1", domain.ControllerPlayer, domain.TeamPlayers, user),
		newParticipant("p2", domain.ControllerNPC, domain.TeamOpponents, target),
	)
	return b, user, target
}

func TestResolve_StatChanges(t *testing.T) {
	e := newEngine()

	t.Run("降低目标能力", func(t *testing.T) {
		b, user, target := statusDuel()
		growl := statusMove("growl", domain.TypeNormal, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatChange, Stat: domain.StatAttack, Stages: -1})

		res := e.moves.Resolve(b, user, target, growl, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, -1, target.Stage(domain.StatAttack))
		require.Len(t, res.StageChanges, 1)
		assert.Equal(t, -1, res.StageChanges[0].Applied)
	})

	t.Run("能力已达上限时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		user.Stages[domain.StatAttack] = domain.MaxStage
		dance := statusMove("swords-dance", domain.TypeNormal, domain.TargetSelf,
			domain.MoveEffect{Kind: domain.EffectStatChange, Stat: domain.StatAttack, Stages: 2, Self: true})

		res := e.moves.Resolve(b, user, target, dance, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Empty(t, res.StageChanges)
		assert.Equal(t, domain.MaxStage, user.Stage(domain.StatAttack))
	})

	t.Run("能力已达下限时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		target.Stages[domain.StatDefense] = domain.MinStage
		leer := statusMove("leer", domain.TypeNormal, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatChange, Stat: domain.StatDefense, Stages: -1})

		res := e.moves.Resolve(b, user, target, leer, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Equal(t, domain.MinStage, target.Stage(domain.StatDefense))
	})

	t.Run("替身挡下能力降低", func(t *testing.T) {
		b, user, target := statusDuel()
		e.status.ApplyStatus(target, domain.StatusSubstitute, StatusSource{HP: 25}, rng.NewSequence(0))
		growl := statusMove("growl", domain.TypeNormal, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatChange, Stat: domain.StatAttack, Stages: -1})

		res := e.moves.Resolve(b, user, target, growl, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.True(t, res.Blocked)
		assert.Equal(t, 0, target.Stage(domain.StatAttack))
	})
}

func TestResolve_Status(t *testing.T) {
	e := newEngine()

	t.Run("施加异常状态", func(t *testing.T) {
		b, user, target := statusDuel()
		wave := statusMove("thunder-wave", domain.TypeElectric, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatus, Status: domain.StatusParalysis})

		res := e.moves.Resolve(b, user, target, wave, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, domain.StatusParalysis, target.PrimaryKind())
		require.Len(t, res.StatusesApplied, 1)
	})

	t.Run("属性免疫时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		target.Types = []domain.Type{domain.TypeElectric}
		wave := statusMove("thunder-wave", domain.TypeElectric, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatus, Status: domain.StatusParalysis})

		res := e.moves.Resolve(b, user, target, wave, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Nil(t, target.Status)
	})

	t.Run("概率未触发时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		move := statusMove("maybe-burn", domain.TypeFire, domain.TargetOpponent,
			domain.MoveEffect{Kind: domain.EffectStatus, Status: domain.StatusBurn, Chance: 0.3})

		res := e.moves.Resolve(b, user, target, move, rng.NewSequence(0.5))
		assert.True(t, res.Failed)
		assert.Nil(t, target.Status)
	})

	t.Run("治愈自身异常", func(t *testing.T) {
		b, user, target := statusDuel()
		user.Status = &domain.PrimaryStatus{Kind: domain.StatusPoison}
		refresh := statusMove("refresh", domain.TypeNormal, domain.TargetSelf, domain.MoveEffect{Kind: domain.EffectCure})

		res := e.moves.Resolve(b, user, target, refresh, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Nil(t, user.Status)
	})
}

func TestResolve_Healing(t *testing.T) {
	e := newEngine()

	t.Run("按比例回复", func(t *testing.T) {
		b, user, target := statusDuel()
		user.CurrentHP = 40
		recoverMove := statusMove("recover", domain.TypeNormal, domain.TargetSelf,
			domain.MoveEffect{Kind: domain.EffectHeal, Fraction: 0.5})

		res := e.moves.Resolve(b, user, target, recoverMove, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, 50, res.Healing)
		assert.Equal(t, 90, user.CurrentHP)
	})

	t.Run("回复不超过最大 HP", func(t *testing.T) {
		b, user, target := statusDuel()
		user.CurrentHP = 90
		recoverMove := statusMove("recover", domain.TypeNormal, domain.TargetSelf,
			domain.MoveEffect{Kind: domain.EffectHeal, Fraction: 0.5})

		res := e.moves.Resolve(b, user, target, recoverMove, rng.NewSequence(0))
		assert.Equal(t, 10, res.Healing)
		assert.Equal(t, 100, user.CurrentHP)
	})

	t.Run("满血时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		recoverMove := statusMove("recover", domain.TypeNormal, domain.TargetSelf,
			domain.MoveEffect{Kind: domain.EffectHeal, Fraction: 0.5})

		res := e.moves.Resolve(b, user, target, recoverMove, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Equal(t, 0, res.Healing)
	})

	t.Run("雨天光合作用回复减少", func(t *testing.T) {
		b, user, target := statusDuel()
		b.Field.Weather = domain.WeatherRain
		user.CurrentHP = 10
		synthesis := statusMove("synthesis", domain.TypeGrass, domain.TargetSelf,
			domain.MoveEffect{Kind: domain.EffectHeal, WeatherScaled: true})

		res := e.moves.Resolve(b, user, target, synthesis, rng.NewSequence(0))
		assert.Equal(t, 25, res.Healing)
		assert.Equal(t, 35, user.CurrentHP)
	})
}

func TestResolve_Field(t *testing.T) {
	e := newEngine()
	sunnyDay := statusMove("sunny-day", domain.TypeFire, domain.TargetField,
		domain.MoveEffect{Kind: domain.EffectWeather, Weather: domain.WeatherSun})

	b, user, target := statusDuel()
	res := e.moves.Resolve(b, user, target, sunnyDay, rng.NewSequence(0))
	assert.False(t, res.Failed)
	assert.Equal(t, domain.WeatherSun, b.Field.Weather)
	assert.Equal(t, e.rules.Field.DefaultDuration, b.Field.WeatherTurns)
	require.Len(t, res.FieldChanges, 1)
	assert.Equal(t, domain.FieldKindWeather, res.FieldChanges[0].Kind)

	t.Run("同一天气重复使用失败", func(t *testing.T) {
		res := e.moves.Resolve(b, user, target, sunnyDay, rng.NewSequence(0))
		assert.True(t, res.Failed)
	})

	t.Run("设置场地", func(t *testing.T) {
		misty := statusMove("misty-terrain", domain.TypeFairy, domain.TargetField,
			domain.MoveEffect{Kind: domain.EffectTerrain, Terrain: domain.TerrainMisty, Turns: 3})
		res := e.moves.Resolve(b, user, target, misty, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, domain.TerrainMisty, b.Field.Terrain)
		assert.Equal(t, 3, b.Field.TerrainTurns)
	})
}

func TestResolve_Protection(t *testing.T) {
	e := newEngine()
	protect := statusMove("protect", domain.TypeNormal, domain.TargetSelf, domain.MoveEffect{Kind: domain.EffectProtect})

	t.Run("连续守住成功率递减", func(t *testing.T) {
		b, user, target := statusDuel()
		res := e.moves.Resolve(b, user, target, protect, rng.NewSequence(0.5))
		assert.False(t, res.Failed)
		assert.True(t, user.Protected)
		assert.Equal(t, 1, user.ProtectCount)

		user.Protected = false
		res = e.moves.Resolve(b, user, target, protect, rng.NewSequence(0.5))
		assert.True(t, res.Failed)
		assert.False(t, user.Protected)
		assert.Equal(t, 0, user.ProtectCount)
	})

	t.Run("替身消耗四分之一 HP", func(t *testing.T) {
		b, user, target := statusDuel()
		sub := statusMove("substitute", domain.TypeNormal, domain.TargetSelf, domain.MoveEffect{Kind: domain.EffectSubstitute})

		res := e.moves.Resolve(b, user, target, sub, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, 75, user.CurrentHP)
		v, ok := user.Volatile(domain.StatusSubstitute)
		require.True(t, ok)
		assert.Equal(t, 25, v.HP)

		res = e.moves.Resolve(b, user, target, sub, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Equal(t, 75, user.CurrentHP)
	})

	t.Run("体力不足时无法制造替身", func(t *testing.T) {
		b, user, target := statusDuel()
		user.CurrentHP = 25
		sub := statusMove("substitute", domain.TypeNormal, domain.TargetSelf, domain.MoveEffect{Kind: domain.EffectSubstitute})

		res := e.moves.Resolve(b, user, target, sub, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.Equal(t, 25, user.CurrentHP)
	})
}

func TestResolve_ForceSwitch(t *testing.T) {
	e := newEngine()
	roar := statusMove("roar", domain.TypeNormal, domain.TargetOpponent, domain.MoveEffect{Kind: domain.EffectForceSwitch})

	user := newMonster("user", 20, uniformStats(100, 50), domain.TypeNormal)
	lead := newMonster("lead", 20, uniformStats(100, 50), domain.TypeWater)
	bench := newMonster("bench", 20, uniformStats(100, 50), domain.TypeGrass)
	lead.Stages[domain.StatAttack] = 2
	b := newActiveBattle(
		newParticipant("p1", domain.ControllerPlayer, domain.TeamPlayers, user),
		newParticipant("p2", domain.ControllerNPC, domain.TeamOpponents, lead, bench),
	)

	res := e.moves.Resolve(b, user, lead, roar, rng.NewSequence(0))
	assert.False(t, res.Failed)
	assert.True(t, res.Switched)
	assert.Equal(t, "bench", res.SwitchIn)
	assert.Equal(t, bench, b.Participant("p2").ActiveMonster())
	assert.Equal(t, 0, lead.Stage(domain.StatAttack))

	t.Run("没有候补时失败", func(t *testing.T) {
		b, user, target := statusDuel()
		res := e.moves.Resolve(b, user, target, roar, rng.NewSequence(0))
		assert.True(t, res.Failed)
		assert.False(t, res.Switched)
	})
}

func TestResolve_FocusEnergyAndHaze(t *testing.T) {
	e := newEngine()

	t.Run("聚气提升会心率", func(t *testing.T) {
		b, user, target := statusDuel()
		focus := statusMove("focus-energy", domain.TypeNormal, domain.TargetSelf, domain.MoveEffect{Kind: domain.EffectFocusEnergy})
		slash := attackMove("slash", domain.TypeNormal, domain.CategoryPhysical, 70)
		before := e.calc.CriticalChance(user, slash)

		res := e.moves.Resolve(b, user, target, focus, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.True(t, user.HasStatus(domain.StatusFocusEnergy))
		assert.False(t, target.HasStatus(domain.StatusFocusEnergy))
		assert.Greater(t, e.calc.CriticalChance(user, slash), before)

		again := e.moves.Resolve(b, user, target, focus, rng.NewSequence(0))
		assert.True(t, again.Failed, "已聚气时再次使用失败")
	})

	t.Run("黑雾清除全场能力变化", func(t *testing.T) {
		b, user, target := statusDuel()
		haze := statusMove("haze", domain.TypeIce, domain.TargetField, domain.MoveEffect{Kind: domain.EffectResetStages})
		user.Stages[domain.StatDefense] = -2
		target.Stages[domain.StatAttack] = 3

		res := e.moves.Resolve(b, user, target, haze, rng.NewSequence(0))
		assert.False(t, res.Failed)
		assert.Equal(t, 0, user.Stage(domain.StatDefense))
		assert.Equal(t, 0, target.Stage(domain.StatAttack))
	})

	t.Run("没有能力变化时黑雾失败", func(t *testing.T) {
		b, user, target := statusDuel()
		haze := statusMove("haze", domain.TypeIce, domain.TargetField, domain.MoveEffect{Kind: domain.EffectResetStages})

		res := e.moves.Resolve(b, user, target, haze, rng.NewSequence(0))
		assert.True(t, res.Failed)
	})
}
