package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/rng"
)

func TestComputeDamage(t *testing.T) {
	e := newEngine()

	t.Run("本系加成与克制叠加", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeFire)
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeGrass)
		move := attackMove("flame", domain.TypeFire, domain.CategoryPhysical, 80)

		got := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)

		// floor(22*80*100/100/50 + 2) = 37; 37 * 1.5 * 2 = 111
		assert.Equal(t, 37, got.Base)
		assert.True(t, got.STAB)
		assert.Equal(t, 2.0, got.Effectiveness)
		assert.Equal(t, 111, got.Damage)
	})

	t.Run("等级系数按实数计算", func(t *testing.T) {
		tests := []struct {
			name  string
			level int
			base  int
		}{
			// floor(22.8*80*100/100/50 + 2) = floor(38.48)
			{name: "等级 52", level: 52, base: 38},
			// floor(14.8*80/50 + 2) = floor(25.68)
			{name: "等级 32", level: 32, base: 25},
			{name: "等级 50", level: 50, base: 37},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				attacker := newMonster("a", tt.level, uniformStats(150, 100), domain.TypeFighting)
				defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeWater)
				move := attackMove("strike", domain.TypeNormal, domain.CategoryPhysical, 80)

				got := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)
				assert.Equal(t, tt.base, got.Base)
				assert.Equal(t, tt.base, got.Damage)
			})
		}
	})

	t.Run("计算不修改任何输入", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeFire)
		attacker.Stages[domain.StatAttack] = -2
		attacker.Status = &domain.PrimaryStatus{Kind: domain.StatusBurn}
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeGrass)
		move := attackMove("flame", domain.TypeFire, domain.CategoryPhysical, 80)
		field := domain.Field{Weather: domain.WeatherSun, WeatherTurns: 3}

		withMoves(attacker, move)
		withMoves(defender, move)
		beforeA, beforeD := attacker.Clone(), defender.Clone()
		first := e.calc.ComputeDamage(attacker, defender, move, field, true, 0.9)
		second := e.calc.ComputeDamage(attacker, defender, move, field, true, 0.9)

		assert.Equal(t, first, second)
		assert.Equal(t, beforeA, attacker)
		assert.Equal(t, beforeD, defender)
		assert.Equal(t, domain.Field{Weather: domain.WeatherSun, WeatherTurns: 3}, field)
	})

	t.Run("属性无效时伤害为 0", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeNormal)
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeGhost)
		move := attackMove("tackle", domain.TypeNormal, domain.CategoryPhysical, 40)

		got := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)
		assert.True(t, got.Immune)
		assert.Equal(t, 0, got.Damage)
		assert.Equal(t, 0.0, got.Effectiveness)
	})

	t.Run("非无效时至少造成 1 点伤害", func(t *testing.T) {
		attacker := newMonster("a", 1, uniformStats(10, 1), domain.TypeNormal)
		defender := newMonster("d", 100, uniformStats(300, 250), domain.TypeSteel)
		move := attackMove("tackle", domain.TypeNormal, domain.CategoryPhysical, 10)

		got := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 0.85)
		assert.Equal(t, 1, got.Damage)
	})

	t.Run("天气修正", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeNormal)
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeNormal)
		water := attackMove("splash", domain.TypeWater, domain.CategorySpecial, 80)

		plain := e.calc.ComputeDamage(attacker, defender, water, domain.Field{}, false, 1.0)
		rain := e.calc.ComputeDamage(attacker, defender, water, domain.Field{Weather: domain.WeatherRain}, false, 1.0)
		sun := e.calc.ComputeDamage(attacker, defender, water, domain.Field{Weather: domain.WeatherSun}, false, 1.0)

		assert.Equal(t, 37, plain.Damage)
		assert.Equal(t, 55, rain.Damage)
		assert.Equal(t, 18, sun.Damage)
	})

	t.Run("会心一击无视攻击方的能力降低", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeFighting)
		attacker.Stages[domain.StatAttack] = -6
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeWater)
		move := attackMove("tackle", domain.TypeNormal, domain.CategoryPhysical, 80)

		normal := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)
		crit := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, true, 1.0)

		// 37 * 1.5 = 55
		assert.Equal(t, 55, crit.Damage)
		assert.Less(t, normal.Damage, crit.Damage)
	})

	t.Run("灼伤减半物理伤害", func(t *testing.T) {
		attacker := newMonster("a", 50, uniformStats(150, 100), domain.TypeNormal)
		defender := newMonster("d", 50, uniformStats(150, 100), domain.TypeWater)
		move := attackMove("strike", domain.TypeFighting, domain.CategoryPhysical, 80)

		healthy := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)
		attacker.Status = &domain.PrimaryStatus{Kind: domain.StatusBurn}
		burned := e.calc.ComputeDamage(attacker, defender, move, domain.Field{}, false, 1.0)

		assert.Equal(t, 37, healthy.Damage)
		assert.Equal(t, 18, burned.Damage)
	})
}

func TestComputeHealing(t *testing.T) {
	e := newEngine()
	m := newMonster("m", 10, uniformStats(100, 10))

	t.Run("不超过最大 HP", func(t *testing.T) {
		m.CurrentHP = 90
		assert.Equal(t, 10, e.calc.ComputeHealing(m, HealSpec{Fixed: 50}))
	})

	t.Run("固定值与比例叠加", func(t *testing.T) {
		m.CurrentHP = 10
		assert.Equal(t, 45, e.calc.ComputeHealing(m, HealSpec{Fixed: 20, Percent: 0.25}))
	})

	t.Run("满血或倒下时为 0", func(t *testing.T) {
		m.CurrentHP = 100
		assert.Equal(t, 0, e.calc.ComputeHealing(m, HealSpec{Fixed: 20}))
		m.CurrentHP, m.Fainted = 0, true
		assert.Equal(t, 0, e.calc.ComputeHealing(m, HealSpec{Fixed: 20}))
	})
}

func TestAccuracy(t *testing.T) {
	e := newEngine()
	user := newMonster("u", 10, uniformStats(50, 10))
	target := newMonster("t", 10, uniformStats(50, 10))

	sure := attackMove("swift", domain.TypeNormal, domain.CategorySpecial, 60)
	assert.Equal(t, 1.0, e.calc.Accuracy(user, target, sure, domain.Field{Weather: domain.WeatherFog}))

	shaky := attackMove("rock", domain.TypeRock, domain.CategoryPhysical, 50)
	shaky.AlwaysHits, shaky.Accuracy = false, 90
	assert.InDelta(t, 0.9, e.calc.Accuracy(user, target, shaky, domain.Field{}), 1e-9)
	assert.InDelta(t, 0.54, e.calc.Accuracy(user, target, shaky, domain.Field{Weather: domain.WeatherFog}), 1e-9)

	target.Stages[domain.StatEvasion] = 6
	assert.Less(t, e.calc.Accuracy(user, target, shaky, domain.Field{}), 0.9)
}

func TestCaptureChance(t *testing.T) {
	e := newEngine()

	t.Run("低 HP 且有异常时成功率更高", func(t *testing.T) {
		healthy := newMonster("w", 10, uniformStats(100, 10))
		weak := newMonster("w", 10, uniformStats(100, 10))
		weak.CurrentHP = 1
		weak.Status = &domain.PrimaryStatus{Kind: domain.StatusSleep}

		full := e.calc.CaptureChance(healthy, 1, e.calc.StatusCaptureModifier(healthy), domain.Field{})
		low := e.calc.CaptureChance(weak, 1, e.calc.StatusCaptureModifier(weak), domain.Field{})
		assert.Less(t, full, low)
	})

	t.Run("成功率随 HP 降低单调不减", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			maxHP := rapid.IntRange(1, 500).Draw(rt, "max_hp")
			hi := rapid.IntRange(1, maxHP).Draw(rt, "hp_high")
			lo := rapid.IntRange(1, hi).Draw(rt, "hp_low")
			catchRate := rapid.IntRange(1, 255).Draw(rt, "catch_rate")

			m := newMonster("w", 10, uniformStats(maxHP, 10))
			m.CatchRate = catchRate
			m.CurrentHP = hi
			atHigh := e.calc.CaptureChance(m, 1, 1, domain.Field{})
			m.CurrentHP = lo
			atLow := e.calc.CaptureChance(m, 1, 1, domain.Field{})

			if atLow < atHigh {
				rt.Fatalf("capture chance decreased: hp %d -> %.6f, hp %d -> %.6f", hi, atHigh, lo, atLow)
			}
			if atLow < 0 || atLow > 1 {
				rt.Fatalf("capture chance out of range: %f", atLow)
			}
		})
	})

	t.Run("大师球必定成功", func(t *testing.T) {
		m := newMonster("w", 10, uniformStats(100, 10))
		m.CatchRate = 3
		ball := &domain.Item{ID: "master", Kind: domain.ItemCapture, Guaranteed: true}
		got := e.calc.ComputeCaptureShakes(m, ball, 1, domain.Field{}, rng.NewSequence(0.99))
		assert.True(t, got.Success)
		assert.Equal(t, 3, got.Shakes)
	})

	t.Run("判定全部通过才算成功", func(t *testing.T) {
		m := newMonster("w", 10, uniformStats(100, 10))
		m.CatchRate = 255
		m.CurrentHP = 1
		ball := &domain.Item{ID: "ball", Kind: domain.ItemCapture, CaptureModifier: 1}

		success := e.calc.ComputeCaptureShakes(m, ball, 1, domain.Field{}, rng.NewSequence(0))
		require.True(t, success.Success)
		assert.Equal(t, 3, success.Shakes)

		// 第二次判定失败
		m.CurrentHP = 100
		m.CatchRate = 45
		fail := e.calc.ComputeCaptureShakes(m, ball, 1, domain.Field{}, rng.NewSequence(0, 0.999))
		assert.False(t, fail.Success)
		assert.Equal(t, 1, fail.Shakes)
	})
}

func TestRandomFactor(t *testing.T) {
	e := newEngine()

	assert.Equal(t, 0.85, e.calc.RandomFactor(rng.NewSequence(0)))
	assert.Equal(t, 1.0, e.calc.RandomFactor(rng.NewSequence(0.999)), "上界 1.00 可以取到")
	assert.Equal(t, 0.93, e.calc.RandomFactor(rng.NewSequence(0.5)))

	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Float64Range(0, 0.9999).Draw(t, "v")
		f := e.calc.RandomFactor(rng.NewSequence(v))
		if f < 0.85 || f > 1.0 {
			t.Fatalf("random factor %v out of range", f)
		}
	})
}

func TestCriticalChance(t *testing.T) {
	e := newEngine()
	user := newMonster("u", 10, uniformStats(50, 10))
	move := attackMove("slash", domain.TypeNormal, domain.CategoryPhysical, 70)

	assert.InDelta(t, 1.0/16, e.calc.CriticalChance(user, move), 1e-9)

	move.CritStage = 1
	assert.InDelta(t, 1.0/8, e.calc.CriticalChance(user, move), 1e-9)

	user.Volatiles = map[domain.StatusKind]*domain.VolatileStatus{domain.StatusFocusEnergy: {}}
	assert.Equal(t, 1.0, e.calc.CriticalChance(user, move))
}
