package service

import (
	"math"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/rng"
)

// DamageResult 单次招式伤害
type DamageResult struct {
	Damage        int
	Base          int
	Effectiveness float64
	STAB          bool
	Critical      bool
	// 属性无效，不触发任何追加效果
	Immune bool
}

// HealSpec 回复量：固定值与最大 HP 比例之和
type HealSpec struct {
	Fixed   int
	Percent float64
}

// CaptureResult 捕获判定
type CaptureResult struct {
	Success   bool
	Shakes    int
	CatchRate float64
}

// captureChecks 摇晃判定 3 次加最终判定 1 次
const captureChecks = 4

// DamageCalculator 伤害、回复、命中与捕获计算，纯函数，不修改任何状态
type DamageCalculator struct {
	chart   *domain.TypeChart
	damage  config.DamageRules
	field   config.FieldRules
	capture config.CaptureRules
}

// NewDamageCalculator 创建伤害计算器，chart 为空时使用标准克制表
func NewDamageCalculator(chart *domain.TypeChart, rules config.BattleRules) *DamageCalculator {
	if chart == nil {
		chart = domain.DefaultTypeChart()
	}
	return &DamageCalculator{
		chart:   chart,
		damage:  rules.Damage,
		field:   rules.Field,
		capture: rules.Capture,
	}
}

// TypeChart 当前使用的克制表
func (c *DamageCalculator) TypeChart() *domain.TypeChart {
	return c.chart
}

// ComputeDamage 计算伤害
// 顺序：基础伤害 → 本系加成 → 克制 → 会心 → 天气/场地 → 灼伤 → 随机数 → 取整
func (c *DamageCalculator) ComputeDamage(attacker, defender *domain.BattleMonster, move *domain.Move, field domain.Field, isCritical bool, randomFactor float64) DamageResult {
	if !move.IsDamaging() {
		return DamageResult{Effectiveness: 1}
	}

	atkStat, defStat := domain.StatAttack, domain.StatDefense
	if move.Category == domain.CategorySpecial {
		atkStat, defStat = domain.StatSpAttack, domain.StatSpDefense
	}

	atkStage := attacker.Stage(atkStat)
	defStage := defender.Stage(defStat)
	if isCritical {
		// 会心一击无视攻击方的降低与防守方的提升
		atkStage = max(atkStage, 0)
		defStage = min(defStage, 0)
	}
	attack := float64(attacker.Stats.Get(atkStat)) * domain.StageMultiplier(atkStage)
	defense := math.Max(1, float64(defender.Stats.Get(defStat))*domain.StageMultiplier(defStage))

	levelFactor := 2*float64(attacker.Level)/5 + 2
	base := math.Floor(levelFactor*float64(move.Power)*attack/defense/50 + 2)

	result := DamageResult{Base: int(base), Critical: isCritical}
	damage := base

	if move.Type != domain.TypeNone && attacker.HasType(move.Type) {
		result.STAB = true
		damage *= c.damage.STABMultiplier
	}

	result.Effectiveness = c.chart.Effectiveness(move.Type, defender.Types)
	if result.Effectiveness == 0 {
		result.Immune = true
		return result
	}
	damage *= result.Effectiveness

	if isCritical {
		damage *= c.damage.CriticalMultiplier
	}

	damage *= c.WeatherModifier(move.Type, field.Weather)
	damage *= c.TerrainModifier(move.Type, field.Terrain)

	if move.Category == domain.CategoryPhysical && attacker.PrimaryKind() == domain.StatusBurn {
		damage *= c.damage.BurnPhysicalMultiplier
	}

	damage *= c.clampRandom(randomFactor)

	result.Damage = max(1, int(math.Floor(damage)))
	return result
}

// WeatherModifier 天气对招式属性的修正
func (c *DamageCalculator) WeatherModifier(moveType domain.Type, weather domain.Weather) float64 {
	switch weather {
	case domain.WeatherRain:
		switch moveType {
		case domain.TypeWater:
			return c.field.WeatherBoost
		case domain.TypeFire:
			return c.field.WeatherPenalty
		}
	case domain.WeatherSun:
		switch moveType {
		case domain.TypeFire:
			return c.field.WeatherBoost
		case domain.TypeWater:
			return c.field.WeatherPenalty
		}
	case domain.WeatherSnow:
		if moveType == domain.TypeIce {
			return c.field.SnowIceBoost
		}
	}
	return 1
}

var terrainBoostedType = map[domain.Terrain]domain.Type{
	domain.TerrainElectric: domain.TypeElectric,
	domain.TerrainGrassy:   domain.TypeGrass,
	domain.TerrainMisty:    domain.TypeFairy,
	domain.TerrainPsychic:  domain.TypePsychic,
}

// TerrainModifier 场地对招式属性的修正
func (c *DamageCalculator) TerrainModifier(moveType domain.Type, terrain domain.Terrain) float64 {
	if terrain == domain.TerrainNone {
		return 1
	}
	if terrain == domain.TerrainMisty && moveType == domain.TypeDragon {
		return c.field.MistyDragonPenalty
	}
	if boosted, ok := terrainBoostedType[terrain]; ok && boosted == moveType {
		return c.field.TerrainBoost
	}
	return 1
}

// RandomFactor 按规则区间抽取随机修正，以 0.01 为步长，两端均可取到
func (c *DamageCalculator) RandomFactor(r rng.Source) float64 {
	lo := int(math.Round(c.damage.RandomMin * 100))
	hi := int(math.Round(c.damage.RandomMax * 100))
	return float64(rng.Between(r, lo, hi)) / 100
}

// MeanRandomFactor 随机修正的期望值，AI 估算伤害使用
func (c *DamageCalculator) MeanRandomFactor() float64 {
	return (c.damage.RandomMin + c.damage.RandomMax) / 2
}

func (c *DamageCalculator) clampRandom(f float64) float64 {
	return math.Min(c.damage.RandomMax, math.Max(c.damage.RandomMin, f))
}

// ComputeHealing 回复量，保证回复后不超过最大 HP；倒下或满血时为 0
func (c *DamageCalculator) ComputeHealing(m *domain.BattleMonster, spec HealSpec) int {
	if m.Fainted || m.CurrentHP >= m.MaxHP {
		return 0
	}
	amount := spec.Fixed + int(math.Floor(float64(m.MaxHP)*spec.Percent))
	if amount <= 0 && (spec.Fixed > 0 || spec.Percent > 0) {
		amount = 1
	}
	return max(0, min(amount, m.MissingHP()))
}

// Accuracy 命中率，招式无命中值时必中
func (c *DamageCalculator) Accuracy(user, target *domain.BattleMonster, move *domain.Move, field domain.Field) float64 {
	if move.AlwaysHits || move.Accuracy <= 0 {
		return 1
	}
	stage := domain.ClampStage(user.Stage(domain.StatAccuracy) - target.Stage(domain.StatEvasion))
	acc := float64(move.Accuracy) / 100 * domain.AccuracyStageMultiplier(stage)
	if mod, ok := c.field.AccuracyModifiers[string(field.Weather)]; ok && field.Weather != domain.WeatherNone {
		acc *= mod
	}
	return math.Min(1, math.Max(0, acc))
}

// CriticalChance 会心概率，聚气提升 2 级
func (c *DamageCalculator) CriticalChance(user *domain.BattleMonster, move *domain.Move) float64 {
	if len(c.damage.CriticalChances) == 0 {
		return 0
	}
	stage := max(move.CritStage, 0)
	if user.HasStatus(domain.StatusFocusEnergy) {
		stage += 2
	}
	stage = min(stage, len(c.damage.CriticalChances)-1)
	return c.damage.CriticalChances[stage]
}

// StatusCaptureModifier 异常状态对捕获率的加成
func (c *DamageCalculator) StatusCaptureModifier(m *domain.BattleMonster) float64 {
	if mod, ok := c.capture.StatusModifiers[string(m.PrimaryKind())]; ok {
		return mod
	}
	return 1
}

// CaptureChance 单次捕获成功率，HP 越低、修正越高，成功率越高
func (c *DamageCalculator) CaptureChance(target *domain.BattleMonster, ballModifier, statusModifier float64, field domain.Field) float64 {
	if target.MaxHP <= 0 {
		return 0
	}
	if ballModifier <= 0 {
		ballModifier = 1
	}
	fieldModifier := 1.0
	if field.Weather == domain.WeatherFog {
		fieldModifier = c.capture.FogModifier
	}
	maxHP := float64(target.MaxHP)
	a := (3*maxHP - 2*float64(target.CurrentHP)) * float64(target.CatchRate) * ballModifier * statusModifier * fieldModifier / (3 * maxHP)
	rate := math.Min(1, a/255)
	return math.Min(c.capture.MaxChance, math.Max(c.capture.MinChance, rate))
}

// ComputeCaptureShakes 捕获判定：四次独立判定，每次通过概率为成功率的四次方根
// 摇晃次数为前三次判定中通过的次数，全部通过才算捕获成功
func (c *DamageCalculator) ComputeCaptureShakes(target *domain.BattleMonster, ball *domain.Item, statusModifier float64, field domain.Field, r rng.Source) CaptureResult {
	if ball != nil && ball.Guaranteed {
		return CaptureResult{Success: true, Shakes: captureChecks - 1, CatchRate: 1}
	}
	ballModifier := 1.0
	if ball != nil {
		ballModifier = ball.CaptureModifier
	}

	rate := c.CaptureChance(target, ballModifier, statusModifier, field)
	result := CaptureResult{CatchRate: rate}
	if rate <= 0 {
		return result
	}

	p := math.Pow(rate, 1.0/captureChecks)
	passed := 0
	for range captureChecks {
		if !rng.Chance(r, p) {
			break
		}
		passed++
	}
	result.Shakes = min(passed, captureChecks-1)
	result.Success = passed == captureChecks
	return result
}
