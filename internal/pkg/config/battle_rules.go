package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tsu-battle/internal/pkg/validator"
	"tsu-battle/internal/pkg/xerrors"
)

// 战斗规则相关环境变量
const (
	EnvBattleRulesPath   = "BATTLE_RULES_PATH"
	EnvBattleTurnTimeout = "BATTLE_TURN_TIMEOUT"
	EnvBattleMaxTurns    = "BATTLE_MAX_TURNS"
)

// BattleRules 战斗数值规则，加载后只读，由调用方显式传入各组件
type BattleRules struct {
	Damage  DamageRules  `yaml:"damage"`
	Status  StatusRules  `yaml:"status"`
	Field   FieldRules   `yaml:"field"`
	Capture CaptureRules `yaml:"capture"`
	AI      AIRules      `yaml:"ai"`
	Reward  RewardRules  `yaml:"reward"`
	Turn    TurnRules    `yaml:"turn"`
}

// DamageRules 伤害公式参数
type DamageRules struct {
	STABMultiplier         float64   `yaml:"stab_multiplier" validate:"gte=1"`
	CriticalMultiplier     float64   `yaml:"critical_multiplier" validate:"gte=1"`
	CriticalChances        []float64 `yaml:"critical_chances" validate:"min=1,dive,probability"`
	RandomMin              float64   `yaml:"random_min" validate:"gt=0,lte=1"`
	RandomMax              float64   `yaml:"random_max" validate:"gtefield=RandomMin,lte=1"`
	BurnPhysicalMultiplier float64   `yaml:"burn_physical_multiplier" validate:"gt=0,lte=1"`
	StrugglePower          int       `yaml:"struggle_power" validate:"gt=0"`
	StruggleRecoilFraction float64   `yaml:"struggle_recoil_fraction" validate:"fraction"`

	// 没有显式异常效果的攻击招式，按招式属性附带的异常状态
	TypeSecondaryStatus map[string]SecondaryStatus `yaml:"type_secondary_status" validate:"dive"`
}

// SecondaryStatus 属性附带异常
type SecondaryStatus struct {
	Status string  `yaml:"status" validate:"required"`
	Chance float64 `yaml:"chance" validate:"probability"`
}

// StatusRules 状态持续时间与伤害比例
type StatusRules struct {
	SleepMinTurns            int     `yaml:"sleep_min_turns" validate:"gte=1"`
	SleepMaxTurns            int     `yaml:"sleep_max_turns" validate:"gtefield=SleepMinTurns"`
	FreezeMinTurns           int     `yaml:"freeze_min_turns" validate:"gte=1"`
	FreezeMaxTurns           int     `yaml:"freeze_max_turns" validate:"gtefield=FreezeMinTurns"`
	ConfusionMinTurns        int     `yaml:"confusion_min_turns" validate:"gte=1"`
	ConfusionMaxTurns        int     `yaml:"confusion_max_turns" validate:"gtefield=ConfusionMinTurns"`
	ParalysisSkipChance      float64 `yaml:"paralysis_skip_chance" validate:"probability"`
	ParalysisSpeedMultiplier float64 `yaml:"paralysis_speed_multiplier" validate:"fraction"`
	ConfusionSelfHitChance   float64 `yaml:"confusion_self_hit_chance" validate:"probability"`
	ConfusionSelfHitFraction float64 `yaml:"confusion_self_hit_fraction" validate:"fraction"`
	PoisonFraction           float64 `yaml:"poison_fraction" validate:"fraction"`
	ToxicStepFraction        float64 `yaml:"toxic_step_fraction" validate:"fraction"`
	BurnFraction             float64 `yaml:"burn_fraction" validate:"fraction"`
	LeechSeedFraction        float64 `yaml:"leech_seed_fraction" validate:"fraction"`
	CurseFraction            float64 `yaml:"curse_fraction" validate:"fraction"`
	IngrainHealFraction      float64 `yaml:"ingrain_heal_fraction" validate:"fraction"`
	TauntTurns               int     `yaml:"taunt_turns" validate:"gte=1"`
	EmbargoTurns             int     `yaml:"embargo_turns" validate:"gte=1"`
	TrappedTurns             int     `yaml:"trapped_turns" validate:"gte=1"`
	SubstituteCostFraction   float64 `yaml:"substitute_cost_fraction" validate:"fraction"`
}

// FieldRules 天气与场地参数
type FieldRules struct {
	DefaultDuration    int                `yaml:"default_duration" validate:"gte=1"`
	WeatherBoost       float64            `yaml:"weather_boost" validate:"gte=1"`
	WeatherPenalty     float64            `yaml:"weather_penalty" validate:"gt=0,lte=1"`
	SnowIceBoost       float64            `yaml:"snow_ice_boost" validate:"gte=1"`
	TerrainBoost       float64            `yaml:"terrain_boost" validate:"gte=1"`
	MistyDragonPenalty float64            `yaml:"misty_dragon_penalty" validate:"gt=0,lte=1"`
	ChipFraction       float64            `yaml:"chip_fraction" validate:"fraction"`
	GrassyHealFraction float64            `yaml:"grassy_heal_fraction" validate:"fraction"`
	AccuracyModifiers  map[string]float64 `yaml:"accuracy_modifiers" validate:"dive,gt=0,lte=1"`
}

// CaptureRules 捕获公式参数
type CaptureRules struct {
	StatusModifiers map[string]float64 `yaml:"status_modifiers" validate:"dive,gte=1"`
	FogModifier     float64            `yaml:"fog_modifier" validate:"gt=0,lte=1"`
	MinChance       float64            `yaml:"min_chance" validate:"probability"`
	MaxChance       float64            `yaml:"max_chance" validate:"probability,gtefield=MinChance"`
}

// AITier 单个难度档位
type AITier struct {
	RandomChance        float64 `yaml:"random_chance" validate:"probability"`
	HealThreshold       float64 `yaml:"heal_threshold" validate:"probability"`
	SwitchThreshold     float64 `yaml:"switch_threshold" validate:"probability"`
	TypeAdvantageWeight float64 `yaml:"type_advantage_weight" validate:"gte=0"`
}

// AIRules 行动评分参数
type AIRules struct {
	DefaultDifficulty string            `yaml:"default_difficulty"`
	Tiers             map[string]AITier `yaml:"tiers" validate:"min=1,dive"`
	KnockoutBonus     float64           `yaml:"knockout_bonus" validate:"gte=0"`
	StatusUtility     float64           `yaml:"status_utility" validate:"gte=0"`
	StatUtility       float64           `yaml:"stat_utility" validate:"gte=0"`
	HealUtility       float64           `yaml:"heal_utility" validate:"gte=0"`
}

// RewardRules 奖励池与分配权重
type RewardRules struct {
	ExperienceDivisor   int     `yaml:"experience_divisor" validate:"gte=1"`
	TrainerBonus        float64 `yaml:"trainer_bonus" validate:"gte=1"`
	CoinsPerLevel       int     `yaml:"coins_per_level" validate:"gte=0"`
	WinnerCoinBonus     float64 `yaml:"winner_coin_bonus" validate:"gte=1"`
	DamageWeight        float64 `yaml:"damage_weight" validate:"probability"`
	ParticipationWeight float64 `yaml:"participation_weight" validate:"probability"`
}

// TurnRules 回合控制
type TurnRules struct {
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxTurns int           `yaml:"max_turns" validate:"gte=1"`

	// 超时扫描时同时结算的战斗数上限
	ExpireConcurrency int `yaml:"expire_concurrency" validate:"gte=1"`
}

// Tier 返回难度档位，未知档位回落到默认档位
func (r AIRules) Tier(name string) AITier {
	if tier, ok := r.Tiers[name]; ok {
		return tier
	}
	return r.Tiers[r.DefaultDifficulty]
}

// DefaultBattleRules 内置默认规则
func DefaultBattleRules() BattleRules {
	return BattleRules{
		Damage: DamageRules{
			STABMultiplier:         1.5,
			CriticalMultiplier:     1.5,
			CriticalChances:        []float64{1.0 / 16, 1.0 / 8, 1.0 / 2, 1},
			RandomMin:              0.85,
			RandomMax:              1.0,
			BurnPhysicalMultiplier: 0.5,
			StrugglePower:          50,
			StruggleRecoilFraction: 0.25,
			TypeSecondaryStatus: map[string]SecondaryStatus{
				"fire":     {Status: "burn", Chance: 0.1},
				"poison":   {Status: "poison", Chance: 0.1},
				"ice":      {Status: "freeze", Chance: 0.1},
				"electric": {Status: "paralysis", Chance: 0.1},
				"psychic":  {Status: "confusion", Chance: 0.1},
				"ghost":    {Status: "confusion", Chance: 0.1},
			},
		},
		Status: StatusRules{
			SleepMinTurns:            1,
			SleepMaxTurns:            3,
			FreezeMinTurns:           1,
			FreezeMaxTurns:           5,
			ConfusionMinTurns:        2,
			ConfusionMaxTurns:        5,
			ParalysisSkipChance:      0.25,
			ParalysisSpeedMultiplier: 0.5,
			ConfusionSelfHitChance:   0.33,
			ConfusionSelfHitFraction: 1.0 / 16,
			PoisonFraction:           1.0 / 8,
			ToxicStepFraction:        1.0 / 16,
			BurnFraction:             1.0 / 16,
			LeechSeedFraction:        1.0 / 8,
			CurseFraction:            1.0 / 4,
			IngrainHealFraction:      1.0 / 16,
			TauntTurns:               3,
			EmbargoTurns:             5,
			TrappedTurns:             5,
			SubstituteCostFraction:   0.25,
		},
		Field: FieldRules{
			DefaultDuration:    5,
			WeatherBoost:       1.5,
			WeatherPenalty:     0.5,
			SnowIceBoost:       1.2,
			TerrainBoost:       1.3,
			MistyDragonPenalty: 0.5,
			ChipFraction:       1.0 / 16,
			GrassyHealFraction: 1.0 / 16,
			AccuracyModifiers: map[string]float64{
				"sandstorm": 0.8,
				"hail":      0.9,
				"fog":       0.6,
			},
		},
		Capture: CaptureRules{
			StatusModifiers: map[string]float64{
				"sleep":     2.0,
				"freeze":    2.0,
				"paralysis": 1.5,
				"burn":      1.5,
				"poison":    1.5,
				"toxic":     1.5,
			},
			FogModifier: 0.8,
			MinChance:   0,
			MaxChance:   1,
		},
		AI: AIRules{
			DefaultDifficulty: "medium",
			Tiers: map[string]AITier{
				"easy":   {RandomChance: 0.4, HealThreshold: 0.2, SwitchThreshold: 0.1, TypeAdvantageWeight: 0.3},
				"medium": {RandomChance: 0.2, HealThreshold: 0.3, SwitchThreshold: 0.2, TypeAdvantageWeight: 0.6},
				"hard":   {RandomChance: 0.1, HealThreshold: 0.4, SwitchThreshold: 0.3, TypeAdvantageWeight: 0.9},
				"expert": {RandomChance: 0, HealThreshold: 0.4, SwitchThreshold: 0.3, TypeAdvantageWeight: 1.0},
			},
			KnockoutBonus: 0.5,
			StatusUtility: 0.4,
			StatUtility:   0.3,
			HealUtility:   0.6,
		},
		Reward: RewardRules{
			ExperienceDivisor:   7,
			TrainerBonus:        1.5,
			CoinsPerLevel:       10,
			WinnerCoinBonus:     1.2,
			DamageWeight:        0.5,
			ParticipationWeight: 0.5,
		},
		Turn: TurnRules{
			Timeout:           60 * time.Second,
			MaxTurns:          200,
			ExpireConcurrency: 8,
		},
	}
}

// LoadBattleRules 从 YAML 加载规则，未出现的字段保留默认值
// path 为空时使用 BATTLE_RULES_PATH，仍为空则只使用默认值
func LoadBattleRules(path string) (BattleRules, error) {
	rules := DefaultBattleRules()

	if path == "" {
		path = os.Getenv(EnvBattleRulesPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return BattleRules{}, xerrors.NewWithError(xerrors.CodeInvalidParams, "读取战斗规则文件失败", err).
				WithMetadata("path", path)
		}
		if err := yaml.Unmarshal(data, &rules); err != nil {
			return BattleRules{}, xerrors.NewWithError(xerrors.CodeInvalidParams, "解析战斗规则文件失败", err).
				WithMetadata("path", path)
		}
	}

	rules.Turn.Timeout = GetEnvDuration(EnvBattleTurnTimeout, rules.Turn.Timeout)
	rules.Turn.MaxTurns = GetEnvInt(EnvBattleMaxTurns, rules.Turn.MaxTurns)

	if err := rules.Validate(); err != nil {
		return BattleRules{}, err
	}
	return rules, nil
}

// Validate 校验规则取值
func (r BattleRules) Validate() error {
	if err := validator.Struct(r); err != nil {
		return xerrors.NewWithError(xerrors.CodeInvalidParams,
			"战斗规则无效: "+validator.TranslateValidationError(err), err)
	}
	if _, ok := r.AI.Tiers[r.AI.DefaultDifficulty]; !ok {
		return xerrors.NewInvalidArgumentError("ai.default_difficulty",
			fmt.Sprintf("默认难度 %q 未在 tiers 中定义", r.AI.DefaultDifficulty))
	}
	if w := r.Reward.DamageWeight + r.Reward.ParticipationWeight; w <= 0 {
		return xerrors.NewInvalidArgumentError("reward", "damage_weight 与 participation_weight 之和必须大于 0")
	}
	return nil
}
