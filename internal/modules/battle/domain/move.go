package domain

// MoveCategory 招式分类
type MoveCategory string

const (
	CategoryPhysical MoveCategory = "physical"
	CategorySpecial  MoveCategory = "special"
	CategoryStatus   MoveCategory = "status"
)

// MoveTarget 招式目标形态
type MoveTarget string

const (
	TargetOpponent MoveTarget = "opponent"
	TargetSelf     MoveTarget = "self"
	TargetField    MoveTarget = "field"
)

// EffectKind 招式效果种类
type EffectKind string

const (
	EffectStatus       EffectKind = "status"        // 施加状态
	EffectStatChange   EffectKind = "stat_change"   // 能力等级变化
	EffectHeal         EffectKind = "heal"          // 按最大 HP 比例回复
	EffectCure         EffectKind = "cure"          // 治愈自身主要异常
	EffectWeather      EffectKind = "weather"       // 改变天气
	EffectTerrain      EffectKind = "terrain"       // 改变场地
	EffectProtect      EffectKind = "protect"       // 守住
	EffectSubstitute   EffectKind = "substitute"    // 替身
	EffectForceSwitch  EffectKind = "force_switch"  // 强制对手换下
	EffectResetStages  EffectKind = "reset_stages"  // 重置全场能力等级
	EffectFlinch       EffectKind = "flinch"        // 畏缩（仅攻击招式）
	EffectDrain        EffectKind = "drain"         // 按造成伤害比例吸取
	EffectRecoil       EffectKind = "recoil"        // 按造成伤害比例反伤
	EffectFocusEnergy  EffectKind = "focus_energy"  // 聚气，提升会心等级
)

// MoveEffect 招式效果描述
type MoveEffect struct {
	Kind   EffectKind `json:"kind"`
	Status StatusKind `json:"status,omitempty"`
	Stat   Stat       `json:"stat,omitempty"`
	Stages int        `json:"stages,omitempty"`
	// 触发概率，0 视为必定触发
	Chance float64 `json:"chance,omitempty"`
	// 作用于使用者而非目标
	Self bool `json:"self,omitempty"`
	// 回复/吸取/反伤比例
	Fraction      float64 `json:"fraction,omitempty"`
	WeatherScaled bool    `json:"weather_scaled,omitempty"`
	Weather       Weather `json:"weather,omitempty"`
	Terrain       Terrain `json:"terrain,omitempty"`
	// 天气/场地持续回合，0 使用规则默认值
	Turns int `json:"turns,omitempty"`
}

// EffectiveChance 触发概率
func (e MoveEffect) EffectiveChance() float64 {
	if e.Chance <= 0 {
		return 1
	}
	return e.Chance
}

// Move 招式定义，只读
type Move struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     Type         `json:"type"`
	Category MoveCategory `json:"category"`
	// 0 表示无威力
	Power int `json:"power,omitempty"`
	// 1..100；AlwaysHits 时忽略
	Accuracy   int          `json:"accuracy,omitempty"`
	AlwaysHits bool         `json:"always_hits,omitempty"`
	PP         int          `json:"pp"`
	Priority   int          `json:"priority,omitempty"`
	Target     MoveTarget   `json:"target"`
	CritStage  int          `json:"crit_stage,omitempty"`
	Effects    []MoveEffect `json:"effects,omitempty"`
}

// IsStatus 是否为变化类招式
func (m *Move) IsStatus() bool {
	return m.Category == CategoryStatus
}

// IsDamaging 是否造成直接伤害
func (m *Move) IsDamaging() bool {
	return m.Category != CategoryStatus && m.Power > 0
}

// HasEffect 是否含有指定效果
func (m *Move) HasEffect(kind EffectKind) bool {
	for _, e := range m.Effects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// StruggleMoveID 挣扎
const StruggleMoveID = "struggle"

// NewStruggle 无属性物理招式，必中，使用者承受反伤
func NewStruggle(power int, recoil float64) *Move {
	return &Move{
		ID:         StruggleMoveID,
		Name:       "Struggle",
		Type:       TypeNone,
		Category:   CategoryPhysical,
		Power:      power,
		AlwaysHits: true,
		Target:     TargetOpponent,
		Effects:    []MoveEffect{{Kind: EffectRecoil, Fraction: recoil, Self: true}},
	}
}
