package domain

import "math"

// MoveSlot 怪兽已学会的招式及剩余 PP
type MoveSlot struct {
	Move  *Move `json:"move"`
	PP    int   `json:"pp"`
	MaxPP int   `json:"max_pp"`
}

// BattleMonster 战斗中的怪兽快照，战斗开始时由记录构建，战斗结束后丢弃
type BattleMonster struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Species   string `json:"species"`
	Level     int    `json:"level"`
	Types     []Type `json:"types"`
	Stats     Stats  `json:"stats"`
	CurrentHP int    `json:"current_hp"`
	MaxHP     int    `json:"max_hp"`

	Status    *PrimaryStatus                 `json:"status,omitempty"`
	Volatiles map[StatusKind]*VolatileStatus `json:"volatiles,omitempty"`
	Stages    StatStages                     `json:"stages,omitempty"`

	Moves []*MoveSlot `json:"moves"`

	Fainted      bool `json:"fainted"`
	Captured     bool `json:"captured"`
	HasActed     bool `json:"has_acted"`
	Protected    bool `json:"protected"`
	ProtectCount int  `json:"protect_count,omitempty"`

	CatchRate      int `json:"catch_rate"`
	BaseExperience int `json:"base_experience"`
}

// HasType 是否具有指定属性
func (m *BattleMonster) HasType(t Type) bool {
	for _, own := range m.Types {
		if own == t {
			return true
		}
	}
	return false
}

// HasAnyType 是否具有任一属性
func (m *BattleMonster) HasAnyType(types ...Type) bool {
	for _, t := range types {
		if m.HasType(t) {
			return true
		}
	}
	return false
}

// PrimaryKind 当前主要异常，没有时为空
func (m *BattleMonster) PrimaryKind() StatusKind {
	if m.Status == nil {
		return ""
	}
	return m.Status.Kind
}

// Volatile 查询临时状态
func (m *BattleMonster) Volatile(kind StatusKind) (*VolatileStatus, bool) {
	v, ok := m.Volatiles[kind]
	return v, ok
}

// HasStatus 主要异常或临时状态任一命中
func (m *BattleMonster) HasStatus(kind StatusKind) bool {
	if kind.IsPrimary() {
		return m.PrimaryKind() == kind
	}
	_, ok := m.Volatiles[kind]
	return ok
}

// Stage 能力等级
func (m *BattleMonster) Stage(stat Stat) int {
	return m.Stages.Get(stat)
}

// EffectiveStat 计入能力等级后的能力值
func (m *BattleMonster) EffectiveStat(stat Stat) float64 {
	return float64(m.Stats.Get(stat)) * StageMultiplier(m.Stage(stat))
}

// HPFraction 当前 HP 比例
func (m *BattleMonster) HPFraction() float64 {
	if m.MaxHP <= 0 {
		return 0
	}
	return float64(m.CurrentHP) / float64(m.MaxHP)
}

// MissingHP 距满血差值
func (m *BattleMonster) MissingHP() int {
	return m.MaxHP - m.CurrentHP
}

// CanBattle 未倒下且未被捕获
func (m *BattleMonster) CanBattle() bool {
	return !m.Fainted && !m.Captured
}

// FindMove 按招式 ID 查找
func (m *BattleMonster) FindMove(moveID string) *MoveSlot {
	for _, slot := range m.Moves {
		if slot.Move != nil && slot.Move.ID == moveID {
			return slot
		}
	}
	return nil
}

// HasUsableMove 是否还有 PP 大于 0 的招式
func (m *BattleMonster) HasUsableMove() bool {
	for _, slot := range m.Moves {
		if slot.PP > 0 {
			return true
		}
	}
	return false
}

// FractionOfMax 最大 HP 的比例值，至少为 1
func (m *BattleMonster) FractionOfMax(fraction float64) int {
	return max(1, int(math.Floor(float64(m.MaxHP)*fraction)))
}

// TakeDamage 扣除 HP，返回实际扣除量；HP 归零时标记倒下
func (m *BattleMonster) TakeDamage(amount int) int {
	if amount <= 0 || m.Fainted {
		return 0
	}
	if amount > m.CurrentHP {
		amount = m.CurrentHP
	}
	m.CurrentHP -= amount
	if m.CurrentHP == 0 {
		m.Fainted = true
	}
	return amount
}

// Heal 回复 HP，返回实际回复量；倒下的怪兽不回复
func (m *BattleMonster) Heal(amount int) int {
	if amount <= 0 || m.Fainted {
		return 0
	}
	if missing := m.MissingHP(); amount > missing {
		amount = missing
	}
	m.CurrentHP += amount
	return amount
}

// Revive 复活倒下的怪兽
func (m *BattleMonster) Revive(hp int) int {
	if !m.Fainted {
		return 0
	}
	hp = min(max(hp, 1), m.MaxHP)
	m.Fainted = false
	m.CurrentHP = hp
	m.Status = nil
	return hp
}

// Clone 深拷贝；招式定义只读，共享指针
func (m *BattleMonster) Clone() *BattleMonster {
	if m == nil {
		return nil
	}
	out := *m
	out.Types = append([]Type(nil), m.Types...)
	if m.Status != nil {
		status := *m.Status
		out.Status = &status
	}
	if m.Volatiles != nil {
		out.Volatiles = make(map[StatusKind]*VolatileStatus, len(m.Volatiles))
		for k, v := range m.Volatiles {
			cp := *v
			out.Volatiles[k] = &cp
		}
	}
	out.Stages = m.Stages.Clone()
	out.Moves = make([]*MoveSlot, len(m.Moves))
	for i, slot := range m.Moves {
		cp := *slot
		out.Moves[i] = &cp
	}
	return &out
}
