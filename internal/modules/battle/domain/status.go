package domain

import (
	"fmt"
	"strings"
)

// StatusKind 状态种类
type StatusKind string

// 主要异常状态，互斥
const (
	StatusBurn      StatusKind = "burn"
	StatusPoison    StatusKind = "poison"
	StatusToxic     StatusKind = "toxic"
	StatusParalysis StatusKind = "paralysis"
	StatusSleep     StatusKind = "sleep"
	StatusFreeze    StatusKind = "freeze"
)

// 临时状态，互相独立
const (
	StatusConfusion   StatusKind = "confusion"
	StatusFlinch      StatusKind = "flinch"
	StatusTrapped     StatusKind = "trapped"
	StatusLeechSeed   StatusKind = "leech_seed"
	StatusTaunt       StatusKind = "taunt"
	StatusEmbargo     StatusKind = "embargo"
	StatusSubstitute  StatusKind = "substitute"
	StatusFocusEnergy StatusKind = "focus_energy"
	StatusIngrain     StatusKind = "ingrain"
	StatusCurse       StatusKind = "curse"
)

var primaryStatuses = map[StatusKind]bool{
	StatusBurn: true, StatusPoison: true, StatusToxic: true,
	StatusParalysis: true, StatusSleep: true, StatusFreeze: true,
}

var volatileStatuses = map[StatusKind]bool{
	StatusConfusion: true, StatusFlinch: true, StatusTrapped: true, StatusLeechSeed: true,
	StatusTaunt: true, StatusEmbargo: true, StatusSubstitute: true, StatusFocusEnergy: true,
	StatusIngrain: true, StatusCurse: true,
}

// ParseStatus 解析状态名
func ParseStatus(s string) (StatusKind, error) {
	k := StatusKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return k, nil
}

// IsPrimary 是否为主要异常状态
func (k StatusKind) IsPrimary() bool {
	return primaryStatuses[k]
}

// IsVolatile 是否为临时状态
func (k StatusKind) IsVolatile() bool {
	return volatileStatuses[k]
}

// Valid 是否为已知状态
func (k StatusKind) Valid() bool {
	return k.IsPrimary() || k.IsVolatile()
}

// PrimaryStatus 主要异常状态
type PrimaryStatus struct {
	Kind StatusKind `json:"kind"`
	// 睡眠/冰冻剩余回合，施加时确定
	TurnsLeft int `json:"turns_left,omitempty"`
	// 剧毒累计回合
	Counter int `json:"counter,omitempty"`
}

// VolatileStatus 临时状态
type VolatileStatus struct {
	// 剩余回合，0 表示持续到离场
	TurnsLeft int `json:"turns_left,omitempty"`
	// 施加者（寄生种子回复对象）
	SourceID string `json:"source_id,omitempty"`
	// 替身剩余 HP
	HP int `json:"hp,omitempty"`
}
