package domain

import (
	"fmt"
	"strings"
)

// Stat 可被能力等级修正的能力项
type Stat string

const (
	StatAttack    Stat = "attack"
	StatDefense   Stat = "defense"
	StatSpAttack  Stat = "sp_attack"
	StatSpDefense Stat = "sp_defense"
	StatSpeed     Stat = "speed"
	StatAccuracy  Stat = "accuracy"
	StatEvasion   Stat = "evasion"
)

// 能力等级范围
const (
	MinStage = -6
	MaxStage = 6
)

// AllStats 全部可修正能力项，顺序固定
var AllStats = []Stat{StatAttack, StatDefense, StatSpAttack, StatSpDefense, StatSpeed, StatAccuracy, StatEvasion}

// ParseStat 解析能力项
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStats {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stat %q", s)
}

// Stats 能力值，HP 为最大 HP
type Stats struct {
	HP        int `json:"hp"`
	Attack    int `json:"attack"`
	Defense   int `json:"defense"`
	SpAttack  int `json:"sp_attack"`
	SpDefense int `json:"sp_defense"`
	Speed     int `json:"speed"`
}

// Get 返回能力值，命中率/闪避率没有基础值
func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatAttack:
		return s.Attack
	case StatDefense:
		return s.Defense
	case StatSpAttack:
		return s.SpAttack
	case StatSpDefense:
		return s.SpDefense
	case StatSpeed:
		return s.Speed
	default:
		return 0
	}
}

// ClampStage 限制在 [-6, 6]
func ClampStage(n int) int {
	if n < MinStage {
		return MinStage
	}
	if n > MaxStage {
		return MaxStage
	}
	return n
}

// StageMultiplier 能力等级倍率：n>=0 为 (2+n)/2，n<0 为 2/(2-n)
func StageMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// AccuracyStageMultiplier 命中/闪避等级倍率：n>=0 为 (3+n)/3，n<0 为 3/(3-n)
func AccuracyStageMultiplier(stage int) float64 {
	stage = ClampStage(stage)
	if stage >= 0 {
		return float64(3+stage) / 3
	}
	return 3 / float64(3-stage)
}

// StatStages 各能力项当前等级，零值可直接使用
type StatStages map[Stat]int

// Get 未设置时为 0
func (s StatStages) Get(stat Stat) int {
	return s[stat]
}

// Clone 深拷贝
func (s StatStages) Clone() StatStages {
	out := make(StatStages, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
