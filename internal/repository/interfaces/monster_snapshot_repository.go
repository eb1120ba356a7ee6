package interfaces

import (
	"context"
)

// StatsRecord 能力值记录
type StatsRecord struct {
	HP        int `json:"hp" yaml:"hp" validate:"gte=1"`
	Attack    int `json:"attack" yaml:"attack" validate:"gte=1"`
	Defense   int `json:"defense" yaml:"defense" validate:"gte=1"`
	SpAttack  int `json:"sp_attack" yaml:"sp_attack" validate:"gte=1"`
	SpDefense int `json:"sp_defense" yaml:"sp_defense" validate:"gte=1"`
	Speed     int `json:"speed" yaml:"speed" validate:"gte=1"`
}

// MonsterRecord 怪兽记录（训练师持有或野生）
type MonsterRecord struct {
	ID      string      `json:"id" yaml:"id" validate:"required"`
	Name    string      `json:"name" yaml:"name" validate:"required"`
	Species string      `json:"species" yaml:"species"`
	Level   int         `json:"level" yaml:"level" validate:"gte=1,lte=100"`
	Types   []string    `json:"types" yaml:"types" validate:"min=1,max=5,dive,required"`
	Stats   StatsRecord `json:"stats" yaml:"stats"`
	// 续战时的当前 HP，为空表示满血
	CurrentHP *int `json:"current_hp,omitempty" yaml:"current_hp,omitempty" validate:"omitempty,gte=0"`
	// 续战时的主要异常
	Status         string   `json:"status,omitempty" yaml:"status,omitempty"`
	Moves          []string `json:"moves" yaml:"moves" validate:"min=1,max=4,dive,required"`
	CatchRate      int      `json:"catch_rate" yaml:"catch_rate" validate:"gte=0,lte=255"`
	BaseExperience int      `json:"base_experience" yaml:"base_experience" validate:"gte=0"`
}

// MoveEffectRecord 招式效果记录
type MoveEffectRecord struct {
	Kind          string  `json:"kind" yaml:"kind" validate:"required"`
	Status        string  `json:"status,omitempty" yaml:"status,omitempty"`
	Stat          string  `json:"stat,omitempty" yaml:"stat,omitempty"`
	Stages        int     `json:"stages,omitempty" yaml:"stages,omitempty" validate:"stat_stage"`
	Chance        float64 `json:"chance,omitempty" yaml:"chance,omitempty" validate:"probability"`
	Self          bool    `json:"self,omitempty" yaml:"self,omitempty"`
	Fraction      float64 `json:"fraction,omitempty" yaml:"fraction,omitempty" validate:"gte=0,lte=1"`
	WeatherScaled bool    `json:"weather_scaled,omitempty" yaml:"weather_scaled,omitempty"`
	Weather       string  `json:"weather,omitempty" yaml:"weather,omitempty"`
	Terrain       string  `json:"terrain,omitempty" yaml:"terrain,omitempty"`
	Turns         int     `json:"turns,omitempty" yaml:"turns,omitempty" validate:"gte=0"`
}

// MoveRecord 招式定义记录
type MoveRecord struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Type     string `json:"type" yaml:"type" validate:"required"`
	Category string `json:"category" yaml:"category" validate:"oneof=physical special status"`
	// 为空表示无威力
	Power *int `json:"power,omitempty" yaml:"power,omitempty" validate:"omitempty,gte=1"`
	// 为空表示必中
	Accuracy  *int               `json:"accuracy,omitempty" yaml:"accuracy,omitempty" validate:"omitempty,gte=1,lte=100"`
	PP        int                `json:"pp" yaml:"pp" validate:"gte=1"`
	Priority  int                `json:"priority" yaml:"priority" validate:"gte=-7,lte=5"`
	Target    string             `json:"target" yaml:"target" validate:"oneof=opponent self field"`
	CritStage int                `json:"crit_stage,omitempty" yaml:"crit_stage,omitempty" validate:"gte=0,lte=3"`
	Effects   []MoveEffectRecord `json:"effects,omitempty" yaml:"effects,omitempty" validate:"dive"`
}

// ItemRecord 道具定义记录
type ItemRecord struct {
	ID              string  `json:"id" yaml:"id" validate:"required"`
	Name            string  `json:"name" yaml:"name" validate:"required"`
	Kind            string  `json:"kind" yaml:"kind" validate:"oneof=heal revive cure capture stat_boost"`
	HealAmount      int     `json:"heal_amount,omitempty" yaml:"heal_amount,omitempty" validate:"gte=0"`
	HealPercent     float64 `json:"heal_percent,omitempty" yaml:"heal_percent,omitempty" validate:"gte=0,lte=1"`
	CureStatus      string  `json:"cure_status,omitempty" yaml:"cure_status,omitempty"`
	CaptureModifier float64 `json:"capture_modifier,omitempty" yaml:"capture_modifier,omitempty" validate:"gte=0"`
	Guaranteed      bool    `json:"guaranteed,omitempty" yaml:"guaranteed,omitempty"`
	Stat            string  `json:"stat,omitempty" yaml:"stat,omitempty"`
	Stages          int     `json:"stages,omitempty" yaml:"stages,omitempty" validate:"stat_stage"`
}

// MonsterSnapshotSource 战斗开始时读取怪兽/招式/道具定义的只读数据源
type MonsterSnapshotSource interface {
	// GetMonster 根据ID获取怪兽记录
	GetMonster(ctx context.Context, monsterID string) (*MonsterRecord, error)

	// GetMove 根据ID获取招式定义
	GetMove(ctx context.Context, moveID string) (*MoveRecord, error)

	// GetItem 根据ID获取道具定义
	GetItem(ctx context.Context, itemID string) (*ItemRecord, error)
}
