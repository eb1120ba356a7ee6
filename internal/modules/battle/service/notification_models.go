package service

import (
	"time"

	"tsu-battle/internal/modules/battle/domain"
)

// TurnEvent 回合结果通知事件
type TurnEvent struct {
	BattleID    string               `json:"battle_id"`
	Turn        int                  `json:"turn"`
	Results     []*domain.TurnResult `json:"results"`
	PublishedAt time.Time            `json:"published_at"`
}

// EndEvent 战斗结算通知事件
type EndEvent struct {
	*domain.BattleEndResult
	PublishedAt time.Time `json:"published_at"`
}
