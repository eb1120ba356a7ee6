package domain

import (
	"fmt"
	"time"
)

// StatusChange 状态施加或解除
type StatusChange struct {
	MonsterID string     `json:"monster_id"`
	Status    StatusKind `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

// StageChange 能力等级变化，Applied 为截断后的实际变化量
type StageChange struct {
	MonsterID string `json:"monster_id"`
	Stat      Stat   `json:"stat"`
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
}

// FieldKind 战场变化种类
type FieldKind string

const (
	FieldKindWeather FieldKind = "weather"
	FieldKindTerrain FieldKind = "terrain"
)

// FieldChange 天气/场地变化
type FieldChange struct {
	Kind  FieldKind `json:"kind"`
	Value string    `json:"value"`
	Turns int       `json:"turns,omitempty"`
	Ended bool      `json:"ended,omitempty"`
}

// CaptureOutcome 捕获结果
type CaptureOutcome struct {
	TargetID  string  `json:"target_id"`
	Success   bool    `json:"success"`
	Shakes    int     `json:"shakes"`
	CatchRate float64 `json:"catch_rate"`
}

// Phase 结果所属的回合阶段
type Phase string

const (
	PhaseStartOfTurn Phase = "start_of_turn"
	PhaseAction      Phase = "action"
	PhaseEndOfTurn   Phase = "end_of_turn"
	PhaseField       Phase = "field"
	PhaseReplacement Phase = "replacement"
)

// TurnResult 单个行动或阶段处理的结构化结果
type TurnResult struct {
	Turn          int        `json:"turn"`
	Phase         Phase      `json:"phase"`
	ActionKind    ActionKind `json:"action_kind,omitempty"`
	ParticipantID string     `json:"participant_id,omitempty"`
	ActorID       string     `json:"actor_id,omitempty"`
	TargetID      string     `json:"target_id,omitempty"`
	MoveID        string     `json:"move_id,omitempty"`
	ItemID        string     `json:"item_id,omitempty"`

	Damage        int     `json:"damage"`
	Healing       int     `json:"healing"`
	Recoil        int     `json:"recoil,omitempty"`
	Critical      bool    `json:"critical"`
	Effectiveness float64 `json:"effectiveness"`

	Missed   bool   `json:"missed,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
	Blocked  bool   `json:"blocked,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Switched bool   `json:"switched,omitempty"`
	Fled     bool   `json:"fled,omitempty"`
	SwitchIn string `json:"switch_in,omitempty"`

	StatusesApplied []StatusChange  `json:"statuses_applied,omitempty"`
	StatusesRemoved []StatusChange  `json:"statuses_removed,omitempty"`
	StageChanges    []StageChange   `json:"stage_changes,omitempty"`
	Fainted         []string        `json:"fainted,omitempty"`
	Capture         *CaptureOutcome `json:"capture,omitempty"`
	FieldChanges    []FieldChange   `json:"field_changes,omitempty"`
	Log             []string        `json:"log,omitempty"`
}

// NewTurnResult 效果倍率默认为 1
func NewTurnResult(turn int, phase Phase) *TurnResult {
	return &TurnResult{Turn: turn, Phase: phase, Effectiveness: 1}
}

// Logf 追加一行展示用日志
func (r *TurnResult) Logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// AddFainted 记录倒下的怪兽，重复调用只记一次
func (r *TurnResult) AddFainted(id string) {
	for _, existing := range r.Fainted {
		if existing == id {
			return
		}
	}
	r.Fainted = append(r.Fainted, id)
}

// AddApplied 记录施加的状态
func (r *TurnResult) AddApplied(monsterID string, kind StatusKind) {
	r.StatusesApplied = append(r.StatusesApplied, StatusChange{MonsterID: monsterID, Status: kind})
}

// AddRemoved 记录解除的状态
func (r *TurnResult) AddRemoved(monsterID string, kind StatusKind, reason string) {
	r.StatusesRemoved = append(r.StatusesRemoved, StatusChange{MonsterID: monsterID, Status: kind, Reason: reason})
}

// ParticipantReward 参战方奖励
type ParticipantReward struct {
	ParticipantID string   `json:"participant_id"`
	Team          Team     `json:"team"`
	Experience    int      `json:"experience"`
	Coins         int      `json:"coins"`
	Items         []string `json:"items,omitempty"`
	DamageDealt   int      `json:"damage_dealt"`
	Participation int      `json:"participation"`
	Captured      []string `json:"captured,omitempty"`
}

// BattleEndResult 战斗结算，由调用方负责持久化
type BattleEndResult struct {
	BattleID        string              `json:"battle_id"`
	State           State               `json:"state"`
	Winner          Team                `json:"winner,omitempty"`
	Reason          EndReason           `json:"reason"`
	Turns           int                 `json:"turns"`
	Rewards         []ParticipantReward `json:"rewards"`
	TotalExperience int                 `json:"total_experience"`
	TotalCoins      int                 `json:"total_coins"`
	TotalItems      []string            `json:"total_items,omitempty"`
	EndedAt         time.Time           `json:"ended_at"`
}
