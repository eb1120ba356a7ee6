package domain

import "time"

// State 战斗生命周期
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// IsTerminal 是否已结束
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// EndReason 结束原因
type EndReason string

const (
	EndReasonNone      EndReason = ""
	EndReasonKnockout  EndReason = "knockout"
	EndReasonCaptured  EndReason = "captured"
	EndReasonDraw      EndReason = "draw"
	EndReasonFled      EndReason = "fled"
	EndReasonForced    EndReason = "forced"
	EndReasonTurnLimit EndReason = "turn_limit"
	EndReasonTimeout   EndReason = "timeout"
)

// ParticipantStats 参战方统计，用于奖励分配
type ParticipantStats struct {
	DamageDealt   int      `json:"damage_dealt"`
	Participation int      `json:"participation"`
	KOs           int      `json:"kos"`
	Captured      []string `json:"captured,omitempty"`
}

// Battle 一场战斗
type Battle struct {
	ID           string                       `json:"id"`
	State        State                        `json:"state"`
	Turn         int                          `json:"turn"`
	Field        Field                        `json:"field"`
	Participants []*Participant               `json:"participants"`
	Winner       Team                         `json:"winner,omitempty"`
	EndReason    EndReason                    `json:"end_reason,omitempty"`
	Stats        map[string]*ParticipantStats `json:"stats"`
	Seed         uint64                       `json:"seed"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
	TurnDeadline time.Time                    `json:"turn_deadline"`
	EndedAt      time.Time                    `json:"ended_at,omitzero"`
}

// Participant 按 ID 查找参战方
func (b *Battle) Participant(id string) *Participant {
	for _, p := range b.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// TeamMembers 阵营内的参战方
func (b *Battle) TeamMembers(team Team) []*Participant {
	var out []*Participant
	for _, p := range b.Participants {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

// FindMonster 在全部参战方中查找怪兽
func (b *Battle) FindMonster(id string) (*Participant, *BattleMonster) {
	for _, p := range b.Participants {
		if _, m := p.FindMonster(id); m != nil {
			return p, m
		}
	}
	return nil, nil
}

// OpposingActive 对立阵营仍可战斗的出场怪兽
func (b *Battle) OpposingActive(p *Participant) []*BattleMonster {
	var out []*BattleMonster
	for _, other := range b.TeamMembers(p.Team.Other()) {
		if other.Fled {
			continue
		}
		if m := other.ActiveMonster(); m != nil && m.CanBattle() {
			out = append(out, m)
		}
	}
	return out
}

// ActiveMonsters 所有仍在场上的出场怪兽，按参战方顺序
func (b *Battle) ActiveMonsters() []*BattleMonster {
	var out []*BattleMonster
	for _, p := range b.Participants {
		if p.Fled {
			continue
		}
		if m := p.ActiveMonster(); m != nil && m.CanBattle() {
			out = append(out, m)
		}
	}
	return out
}

// StatsFor 参战方统计，不存在时创建
func (b *Battle) StatsFor(participantID string) *ParticipantStats {
	if b.Stats == nil {
		b.Stats = make(map[string]*ParticipantStats)
	}
	s, ok := b.Stats[participantID]
	if !ok {
		s = &ParticipantStats{}
		b.Stats[participantID] = s
	}
	return s
}

// teamDefeated 阵营全部参战方战败；空阵营视为未战败
func (b *Battle) teamDefeated(team Team) bool {
	members := b.TeamMembers(team)
	if len(members) == 0 {
		return false
	}
	for _, p := range members {
		if !p.IsDefeated() {
			return false
		}
	}
	return true
}

func (b *Battle) teamFled(team Team) bool {
	for _, p := range b.TeamMembers(team) {
		if p.Fled {
			return true
		}
	}
	return false
}

func (b *Battle) teamCaptured(team Team) bool {
	captured := false
	for _, p := range b.TeamMembers(team) {
		for _, m := range p.Roster {
			if m.Captured {
				captured = true
			} else if !m.Fainted {
				return false
			}
		}
	}
	return captured
}

// Decide 根据当前状态判断胜负，每回合重新计算
func (b *Battle) Decide() (decided bool, winner Team, reason EndReason) {
	playersDown := b.teamDefeated(TeamPlayers)
	opponentsDown := b.teamDefeated(TeamOpponents)

	switch {
	case playersDown && opponentsDown:
		return true, TeamNone, EndReasonDraw
	case playersDown:
		if b.teamFled(TeamPlayers) {
			return true, TeamNone, EndReasonFled
		}
		return true, TeamOpponents, EndReasonKnockout
	case opponentsDown:
		if b.teamFled(TeamOpponents) {
			return true, TeamNone, EndReasonFled
		}
		if b.teamCaptured(TeamOpponents) {
			return true, TeamPlayers, EndReasonCaptured
		}
		return true, TeamPlayers, EndReasonKnockout
	}
	return false, TeamNone, EndReasonNone
}

// Clone 深拷贝
func (b *Battle) Clone() *Battle {
	if b == nil {
		return nil
	}
	out := *b
	out.Participants = make([]*Participant, len(b.Participants))
	for i, p := range b.Participants {
		out.Participants[i] = p.Clone()
	}
	out.Stats = make(map[string]*ParticipantStats, len(b.Stats))
	for id, s := range b.Stats {
		cp := *s
		cp.Captured = append([]string(nil), s.Captured...)
		out.Stats[id] = &cp
	}
	return &out
}
