package domain

// ControllerKind 参战方控制者
type ControllerKind string

const (
	ControllerPlayer ControllerKind = "player"
	ControllerNPC    ControllerKind = "npc"
	ControllerWild   ControllerKind = "wild"
)

// Team 阵营
type Team string

const (
	TeamNone      Team = ""
	TeamPlayers   Team = "players"
	TeamOpponents Team = "opponents"
)

// Other 对立阵营
func (t Team) Other() Team {
	switch t {
	case TeamPlayers:
		return TeamOpponents
	case TeamOpponents:
		return TeamPlayers
	default:
		return TeamNone
	}
}

// Participant 参战方
type Participant struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Kind       ControllerKind   `json:"kind"`
	Team       Team             `json:"team"`
	Roster     []*BattleMonster `json:"roster"`
	Active     int              `json:"active"`
	Difficulty string           `json:"difficulty,omitempty"`
	Inventory  []*InventorySlot `json:"inventory,omitempty"`
	// NPC 训练师战败后掉落的道具
	RewardItems    []string `json:"reward_items,omitempty"`
	Fled           bool     `json:"fled"`
	EscapeAttempts int      `json:"escape_attempts,omitempty"`
}

// IsHuman 是否由玩家提交行动
func (p *Participant) IsHuman() bool {
	return p.Kind == ControllerPlayer
}

// ActiveMonster 当前出场怪兽
func (p *Participant) ActiveMonster() *BattleMonster {
	if p.Active < 0 || p.Active >= len(p.Roster) {
		return nil
	}
	return p.Roster[p.Active]
}

// NextHealthy 按队伍顺序返回下一只可战斗的候补，没有时为 -1
func (p *Participant) NextHealthy() int {
	for i, m := range p.Roster {
		if i != p.Active && m.CanBattle() {
			return i
		}
	}
	return -1
}

// Bench 可战斗的候补
func (p *Participant) Bench() []*BattleMonster {
	var bench []*BattleMonster
	for i, m := range p.Roster {
		if i != p.Active && m.CanBattle() {
			bench = append(bench, m)
		}
	}
	return bench
}

// IsDefeated 逃跑，或全部怪兽倒下/被捕获
func (p *Participant) IsDefeated() bool {
	if p.Fled {
		return true
	}
	for _, m := range p.Roster {
		if m.CanBattle() {
			return false
		}
	}
	return true
}

// FindMonster 按 ID 查找队伍中的怪兽
func (p *Participant) FindMonster(id string) (int, *BattleMonster) {
	for i, m := range p.Roster {
		if m.ID == id {
			return i, m
		}
	}
	return -1, nil
}

// FindItem 按道具 ID 查找背包
func (p *Participant) FindItem(itemID string) *InventorySlot {
	for _, slot := range p.Inventory {
		if slot.Item != nil && slot.Item.ID == itemID {
			return slot
		}
	}
	return nil
}

// Clone 深拷贝
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	out := *p
	out.Roster = make([]*BattleMonster, len(p.Roster))
	for i, m := range p.Roster {
		out.Roster[i] = m.Clone()
	}
	out.Inventory = make([]*InventorySlot, len(p.Inventory))
	for i, slot := range p.Inventory {
		cp := *slot
		out.Inventory[i] = &cp
	}
	out.RewardItems = append([]string(nil), p.RewardItems...)
	return &out
}
