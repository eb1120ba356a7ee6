package domain

// ActionKind 行动种类
type ActionKind string

const (
	ActionAttack   ActionKind = "attack"
	ActionItem     ActionKind = "item"
	ActionSwitch   ActionKind = "switch"
	ActionCapture  ActionKind = "capture"
	ActionFlee     ActionKind = "flee"
	ActionStruggle ActionKind = "struggle"
)

// IsAttack 招式类行动，同优先级时排在其他行动之后
func (k ActionKind) IsAttack() bool {
	return k == ActionAttack || k == ActionStruggle
}

// Action 一个出场怪兽在一回合内提交的行动
type Action struct {
	Kind          ActionKind `json:"kind"`
	ParticipantID string     `json:"participant_id"`
	// 行动者，为空时取参战方当前出场怪兽
	MonsterID  string `json:"monster_id,omitempty"`
	MoveID     string `json:"move_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	TargetID   string `json:"target_id,omitempty"`
	SwitchToID string `json:"switch_to_id,omitempty"`
}

// AttackAction 使用招式
func AttackAction(participantID, moveID, targetID string) Action {
	return Action{Kind: ActionAttack, ParticipantID: participantID, MoveID: moveID, TargetID: targetID}
}

// ItemAction 使用道具，targetID 为己方怪兽
func ItemAction(participantID, itemID, targetID string) Action {
	return Action{Kind: ActionItem, ParticipantID: participantID, ItemID: itemID, TargetID: targetID}
}

// SwitchAction 换上候补
func SwitchAction(participantID, monsterID string) Action {
	return Action{Kind: ActionSwitch, ParticipantID: participantID, SwitchToID: monsterID}
}

// CaptureAction 投掷精灵球
func CaptureAction(participantID, itemID, targetID string) Action {
	return Action{Kind: ActionCapture, ParticipantID: participantID, ItemID: itemID, TargetID: targetID}
}

// FleeAction 逃跑
func FleeAction(participantID string) Action {
	return Action{Kind: ActionFlee, ParticipantID: participantID}
}

// StruggleAction 挣扎
func StruggleAction(participantID, targetID string) Action {
	return Action{Kind: ActionStruggle, ParticipantID: participantID, TargetID: targetID}
}
