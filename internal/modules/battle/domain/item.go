package domain

// ItemKind 战斗道具种类
type ItemKind string

const (
	ItemHeal      ItemKind = "heal"       // 回复 HP
	ItemRevive    ItemKind = "revive"     // 复活倒下的怪兽
	ItemCure      ItemKind = "cure"       // 治愈异常状态
	ItemCapture   ItemKind = "capture"    // 精灵球
	ItemStatBoost ItemKind = "stat_boost" // 提升能力等级
)

// Item 道具定义，只读
type Item struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind ItemKind `json:"kind"`
	// 固定回复量与最大 HP 比例回复，取两者之和
	HealAmount  int     `json:"heal_amount,omitempty"`
	HealPercent float64 `json:"heal_percent,omitempty"`
	// 为空时治愈任意主要异常
	CureStatus StatusKind `json:"cure_status,omitempty"`
	// 捕获倍率；Guaranteed 必定成功
	CaptureModifier float64 `json:"capture_modifier,omitempty"`
	Guaranteed      bool    `json:"guaranteed,omitempty"`
	Stat            Stat    `json:"stat,omitempty"`
	Stages          int     `json:"stages,omitempty"`
}

// InventorySlot 参战方携带的道具
type InventorySlot struct {
	Item     *Item `json:"item"`
	Quantity int   `json:"quantity"`
}
