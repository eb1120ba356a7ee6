package domain

// TypeChart 攻击属性对防御属性的克制倍率，构建后只读
type TypeChart struct {
	table map[Type]map[Type]float64
}

// 未列出的组合为 1 倍
var defaultMatchups = map[Type]map[Type]float64{
	TypeNormal:   {TypeRock: 0.5, TypeGhost: 0, TypeSteel: 0.5},
	TypeFire:     {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 2, TypeBug: 2, TypeRock: 0.5, TypeDragon: 0.5, TypeSteel: 2},
	TypeWater:    {TypeFire: 2, TypeWater: 0.5, TypeGrass: 0.5, TypeGround: 2, TypeRock: 2, TypeDragon: 0.5},
	TypeElectric: {TypeWater: 2, TypeElectric: 0.5, TypeGrass: 0.5, TypeGround: 0, TypeFlying: 2, TypeDragon: 0.5},
	TypeGrass:    {TypeFire: 0.5, TypeWater: 2, TypeGrass: 0.5, TypePoison: 0.5, TypeGround: 2, TypeFlying: 0.5, TypeBug: 0.5, TypeRock: 2, TypeDragon: 0.5, TypeSteel: 0.5},
	TypeIce:      {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 0.5, TypeGround: 2, TypeFlying: 2, TypeDragon: 2, TypeSteel: 0.5},
	TypeFighting: {TypeNormal: 2, TypeIce: 2, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 0.5, TypeBug: 0.5, TypeRock: 2, TypeGhost: 0, TypeDark: 2, TypeSteel: 2, TypeFairy: 0.5},
	TypePoison:   {TypeGrass: 2, TypePoison: 0.5, TypeGround: 0.5, TypeRock: 0.5, TypeGhost: 0.5, TypeSteel: 0, TypeFairy: 2},
	TypeGround:   {TypeFire: 2, TypeElectric: 2, TypeGrass: 0.5, TypePoison: 2, TypeFlying: 0, TypeBug: 0.5, TypeRock: 2, TypeSteel: 2},
	TypeFlying:   {TypeElectric: 0.5, TypeGrass: 2, TypeFighting: 2, TypeBug: 2, TypeRock: 0.5, TypeSteel: 0.5},
	TypePsychic:  {TypeFighting: 2, TypePoison: 2, TypePsychic: 0.5, TypeDark: 0, TypeSteel: 0.5},
	TypeBug:      {TypeFire: 0.5, TypeGrass: 2, TypeFighting: 0.5, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 2, TypeGhost: 0.5, TypeDark: 2, TypeSteel: 0.5, TypeFairy: 0.5},
	TypeRock:     {TypeFire: 2, TypeIce: 2, TypeFighting: 0.5, TypeGround: 0.5, TypeFlying: 2, TypeBug: 2, TypeSteel: 0.5},
	TypeGhost:    {TypeNormal: 0, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5},
	TypeDragon:   {TypeDragon: 2, TypeSteel: 0.5, TypeFairy: 0},
	TypeDark:     {TypeFighting: 0.5, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5, TypeFairy: 0.5},
	TypeSteel:    {TypeFire: 0.5, TypeWater: 0.5, TypeElectric: 0.5, TypeIce: 2, TypeRock: 2, TypeSteel: 0.5, TypeFairy: 2},
	TypeFairy:    {TypeFire: 0.5, TypeFighting: 2, TypePoison: 0.5, TypeDragon: 2, TypeDark: 2, TypeSteel: 0.5},
}

var defaultChart = NewTypeChart(nil)

// DefaultTypeChart 标准 18 属性克制表
func DefaultTypeChart() *TypeChart {
	return defaultChart
}

// NewTypeChart 在标准表基础上应用覆盖项
func NewTypeChart(overrides map[Type]map[Type]float64) *TypeChart {
	table := make(map[Type]map[Type]float64, len(defaultMatchups))
	for atk, row := range defaultMatchups {
		copied := make(map[Type]float64, len(row))
		for def, m := range row {
			copied[def] = m
		}
		table[atk] = copied
	}
	for atk, row := range overrides {
		if table[atk] == nil {
			table[atk] = make(map[Type]float64, len(row))
		}
		for def, m := range row {
			table[atk][def] = m
		}
	}
	return &TypeChart{table: table}
}

// Multiplier 单属性倍率，取值 {0, 0.5, 1, 2}
func (c *TypeChart) Multiplier(attack, defense Type) float64 {
	if attack == TypeNone || defense == TypeNone {
		return 1
	}
	if m, ok := c.table[attack][defense]; ok {
		return m
	}
	return 1
}

// Effectiveness 对多属性防御方取各单属性倍率之积
func (c *TypeChart) Effectiveness(attack Type, defense []Type) float64 {
	result := 1.0
	for _, def := range defense {
		result *= c.Multiplier(attack, def)
	}
	return result
}
