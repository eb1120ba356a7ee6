package domain

import (
	"fmt"
	"strings"
)

// Weather 天气
type Weather string

const (
	WeatherNone      Weather = ""
	WeatherRain      Weather = "rain"
	WeatherSun       Weather = "sun"
	WeatherSandstorm Weather = "sandstorm"
	WeatherHail      Weather = "hail"
	WeatherSnow      Weather = "snow"
	WeatherFog       Weather = "fog"
)

// Terrain 场地
type Terrain string

const (
	TerrainNone     Terrain = ""
	TerrainElectric Terrain = "electric"
	TerrainGrassy   Terrain = "grassy"
	TerrainMisty    Terrain = "misty"
	TerrainPsychic  Terrain = "psychic"
)

// ParseWeather 解析天气，空串为无天气
func ParseWeather(s string) (Weather, error) {
	w := Weather(strings.ToLower(strings.TrimSpace(s)))
	switch w {
	case WeatherNone, WeatherRain, WeatherSun, WeatherSandstorm, WeatherHail, WeatherSnow, WeatherFog:
		return w, nil
	}
	return WeatherNone, fmt.Errorf("unknown weather %q", s)
}

// ParseTerrain 解析场地，空串为无场地
func ParseTerrain(s string) (Terrain, error) {
	t := Terrain(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TerrainNone, TerrainElectric, TerrainGrassy, TerrainMisty, TerrainPsychic:
		return t, nil
	}
	return TerrainNone, fmt.Errorf("unknown terrain %q", s)
}

// Field 战场状态；剩余回合为 0 表示不会自然结束
type Field struct {
	Weather      Weather `json:"weather,omitempty"`
	WeatherTurns int     `json:"weather_turns,omitempty"`
	Terrain      Terrain `json:"terrain,omitempty"`
	TerrainTurns int     `json:"terrain_turns,omitempty"`
}

// Tick 回合结束时递减天气与场地计数，返回到期的变化
func (f *Field) Tick() []FieldChange {
	var changes []FieldChange
	if f.Weather != WeatherNone && f.WeatherTurns > 0 {
		f.WeatherTurns--
		if f.WeatherTurns == 0 {
			changes = append(changes, FieldChange{Kind: FieldKindWeather, Value: string(f.Weather), Ended: true})
			f.Weather = WeatherNone
		}
	}
	if f.Terrain != TerrainNone && f.TerrainTurns > 0 {
		f.TerrainTurns--
		if f.TerrainTurns == 0 {
			changes = append(changes, FieldChange{Kind: FieldKindTerrain, Value: string(f.Terrain), Ended: true})
			f.Terrain = TerrainNone
		}
	}
	return changes
}
