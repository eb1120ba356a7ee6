package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

func TestBuildParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("构建队伍与背包", func(t *testing.T) {
		source := newMemorySource()
		builder := NewSnapshotBuilder(source)

		p, err := builder.BuildParticipant(ctx, ParticipantSpec{
			ID:         "ash",
			Kind:       domain.ControllerPlayer,
			Team:       domain.TeamPlayers,
			MonsterIDs: []string{"sparky", "embercub"},
			Inventory: []InventorySpec{
				{ItemID: "potion", Quantity: 3},
				{ItemID: "master-ball", Quantity: 0},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "ash", p.Name)
		assert.Equal(t, 0, p.Active)
		require.Len(t, p.Roster, 2)

		sparky := p.Roster[0]
		assert.Equal(t, "ash", sparky.OwnerID)
		assert.Equal(t, []domain.Type{domain.TypeElectric}, sparky.Types)
		assert.Equal(t, 70, sparky.MaxHP)
		assert.Equal(t, 70, sparky.CurrentHP)
		require.Len(t, sparky.Moves, 2)
		assert.Equal(t, 35, sparky.Moves[0].PP)
		assert.Equal(t, 35, sparky.Moves[0].MaxPP)

		// 同一参战方内的招式定义共享
		assert.Same(t, sparky.FindMove("tackle").Move, p.Roster[1].FindMove("tackle").Move)

		require.Len(t, p.Inventory, 1)
		assert.Equal(t, "potion", p.Inventory[0].Item.ID)
		assert.Equal(t, 3, p.Inventory[0].Quantity)
	})

	t.Run("续战的当前 HP 与异常状态", func(t *testing.T) {
		source := newMemorySource()
		source.monsters["sparky"].CurrentHP = intPtr(0)
		source.monsters["embercub"].CurrentHP = intPtr(30)
		source.monsters["embercub"].Status = "burn"
		builder := NewSnapshotBuilder(source)

		p, err := builder.BuildParticipant(ctx, ParticipantSpec{
			ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers,
			MonsterIDs: []string{"sparky", "embercub"},
		})
		require.NoError(t, err)
		assert.True(t, p.Roster[0].Fainted)
		assert.Equal(t, 1, p.Active)
		assert.Equal(t, 30, p.Roster[1].CurrentHP)
		assert.Equal(t, domain.StatusBurn, p.Roster[1].PrimaryKind())
	})

	errorCases := []struct {
		name   string
		mutate func(s *memorySource)
		spec   ParticipantSpec
	}{
		{
			name: "怪兽记录不存在",
			spec: ParticipantSpec{ID: "ash", MonsterIDs: []string{"missingno"}},
		},
		{
			name:   "招式记录不存在",
			mutate: func(s *memorySource) { s.monsters["sparky"].Moves = []string{"tackle", "splash"} },
			spec:   ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"}},
		},
		{
			name: "道具记录不存在",
			spec: ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"},
				Inventory: []InventorySpec{{ItemID: "rare-candy", Quantity: 1}}},
		},
		{
			name:   "记录校验失败",
			mutate: func(s *memorySource) { s.monsters["sparky"].Level = 0 },
			spec:   ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"}},
		},
		{
			name:   "未知属性",
			mutate: func(s *memorySource) { s.monsters["sparky"].Types = []string{"cosmic"} },
			spec:   ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"}},
		},
		{
			name:   "当前 HP 超过最大值",
			mutate: func(s *memorySource) { s.monsters["sparky"].CurrentHP = intPtr(500) },
			spec:   ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"}},
		},
		{
			name:   "没有可战斗的怪兽",
			mutate: func(s *memorySource) { s.monsters["sparky"].CurrentHP = intPtr(0) },
			spec:   ParticipantSpec{ID: "ash", MonsterIDs: []string{"sparky"}},
		},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			source := newMemorySource()
			if tt.mutate != nil {
				tt.mutate(source)
			}
			builder := NewSnapshotBuilder(source)

			p, err := builder.BuildParticipant(ctx, tt.spec)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, xerrors.IsDataError(err), "got %v", err)
			assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleDataInvalid))
		})
	}
}

func TestMoveFromRecord(t *testing.T) {
	t.Run("无命中值视为必中", func(t *testing.T) {
		move, err := MoveFromRecord(&interfaces.MoveRecord{
			ID: "swift", Name: "Swift", Type: "normal", Category: "special", Power: intPtr(60), PP: 20, Target: "opponent",
		})
		require.NoError(t, err)
		assert.True(t, move.AlwaysHits)
		assert.Equal(t, 60, move.Power)
	})

	t.Run("解析效果", func(t *testing.T) {
		move, err := MoveFromRecord(&interfaces.MoveRecord{
			ID: "sunny-day", Name: "Sunny Day", Type: "fire", Category: "status", PP: 5, Target: "field",
			Effects: []interfaces.MoveEffectRecord{{Kind: "weather", Weather: "sun"}},
		})
		require.NoError(t, err)
		require.Len(t, move.Effects, 1)
		assert.Equal(t, domain.WeatherSun, move.Effects[0].Weather)
	})

	t.Run("伤害招式缺少威力", func(t *testing.T) {
		_, err := MoveFromRecord(&interfaces.MoveRecord{
			ID: "broken", Name: "Broken", Type: "normal", Category: "physical", PP: 5, Target: "opponent",
		})
		assert.Error(t, err)
	})

	t.Run("未知效果种类", func(t *testing.T) {
		_, err := MoveFromRecord(&interfaces.MoveRecord{
			ID: "odd", Name: "Odd", Type: "normal", Category: "status", PP: 5, Target: "self",
			Effects: []interfaces.MoveEffectRecord{{Kind: "teleport"}},
		})
		assert.Error(t, err)
	})

	t.Run("未知状态名", func(t *testing.T) {
		_, err := MoveFromRecord(&interfaces.MoveRecord{
			ID: "odd", Name: "Odd", Type: "normal", Category: "status", PP: 5, Target: "opponent",
			Effects: []interfaces.MoveEffectRecord{{Kind: "status", Status: "petrified"}},
		})
		assert.Error(t, err)
	})
}

func TestItemFromRecord(t *testing.T) {
	item, err := ItemFromRecord(&interfaces.ItemRecord{ID: "poke-ball", Name: "Poke Ball", Kind: "capture"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, item.CaptureModifier)

	item, err = ItemFromRecord(&interfaces.ItemRecord{ID: "antidote", Name: "Antidote", Kind: "cure", CureStatus: "poison"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPoison, item.CureStatus)

	_, err = ItemFromRecord(&interfaces.ItemRecord{ID: "x-magic", Name: "X Magic", Kind: "stat_boost", Stat: "magic", Stages: 1})
	assert.Error(t, err)
}
