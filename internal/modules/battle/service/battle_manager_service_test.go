package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/xerrors"
	"tsu-battle/internal/repository/interfaces"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newManager(source *memorySource, sink *recordingSink, clock *fakeClock) *BattleManagerService {
	rules := config.DefaultBattleRules()
	c := NewServiceContainer(source, rules, ContainerDeps{LogSink: sink, ResultSink: sink, Logger: log.NewNopLogger()})
	return NewBattleManagerService(
		c.SnapshotBuilder, c.StatusService, c.ActionService, c.AIService, c.RewardService,
		rules, log.NewNopLogger(),
		WithLogSink(sink), WithResultSink(sink), WithClock(clock.Now),
	)
}

func wildRequest(playerMonsters ...string) StartBattleRequest {
	return StartBattleRequest{
		Seed: 42,
		Participants: []ParticipantSpec{
			{ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers, MonsterIDs: playerMonsters},
			{ID: "wild", Kind: domain.ControllerWild, Team: domain.TeamOpponents, MonsterIDs: []string{"weakling"}},
		},
	}
}

func TestStartBattle(t *testing.T) {
	ctx := context.Background()

	t.Run("注册进行中的战斗", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		m := newManager(newMemorySource(), &recordingSink{}, clock)

		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, domain.StateActive, b.State)
		assert.Equal(t, 1, b.Turn)
		assert.Equal(t, uint64(42), b.Seed)
		assert.Equal(t, clock.now.Add(time.Minute), b.TurnDeadline)
		assert.Equal(t, 1, m.ActiveBattleCount())

		// 返回的是副本
		b.Turn = 99
		stored, err := m.GetBattle(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Turn)
	})

	t.Run("同一怪兽记录多次出场时区分 ID", func(t *testing.T) {
		m := newManager(newMemorySource(), &recordingSink{}, &fakeClock{})
		req := wildRequest("sparky", "sparky")

		b, err := m.StartBattle(ctx, req)
		require.NoError(t, err)
		roster := b.Participant("ash").Roster
		assert.Equal(t, "sparky", roster[0].ID)
		assert.Equal(t, "sparky#2", roster[1].ID)
	})

	invalid := []struct {
		name string
		req  StartBattleRequest
	}{
		{"缺少对手阵营", StartBattleRequest{Participants: []ParticipantSpec{
			{ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers, MonsterIDs: []string{"sparky"}},
		}}},
		{"参战方 ID 重复", StartBattleRequest{Participants: []ParticipantSpec{
			{ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers, MonsterIDs: []string{"sparky"}},
			{ID: "ash", Kind: domain.ControllerWild, Team: domain.TeamOpponents, MonsterIDs: []string{"weakling"}},
		}}},
		{"未知参战方类型", StartBattleRequest{Participants: []ParticipantSpec{
			{ID: "ash", Kind: "robot", Team: domain.TeamPlayers, MonsterIDs: []string{"sparky"}},
			{ID: "wild", Kind: domain.ControllerWild, Team: domain.TeamOpponents, MonsterIDs: []string{"weakling"}},
		}}},
		{"没有怪兽", StartBattleRequest{Participants: []ParticipantSpec{
			{ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers},
			{ID: "wild", Kind: domain.ControllerWild, Team: domain.TeamOpponents, MonsterIDs: []string{"weakling"}},
		}}},
		{"未知天气", StartBattleRequest{
			Participants: wildRequest("sparky").Participants,
			Field:        domain.Field{Weather: "meteor"},
		}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			source := newMemorySource()
			m := newManager(source, &recordingSink{}, &fakeClock{})

			b, err := m.StartBattle(ctx, tt.req)
			assert.Nil(t, b)
			assert.True(t, xerrors.HasCode(err, xerrors.CodeInvalidParams), "got %v", err)
			assert.Zero(t, source.reads, "request is validated before any record is read")
			assert.Zero(t, m.ActiveBattleCount())
		})
	}

	t.Run("记录缺失时不创建战斗", func(t *testing.T) {
		m := newManager(newMemorySource(), &recordingSink{}, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky", "missingno"))
		assert.Nil(t, b)
		assert.True(t, xerrors.IsDataError(err))
		assert.Zero(t, m.ActiveBattleCount())
	})
}

func TestSubmitAction(t *testing.T) {
	ctx := context.Background()

	t.Run("击倒野生怪兽后结束并只结算一次", func(t *testing.T) {
		sink := &recordingSink{}
		m := newManager(newMemorySource(), sink, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)

		report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		require.NoError(t, err)
		assert.False(t, report.Pending)
		require.NotNil(t, report.End)
		assert.Equal(t, domain.TeamPlayers, report.End.Winner)
		assert.Equal(t, domain.EndReasonKnockout, report.End.Reason)

		// 50*2/7
		assert.Equal(t, 14, report.End.TotalExperience)
		total := 0
		for _, r := range report.End.Rewards {
			total += r.Experience
		}
		assert.Equal(t, report.End.TotalExperience, total)

		stored, err := m.GetBattle(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateCompleted, stored.State, describe(stored))
		assert.True(t, stored.TurnDeadline.IsZero())

		_, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotActive))
		_, err = m.AdvanceTurn(ctx, b.ID)
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotActive))
		_, err = m.ForceEnd(ctx, b.ID, "cleanup")
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotActive))

		assert.Equal(t, 1, sink.endCount())
		assert.Equal(t, []int{1}, sink.turns)
	})

	t.Run("战斗结束后不再处理持续伤害", func(t *testing.T) {
		source := newMemorySource()
		source.monsters["sparky"].CurrentHP = intPtr(1)
		source.monsters["sparky"].Status = "poison"
		m := newManager(source, &recordingSink{}, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)

		report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		require.NoError(t, err)
		require.NotNil(t, report.End)
		assert.Equal(t, domain.TeamPlayers, report.End.Winner)
		for _, res := range report.Results {
			assert.NotEqual(t, domain.PhaseEndOfTurn, res.Phase)
		}

		stored, _ := m.GetBattle(ctx, b.ID)
		sparky := stored.Participant("ash").ActiveMonster()
		assert.Equal(t, 1, sparky.CurrentHP)
		assert.False(t, sparky.Fainted)
	})

	t.Run("等待所有玩家提交", func(t *testing.T) {
		sink := &recordingSink{}
		m := newManager(newMemorySource(), sink, &fakeClock{})
		req := wildRequest("sparky")
		req.Participants = append(req.Participants,
			ParticipantSpec{ID: "misty", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers, MonsterIDs: []string{"embercub"}})
		b, err := m.StartBattle(ctx, req)
		require.NoError(t, err)

		report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "growl", ""))
		require.NoError(t, err)
		assert.True(t, report.Pending)
		assert.Equal(t, []string{"misty"}, report.Waiting)
		assert.Empty(t, sink.turns)

		_, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleActionDuplicate))

		report, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("misty", "ember", ""))
		require.NoError(t, err)
		assert.False(t, report.Pending)
		assert.NotEmpty(t, report.Results)
	})

	t.Run("拒绝的行动可以在本回合重新提交", func(t *testing.T) {
		m := newManager(newMemorySource(), &recordingSink{}, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)

		_, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "hyper-beam", ""))
		require.Error(t, err)
		appErr, ok := xerrors.As(err)
		require.True(t, ok)
		assert.True(t, appErr.IsRecoverable())

		stored, _ := m.GetBattle(ctx, b.ID)
		assert.Equal(t, 1, stored.Turn)

		report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		require.NoError(t, err)
		assert.NotNil(t, report.End)
	})

	t.Run("不能替 AI 参战方提交", func(t *testing.T) {
		m := newManager(newMemorySource(), &recordingSink{}, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)

		_, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("wild", "growl", ""))
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleActionInvalid))
	})

	t.Run("战斗不存在", func(t *testing.T) {
		m := newManager(newMemorySource(), &recordingSink{}, &fakeClock{})
		_, err := m.SubmitAction(ctx, "nope", domain.FleeAction("ash"))
		assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotFound))
	})

	t.Run("输出协作方失败不影响结算", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker down")}
		m := newManager(newMemorySource(), sink, &fakeClock{})
		b, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)

		report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
		require.NoError(t, err)
		assert.NotNil(t, report.End)
		assert.Equal(t, 1, sink.endCount())
	})
}

func TestForceEnd(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	m := newManager(newMemorySource(), sink, &fakeClock{})
	b, err := m.StartBattle(ctx, wildRequest("sparky"))
	require.NoError(t, err)

	end, err := m.ForceEnd(ctx, b.ID, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCancelled, end.State)
	assert.Equal(t, domain.EndReasonForced, end.Reason)
	assert.Equal(t, 0, end.TotalExperience)
	assert.Len(t, end.Rewards, 2)

	_, err = m.ForceEnd(ctx, b.ID, "again")
	assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotActive))
	assert.Equal(t, 1, sink.endCount())
	assert.Zero(t, m.ActiveBattleCount())
}

func TestAdvanceTurn_AIBattle(t *testing.T) {
	ctx := context.Background()

	run := func(seed uint64) ([]*domain.TurnResult, *domain.BattleEndResult, int) {
		sink := &recordingSink{}
		m := newManager(newMemorySource(), sink, &fakeClock{})
		b, err := m.StartBattle(ctx, StartBattleRequest{
			Seed: seed,
			Participants: []ParticipantSpec{
				{ID: "blue", Kind: domain.ControllerNPC, Team: domain.TeamPlayers, MonsterIDs: []string{"embercub"}, Difficulty: "hard"},
				{ID: "red", Kind: domain.ControllerNPC, Team: domain.TeamOpponents, MonsterIDs: []string{"sparky"}, Difficulty: "easy"},
			},
		})
		require.NoError(t, err)

		var results []*domain.TurnResult
		for range 200 {
			report, err := m.AdvanceTurn(ctx, b.ID)
			require.NoError(t, err)
			results = append(results, report.Results...)
			if report.End != nil {
				return results, report.End, sink.endCount()
			}
		}
		t.Fatalf("battle did not finish")
		return nil, nil, 0
	}

	results, end, ends := run(7)
	assert.Equal(t, 1, ends)
	assert.Equal(t, domain.StateCompleted, end.State)
	assert.NotEqual(t, domain.TeamNone, end.Winner)

	// 相同种子得到相同过程
	again, endAgain, _ := run(7)
	assert.Equal(t, results, again)
	assert.Equal(t, end.Winner, endAgain.Winner)
	assert.Equal(t, end.Turns, endAgain.Turns)
}

func TestExpireTurns(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(newMemorySource(), &recordingSink{}, clock)
	b, err := m.StartBattle(ctx, wildRequest("sparky"))
	require.NoError(t, err)

	reports, err := m.ExpireTurns(ctx, clock.now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Empty(t, reports)

	reports, err = m.ExpireTurns(ctx, clock.now.Add(61*time.Second))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, b.ID, reports[0].BattleID)
	assert.Equal(t, 1, reports[0].Turn)
	assert.NotEmpty(t, reports[0].Results)
}

func TestExpireTurns_ConcurrencyLimit(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rules := config.DefaultBattleRules()
	rules.Turn.ExpireConcurrency = 1
	sink := &recordingSink{}
	c := NewServiceContainer(newMemorySource(), rules, ContainerDeps{LogSink: sink, ResultSink: sink, Logger: log.NewNopLogger()})
	m := NewBattleManagerService(
		c.SnapshotBuilder, c.StatusService, c.ActionService, c.AIService, c.RewardService,
		rules, log.NewNopLogger(),
		WithLogSink(sink), WithResultSink(sink), WithClock(clock.Now),
	)

	for range 3 {
		_, err := m.StartBattle(ctx, wildRequest("sparky"))
		require.NoError(t, err)
	}

	reports, err := m.ExpireTurns(ctx, clock.now.Add(61*time.Second))
	require.NoError(t, err)
	assert.Len(t, reports, 3, "并发上限只限制同时结算的数量")
}

func TestPruneEnded(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newManager(newMemorySource(), &recordingSink{}, clock)

	ended, err := m.StartBattle(ctx, wildRequest("sparky"))
	require.NoError(t, err)
	_, err = m.ForceEnd(ctx, ended.ID, "done")
	require.NoError(t, err)
	active, err := m.StartBattle(ctx, wildRequest("sparky"))
	require.NoError(t, err)

	assert.Equal(t, 0, m.PruneEnded(clock.now))
	clock.Advance(time.Hour)
	assert.Equal(t, 1, m.PruneEnded(clock.now))

	_, err = m.GetBattle(ctx, ended.ID)
	assert.True(t, xerrors.HasCode(err, xerrors.CodeBattleNotFound))
	_, err = m.GetBattle(ctx, active.ID)
	assert.NoError(t, err)
}

func TestSubmitAction_ForcedOutAttackerIsReported(t *testing.T) {
	ctx := context.Background()
	source := newMemorySource()
	source.moves["roar"] = &interfaces.MoveRecord{
		ID: "roar", Name: "Roar", Type: "normal", Category: "status", PP: 20, Target: "opponent",
		Effects: []interfaces.MoveEffectRecord{{Kind: "force_switch"}},
	}
	source.monsters["howler"] = &interfaces.MonsterRecord{
		ID: "howler", Name: "Howler", Level: 25, Types: []string{"normal"},
		Stats:     interfaces.StatsRecord{HP: 80, Attack: 50, Defense: 50, SpAttack: 50, SpDefense: 50, Speed: 200},
		Moves:     []string{"roar"},
		CatchRate: 45, BaseExperience: 80,
	}
	m := newManager(source, &recordingSink{}, &fakeClock{})
	b, err := m.StartBattle(ctx, StartBattleRequest{
		Seed: 7,
		Participants: []ParticipantSpec{
			{ID: "ash", Kind: domain.ControllerPlayer, Team: domain.TeamPlayers, MonsterIDs: []string{"sparky", "embercub"}},
			{ID: "gary", Kind: domain.ControllerPlayer, Team: domain.TeamOpponents, MonsterIDs: []string{"howler"}},
		},
	})
	require.NoError(t, err)

	_, err = m.SubmitAction(ctx, b.ID, domain.AttackAction("gary", "roar", ""))
	require.NoError(t, err)
	report, err := m.SubmitAction(ctx, b.ID, domain.AttackAction("ash", "tackle", ""))
	require.NoError(t, err)
	require.False(t, report.Pending)

	var skipped *domain.TurnResult
	for _, res := range report.Results {
		if res.ParticipantID == "ash" && res.Phase == domain.PhaseAction {
			skipped = res
		}
	}
	require.NotNil(t, skipped, "被换下的怪兽的行动也要有结果")
	assert.True(t, skipped.Skipped)
	assert.Equal(t, "sparky", skipped.ActorID)
	assert.Equal(t, "tackle", skipped.MoveID)
	assert.NotEmpty(t, skipped.Log)

	stored, _ := m.GetBattle(ctx, b.ID)
	assert.Equal(t, "embercub", stored.Participant("ash").ActiveMonster().ID)
	howler := stored.Participant("gary").ActiveMonster()
	assert.Equal(t, howler.MaxHP, howler.CurrentHP)
}
