package handler

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/pkg/ctxkey"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/xerrors"
)

type fakeManager struct {
	started   []service.StartBattleRequest
	submitted []domain.Action
	traceIDs  []string
	err       error
}

func (f *fakeManager) StartBattle(ctx context.Context, req service.StartBattleRequest) (*domain.Battle, error) {
	f.started = append(f.started, req)
	f.traceIDs = append(f.traceIDs, ctxkey.GetString(ctx, ctxkey.TraceID))
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Battle{ID: "b-1", State: domain.StateActive, Turn: 1}, nil
}

func (f *fakeManager) SubmitAction(ctx context.Context, battleID string, action domain.Action) (*service.TurnReport, error) {
	f.submitted = append(f.submitted, action)
	if f.err != nil {
		return nil, f.err
	}
	return &service.TurnReport{BattleID: battleID, Turn: 1, Pending: true, Waiting: []string{"p2"}}, nil
}

func (f *fakeManager) AdvanceTurn(ctx context.Context, battleID string) (*service.TurnReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.TurnReport{BattleID: battleID, Turn: 2}, nil
}

func (f *fakeManager) ForceEnd(ctx context.Context, battleID, reason string) (*domain.BattleEndResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.BattleEndResult{BattleID: battleID, State: domain.StateCancelled}, nil
}

func (f *fakeManager) GetBattle(ctx context.Context, battleID string) (*domain.Battle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Battle{ID: battleID, State: domain.StateActive}, nil
}

type envelope struct {
	Code        int             `json:"code"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	Recoverable bool            `json:"recoverable"`
	TraceId     string          `json:"trace_id"`
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func newTestHandler(m *fakeManager) *BattleHandler {
	return NewBattleHandler(m, 0, log.NewNopLogger())
}

func TestBattleHandler_Start(t *testing.T) {
	t.Run("开战成功并回传追踪ID", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)

		body := `{"trace_id":"trace-1","participants":[{"id":"p1","kind":"player","team":"players","monster_ids":["sparky"]}]}`
		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectStart, []byte(body)))

		assert.Equal(t, xerrors.CodeSuccess.ToInt(), env.Code)
		assert.Equal(t, "trace-1", env.TraceId)
		require.Len(t, m.started, 1)
		require.Len(t, m.started[0].Participants, 1)
		assert.Equal(t, []string{"sparky"}, m.started[0].Participants[0].MonsterIDs)
		assert.Equal(t, []string{"trace-1"}, m.traceIDs)

		var b domain.Battle
		require.NoError(t, json.Unmarshal(env.Data, &b))
		assert.Equal(t, "b-1", b.ID)
	})

	t.Run("未提供追踪ID时自动生成", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)

		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectStart, []byte(`{"participants":[]}`)))
		assert.Equal(t, xerrors.CodeSuccess.ToInt(), env.Code)
		assert.NotEmpty(t, env.TraceId)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)

		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectStart, []byte(`{not json`)))
		assert.Equal(t, xerrors.CodeInvalidParams.ToInt(), env.Code)
		assert.Empty(t, m.started)
	})
}

func TestBattleHandler_Action(t *testing.T) {
	t.Run("缺少战斗ID时校验失败", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)

		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectAction, []byte(`{"action":{"kind":"attack","participant_id":"p1"}}`)))
		assert.Equal(t, xerrors.CodeInvalidParams.ToInt(), env.Code)
		assert.Empty(t, m.submitted)
	})

	t.Run("转发行动并返回等待列表", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)

		body := `{"battle_id":"b-1","action":{"kind":"attack","participant_id":"p1","move_id":"tackle"}}`
		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectAction, []byte(body)))
		require.Equal(t, xerrors.CodeSuccess.ToInt(), env.Code)
		require.Len(t, m.submitted, 1)
		assert.Equal(t, "tackle", m.submitted[0].MoveID)

		var report service.TurnReport
		require.NoError(t, json.Unmarshal(env.Data, &report))
		assert.True(t, report.Pending)
		assert.Equal(t, []string{"p2"}, report.Waiting)
	})

	t.Run("行动错误保留错误码与可恢复标记", func(t *testing.T) {
		m := &fakeManager{err: xerrors.NewActionError(xerrors.CodeBattleMoveNoPP, "no pp")}
		h := newTestHandler(m)

		body := `{"lang":"en","battle_id":"b-1","action":{"kind":"attack","participant_id":"p1","move_id":"tackle"}}`
		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectAction, []byte(body)))
		assert.Equal(t, xerrors.CodeBattleMoveNoPP.ToInt(), env.Code)
		assert.True(t, env.Recoverable)
		assert.NotEmpty(t, env.Message)
	})
}

func TestBattleHandler_BattleSubjects(t *testing.T) {
	t.Run("推进/强制结束/查询", func(t *testing.T) {
		m := &fakeManager{}
		h := newTestHandler(m)
		body := []byte(`{"battle_id":"b-9","reason":"admin"}`)

		for _, subject := range []string{SubjectAdvance, SubjectForceEnd, SubjectGet} {
			env := decodeEnvelope(t, h.Handle(context.Background(), subject, body))
			assert.Equal(t, xerrors.CodeSuccess.ToInt(), env.Code, subject)
			assert.Contains(t, string(env.Data), "b-9", subject)
		}
	})

	t.Run("战斗不存在", func(t *testing.T) {
		m := &fakeManager{err: xerrors.NewBattleNotFoundError("b-404")}
		h := newTestHandler(m)

		env := decodeEnvelope(t, h.Handle(context.Background(), SubjectGet, []byte(`{"battle_id":"b-404"}`)))
		assert.Equal(t, xerrors.CodeBattleNotFound.ToInt(), env.Code)
		assert.False(t, env.Recoverable)
	})

	t.Run("未知主题", func(t *testing.T) {
		h := newTestHandler(&fakeManager{})
		env := decodeEnvelope(t, h.Handle(context.Background(), "battle.rpc.unknown", []byte(`{}`)))
		assert.Equal(t, xerrors.CodeInvalidParams.ToInt(), env.Code)
	})
}
