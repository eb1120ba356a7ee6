package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/config"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/rng"
	"tsu-battle/internal/pkg/xerrors"
)

// StartBattleRequest 开战请求
type StartBattleRequest struct {
	Participants []ParticipantSpec `json:"participants"`
	Field        domain.Field      `json:"field"`
	// 0 表示随机种子
	Seed uint64 `json:"seed,omitempty"`
}

// TurnReport 提交行动或结算回合后的回执
type TurnReport struct {
	BattleID string `json:"battle_id"`
	Turn     int    `json:"turn"`
	// 仍在等待其他参战方提交
	Pending bool     `json:"pending"`
	Waiting []string `json:"waiting,omitempty"`
	// 本回合结算产生的全部结果
	Results []*domain.TurnResult `json:"results,omitempty"`
	// 战斗在本回合结束时的结算
	End *domain.BattleEndResult `json:"end,omitempty"`
}

type pendingAction struct {
	action domain.Action
	seq    int
}

// battleEntry 单场战斗及其锁；同一场战斗的所有修改都在 mu 内串行完成
type battleEntry struct {
	mu      sync.Mutex
	battle  *domain.Battle
	rng     rng.Source
	pending map[string]pendingAction
	seq     int
}

// ManagerOption 战斗管理器可选项
type ManagerOption func(*BattleManagerService)

// WithLogSink 设置回合结果输出
func WithLogSink(sink BattleLogSink) ManagerOption {
	return func(s *BattleManagerService) {
		if sink != nil {
			s.logSink = sink
		}
	}
}

// WithResultSink 设置战斗结算输出
func WithResultSink(sink BattleResultSink) ManagerOption {
	return func(s *BattleManagerService) {
		if sink != nil {
			s.resultSink = sink
		}
	}
}

// WithBattleMetrics 设置战斗指标
func WithBattleMetrics(m *metrics.BattleMetrics) ManagerOption {
	return func(s *BattleManagerService) { s.metrics = m }
}

// WithErrorMetrics 设置错误指标
func WithErrorMetrics(m *metrics.ErrorMetrics) ManagerOption {
	return func(s *BattleManagerService) { s.errorMetrics = m }
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) ManagerOption {
	return func(s *BattleManagerService) {
		if now != nil {
			s.now = now
		}
	}
}

// BattleManagerService 战斗生命周期与回合编排
type BattleManagerService struct {
	builder    *SnapshotBuilder
	status     *StatusEffectService
	actions    *BattleActionService
	ai         *BattleAIService
	rewards    *RewardService
	rules      config.BattleRules
	logSink    BattleLogSink
	resultSink BattleResultSink

	metrics      *metrics.BattleMetrics
	errorMetrics *metrics.ErrorMetrics
	logger       log.Logger
	now          func() time.Time

	mu      sync.RWMutex
	battles map[string]*battleEntry
}

// NewBattleManagerService 创建战斗管理器
func NewBattleManagerService(
	builder *SnapshotBuilder,
	status *StatusEffectService,
	actions *BattleActionService,
	ai *BattleAIService,
	rewards *RewardService,
	rules config.BattleRules,
	logger log.Logger,
	opts ...ManagerOption,
) *BattleManagerService {
	if logger == nil {
		logger = log.GetLogger()
	}
	s := &BattleManagerService{
		builder:    builder,
		status:     status,
		actions:    actions,
		ai:         ai,
		rewards:    rewards,
		rules:      rules,
		logSink:    nopLogSink{},
		resultSink: nopResultSink{},
		logger:     logger.With("component", "battle_manager"),
		now:        time.Now,
		battles:    make(map[string]*battleEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartBattle 读取快照、校验并注册一场新战斗；所有读取在创建战斗之前完成
func (s *BattleManagerService) StartBattle(ctx context.Context, req StartBattleRequest) (*domain.Battle, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	participants := make([]*domain.Participant, 0, len(req.Participants))
	for _, spec := range req.Participants {
		p, err := s.builder.BuildParticipant(ctx, spec)
		if err != nil {
			s.recordError(err, "start_battle")
			return nil, err
		}
		participants = append(participants, p)
	}
	disambiguateMonsterIDs(participants)

	id := uuid.New()
	seed := req.Seed
	if seed == 0 {
		seed = binary.BigEndian.Uint64(id[:8])
	}
	now := s.now()
	b := &domain.Battle{
		ID:           id.String(),
		State:        domain.StatePending,
		Turn:         1,
		Field:        req.Field,
		Participants: participants,
		Stats:        make(map[string]*domain.ParticipantStats, len(participants)),
		Seed:         seed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, p := range participants {
		b.StatsFor(p.ID)
	}
	b.State = domain.StateActive
	b.TurnDeadline = now.Add(s.rules.Turn.Timeout)

	entry := &battleEntry{
		battle:  b,
		rng:     rng.New(seed),
		pending: make(map[string]pendingAction),
	}
	s.mu.Lock()
	s.battles[b.ID] = entry
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordBattleStarted(opponentKind(b), metrics.GetServiceName())
	}
	log.LogBattleEvent(ctx, s.logger, "battle_started", b.ID, b.Turn, map[string]interface{}{
		"participants": len(participants),
		"seed":         seed,
	})
	return b.Clone(), nil
}

func (s *BattleManagerService) validateRequest(req StartBattleRequest) error {
	teams := make(map[domain.Team]int)
	seen := make(map[string]bool)
	for _, spec := range req.Participants {
		if spec.ID == "" {
			return xerrors.NewInvalidArgumentError("participants.id", "参战方 ID 不能为空")
		}
		if seen[spec.ID] {
			return xerrors.NewInvalidArgumentError("participants.id", "参战方 ID 重复: "+spec.ID)
		}
		seen[spec.ID] = true
		switch spec.Kind {
		case domain.ControllerPlayer, domain.ControllerNPC, domain.ControllerWild:
		default:
			return xerrors.NewInvalidArgumentError("participants.kind", "未知的参战方类型: "+string(spec.Kind))
		}
		if spec.Team != domain.TeamPlayers && spec.Team != domain.TeamOpponents {
			return xerrors.NewInvalidArgumentError("participants.team", "未知的阵营: "+string(spec.Team))
		}
		if len(spec.MonsterIDs) == 0 {
			return xerrors.NewInvalidArgumentError("participants.monster_ids", "参战方至少需要一只怪兽")
		}
		teams[spec.Team]++
	}
	if teams[domain.TeamPlayers] == 0 || teams[domain.TeamOpponents] == 0 {
		return xerrors.NewInvalidArgumentError("participants", "双方阵营都至少需要一个参战方")
	}
	if _, err := domain.ParseWeather(string(req.Field.Weather)); err != nil {
		return xerrors.NewInvalidArgumentError("field.weather", err.Error())
	}
	if _, err := domain.ParseTerrain(string(req.Field.Terrain)); err != nil {
		return xerrors.NewInvalidArgumentError("field.terrain", err.Error())
	}
	return nil
}

// disambiguateMonsterIDs 同一只怪兽记录被多次使用时，为后出现的实例追加序号
func disambiguateMonsterIDs(participants []*domain.Participant) {
	seen := make(map[string]int)
	for _, p := range participants {
		for _, m := range p.Roster {
			n := seen[m.ID]
			seen[m.ID] = n + 1
			if n > 0 {
				m.ID = fmt.Sprintf("%s#%d", m.ID, n+1)
			}
		}
	}
}

func opponentKind(b *domain.Battle) string {
	if members := b.TeamMembers(domain.TeamOpponents); len(members) > 0 {
		return string(members[0].Kind)
	}
	return "unknown"
}

func (s *BattleManagerService) entry(battleID string) (*battleEntry, error) {
	s.mu.RLock()
	e, ok := s.battles[battleID]
	s.mu.RUnlock()
	if !ok {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	return e, nil
}

// SubmitAction 玩家提交本回合行动；所有玩家都提交后补齐 AI 行动并结算回合
func (s *BattleManagerService) SubmitAction(ctx context.Context, battleID string, action domain.Action) (*TurnReport, error) {
	e, err := s.entry(battleID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	report, err := s.submitLocked(ctx, e, action)
	e.mu.Unlock()
	if err != nil {
		s.recordError(err, "submit_action")
		if s.metrics != nil {
			s.metrics.RecordAction(string(action.Kind), "rejected", metrics.GetServiceName())
		}
		return nil, err
	}

	s.publish(ctx, report)
	return report, nil
}

func (s *BattleManagerService) submitLocked(ctx context.Context, e *battleEntry, a domain.Action) (*TurnReport, error) {
	b := e.battle
	if b.State != domain.StateActive {
		return nil, xerrors.NewBattleNotActiveError(b.ID, string(b.State))
	}
	p := b.Participant(a.ParticipantID)
	if p == nil {
		return nil, actionError(b, xerrors.CodeBattleActionInvalid, "unknown participant").
			WithMetadata("participant_id", a.ParticipantID)
	}
	if !p.IsHuman() {
		return nil, actionError(b, xerrors.CodeBattleActionInvalid, "participant is controlled by AI").
			WithMetadata("participant_id", p.ID)
	}
	if _, ok := e.pending[p.ID]; ok {
		return nil, actionError(b, xerrors.CodeBattleActionDuplicate, "").
			WithMetadata("participant_id", p.ID)
	}
	if err := s.actions.Validate(b, a); err != nil {
		return nil, err
	}

	e.seq++
	e.pending[p.ID] = pendingAction{action: a, seq: e.seq}
	b.UpdatedAt = s.now()

	if waiting := waitingHumans(e); len(waiting) > 0 {
		return &TurnReport{BattleID: b.ID, Turn: b.Turn, Pending: true, Waiting: waiting}, nil
	}
	return s.resolveTurn(ctx, e, false), nil
}

// waitingHumans 尚未提交行动的玩家
func waitingHumans(e *battleEntry) []string {
	var waiting []string
	for _, p := range e.battle.Participants {
		if !p.IsHuman() || p.Fled || p.IsDefeated() {
			continue
		}
		if _, ok := e.pending[p.ID]; !ok {
			waiting = append(waiting, p.ID)
		}
	}
	return waiting
}

// AdvanceTurn 立即结算当前回合，未提交行动的参战方由 AI 代为选择
func (s *BattleManagerService) AdvanceTurn(ctx context.Context, battleID string) (*TurnReport, error) {
	e, err := s.entry(battleID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.battle.State != domain.StateActive {
		state := e.battle.State
		e.mu.Unlock()
		return nil, xerrors.NewBattleNotActiveError(battleID, string(state))
	}
	report := s.resolveTurn(ctx, e, false)
	e.mu.Unlock()

	s.publish(ctx, report)
	return report, nil
}

// collectActions 汇总本回合行动：玩家按提交顺序在前，其余参战方按参战顺序由 AI 选择
func (s *BattleManagerService) collectActions(e *battleEntry, timeout bool) []domain.Action {
	b := e.battle
	submitted := make([]pendingAction, 0, len(e.pending))
	for _, pa := range e.pending {
		submitted = append(submitted, pa)
	}
	slices.SortFunc(submitted, func(x, y pendingAction) int { return x.seq - y.seq })

	actions := make([]domain.Action, 0, len(b.Participants))
	for _, pa := range submitted {
		actions = append(actions, pa.action)
	}

	fallbacks := 0
	for _, p := range b.Participants {
		if p.Fled || p.IsDefeated() {
			continue
		}
		if _, ok := e.pending[p.ID]; ok {
			continue
		}
		if p.IsHuman() && timeout {
			fallbacks++
		}
		actions = append(actions, s.fallbackAction(b, p, e.rng))
	}
	if fallbacks > 0 && s.metrics != nil {
		s.metrics.RecordTimeoutFallback(fallbacks, metrics.GetServiceName())
	}
	return actions
}

// fallbackAction AI 选择的行动无效时依次退回到第一个可用招式、挣扎
func (s *BattleManagerService) fallbackAction(b *domain.Battle, p *domain.Participant, r rng.Source) domain.Action {
	a := s.ai.SelectAction(b, p.ID, r)
	if s.actions.Validate(b, a) == nil {
		return a
	}
	s.logger.Warn("AI 选择的行动无效，使用后备行动",
		"battle_id", b.ID, "participant_id", p.ID, "kind", a.Kind, "move_id", a.MoveID)

	if actor := p.ActiveMonster(); actor != nil {
		for _, slot := range actor.Moves {
			candidate := domain.AttackAction(p.ID, slot.Move.ID, "")
			if s.actions.Validate(b, candidate) == nil {
				return candidate
			}
		}
	}
	return domain.StruggleAction(p.ID, "")
}

// resolveTurn 结算当前回合，调用方持有 e.mu
func (s *BattleManagerService) resolveTurn(ctx context.Context, e *battleEntry, timeout bool) *TurnReport {
	start := s.now()
	b := e.battle
	turn := b.Turn
	report := &TurnReport{BattleID: b.ID, Turn: turn}

	actions := s.collectActions(e, timeout)
	clear(e.pending)

	for _, m := range b.ActiveMonsters() {
		m.HasActed = false
		m.Protected = false
	}

	// 回合开始：睡眠、冰冻、麻痹、混乱
	incapacitated := make(map[string]bool)
	for _, m := range b.ActiveMonsters() {
		out := s.status.ProcessStartOfTurn(m, e.rng)
		if out.Skip {
			incapacitated[m.ID] = true
		}
		if len(out.Messages) == 0 && len(out.Removed) == 0 && out.SelfDamage == 0 {
			continue
		}
		res := domain.NewTurnResult(turn, domain.PhaseStartOfTurn)
		res.ActorID = m.ID
		res.Skipped = out.Skip
		res.Damage = out.SelfDamage
		for _, kind := range out.Removed {
			res.AddRemoved(m.ID, kind, "expired")
		}
		res.Log = append(res.Log, out.Messages...)
		if m.Fainted {
			res.AddFainted(m.ID)
		}
		report.Results = append(report.Results, res)
	}

	// 记录各参战方回合开始时的出场怪兽，被强制替换后原定招式作废
	starters := make(map[string]string, len(b.Participants))
	for _, p := range b.Participants {
		if m := p.ActiveMonster(); m != nil {
			starters[p.ID] = m.ID
		}
	}

	decided, _, _ := b.Decide()
	for _, a := range OrderActions(b, actions, s.status) {
		if decided {
			break
		}
		p := b.Participant(a.ParticipantID)
		actor := p.ActiveMonster()
		if p.Fled || actor == nil || !actor.CanBattle() {
			continue
		}
		if a.Kind.IsAttack() && starters[p.ID] != actor.ID {
			report.Results = append(report.Results, s.forcedOutResult(b, p, a, starters[p.ID]))
			s.recordAction(a.Kind, "skipped")
			continue
		}
		if a.Kind.IsAttack() && incapacitated[actor.ID] {
			s.recordAction(a.Kind, "skipped")
			continue
		}

		res, err := s.actions.Execute(b, s.actions.Retarget(b, a), e.rng)
		if err != nil {
			res = domain.NewTurnResult(turn, domain.PhaseAction)
			res.ActionKind = a.Kind
			res.ParticipantID = p.ID
			res.ActorID = actor.ID
			res.Failed = true
			if appErr, ok := xerrors.As(err); ok {
				res.Logf("%s 的行动失败：%s", actor.Name, appErr.Message)
			}
			s.recordAction(a.Kind, "rejected")
		} else if res.Skipped {
			s.recordAction(a.Kind, "skipped")
		} else {
			s.recordAction(a.Kind, "executed")
		}
		if res.Capture != nil && s.metrics != nil {
			s.metrics.RecordCapture(res.Capture.Success, metrics.GetServiceName())
		}
		report.Results = append(report.Results, res)
		decided, _, _ = b.Decide()
	}

	// 回合结束：持续伤害与回复，按速度顺序
	if !decided {
		lookup := func(id string) *domain.BattleMonster {
			_, m := b.FindMonster(id)
			return m
		}
		for _, m := range OrderBySpeed(b.ActiveMonsters(), s.status) {
			out := s.status.ProcessEndOfTurn(m, b.Field, lookup)
			if len(out.Messages) > 0 || len(out.Removed) > 0 {
				res := domain.NewTurnResult(turn, domain.PhaseEndOfTurn)
				res.ActorID = m.ID
				res.Damage = out.Damage
				res.Healing = out.Healing
				for _, kind := range out.Removed {
					res.AddRemoved(m.ID, kind, "expired")
				}
				res.Log = append(res.Log, out.Messages...)
				for _, t := range out.Transfers {
					res.Logf("%s 回复了 %d HP", t.MonsterID, t.Healing)
				}
				if out.Fainted {
					res.AddFainted(m.ID)
				}
				report.Results = append(report.Results, res)
			}
			if decided, _, _ = b.Decide(); decided {
				break
			}
		}
	}

	if !decided {
		if changes := b.Field.Tick(); len(changes) > 0 {
			res := domain.NewTurnResult(turn, domain.PhaseField)
			res.FieldChanges = changes
			for _, c := range changes {
				res.Logf("%s %s 结束了", c.Kind, c.Value)
			}
			report.Results = append(report.Results, res)
		}
		report.Results = append(report.Results, s.replaceFainted(b, turn)...)
	}

	if decided, winner, reason := b.Decide(); decided {
		report.End = s.finish(ctx, e, domain.StateCompleted, winner, reason)
	} else if turn >= s.rules.Turn.MaxTurns {
		report.End = s.finish(ctx, e, domain.StateCompleted, domain.TeamNone, domain.EndReasonTurnLimit)
	} else {
		now := s.now()
		b.Turn++
		b.UpdatedAt = now
		b.TurnDeadline = now.Add(s.rules.Turn.Timeout)
	}

	if s.metrics != nil {
		s.metrics.RecordTurn(s.now().Sub(start), metrics.GetServiceName())
	}
	return report
}

// forcedOutResult 出场怪兽在行动前被强制换下，原定招式作废
func (s *BattleManagerService) forcedOutResult(b *domain.Battle, p *domain.Participant, a domain.Action, starterID string) *domain.TurnResult {
	res := domain.NewTurnResult(b.Turn, domain.PhaseAction)
	res.ActionKind = a.Kind
	res.ParticipantID = p.ID
	res.ActorID = starterID
	res.MoveID = a.MoveID
	res.Skipped = true
	name := starterID
	if _, m := p.FindMonster(starterID); m != nil {
		name = m.Name
	}
	res.Logf("%s 已被换下，无法使用招式", name)
	s.logger.Debug("action skipped after forced switch",
		"battle_id", b.ID, "participant_id", p.ID, "monster_id", starterID, "move", a.MoveID)
	return res
}

// replaceFainted 倒下或被捕获的出场怪兽由队伍中下一只可战斗的怪兽替换
func (s *BattleManagerService) replaceFainted(b *domain.Battle, turn int) []*domain.TurnResult {
	var results []*domain.TurnResult
	for _, p := range b.Participants {
		if p.Fled {
			continue
		}
		current := p.ActiveMonster()
		if current != nil && current.CanBattle() {
			continue
		}
		next := p.NextHealthy()
		if next < 0 {
			continue
		}
		if current != nil {
			s.status.ResetOnSwitchOut(current)
		}
		p.Active = next
		incoming := p.Roster[next]

		res := domain.NewTurnResult(turn, domain.PhaseReplacement)
		res.ParticipantID = p.ID
		res.ActorID = incoming.ID
		res.Switched = true
		res.SwitchIn = incoming.ID
		res.Logf("%s 派出了 %s", p.Name, incoming.Name)
		results = append(results, res)
	}
	return results
}

// finish 结束战斗并计算奖励；战斗已处于终态时返回 nil，保证结束只处理一次
func (s *BattleManagerService) finish(ctx context.Context, e *battleEntry, state domain.State, winner domain.Team, reason domain.EndReason) *domain.BattleEndResult {
	b := e.battle
	if b.State.IsTerminal() {
		return nil
	}
	now := s.now()
	b.State = state
	b.Winner = winner
	b.EndReason = reason
	b.EndedAt = now
	b.UpdatedAt = now
	b.TurnDeadline = time.Time{}
	clear(e.pending)

	end := s.rewards.Compute(b)
	if s.metrics != nil {
		s.metrics.RecordBattleEnded(string(state), string(reason), metrics.GetServiceName())
	}
	log.LogBattleEvent(ctx, s.logger, "battle_ended", b.ID, b.Turn, map[string]interface{}{
		"state":      state,
		"winner":     winner,
		"reason":     reason,
		"experience": end.TotalExperience,
		"coins":      end.TotalCoins,
	})
	return end
}

// ForceEnd 强制结束战斗，不发放奖励，仍返回统计
func (s *BattleManagerService) ForceEnd(ctx context.Context, battleID, reason string) (*domain.BattleEndResult, error) {
	e, err := s.entry(battleID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.battle.State.IsTerminal() {
		state := e.battle.State
		e.mu.Unlock()
		return nil, xerrors.NewBattleNotActiveError(battleID, string(state))
	}
	end := s.finish(ctx, e, domain.StateCancelled, domain.TeamNone, domain.EndReasonForced)
	e.mu.Unlock()

	s.logger.InfoContext(ctx, "战斗被强制结束", "battle_id", battleID, "reason", reason)
	s.publish(ctx, &TurnReport{BattleID: battleID, End: end})
	return end, nil
}

// ExpireTurns 结算所有已超过回合时限的战斗，缺失的玩家行动由 AI 代为选择
// 各场战斗互不共享状态，并发处理
func (s *BattleManagerService) ExpireTurns(ctx context.Context, now time.Time) ([]*TurnReport, error) {
	s.mu.RLock()
	entries := make([]*battleEntry, 0, len(s.battles))
	for _, e := range s.battles {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var (
		mu      sync.Mutex
		reports []*TurnReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rules.Turn.ExpireConcurrency)
	for _, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.mu.Lock()
			b := e.battle
			if b.State != domain.StateActive || b.TurnDeadline.IsZero() || now.Before(b.TurnDeadline) {
				e.mu.Unlock()
				return nil
			}
			report := s.resolveTurn(gctx, e, true)
			e.mu.Unlock()

			s.publish(gctx, report)
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	slices.SortFunc(reports, func(x, y *TurnReport) int {
		if x.BattleID < y.BattleID {
			return -1
		}
		if x.BattleID > y.BattleID {
			return 1
		}
		return 0
	})
	return reports, err
}

// PruneEnded 移除结束时间早于 before 的战斗，返回移除数量
func (s *BattleManagerService) PruneEnded(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.battles {
		e.mu.Lock()
		ended := e.battle.State.IsTerminal() && e.battle.EndedAt.Before(before)
		e.mu.Unlock()
		if ended {
			delete(s.battles, id)
			removed++
		}
	}
	return removed
}

// GetBattle 返回战斗的深拷贝
func (s *BattleManagerService) GetBattle(ctx context.Context, battleID string) (*domain.Battle, error) {
	e, err := s.entry(battleID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.battle.Clone(), nil
}

// ActiveBattleCount 进行中的战斗数
func (s *BattleManagerService) ActiveBattleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.battles {
		e.mu.Lock()
		if e.battle.State == domain.StateActive {
			count++
		}
		e.mu.Unlock()
	}
	return count
}

// publish 在释放战斗锁之后调用输出协作方，失败只记录日志
func (s *BattleManagerService) publish(ctx context.Context, report *TurnReport) {
	if report == nil {
		return
	}
	if len(report.Results) > 0 {
		if err := s.logSink.PublishTurn(ctx, report.BattleID, report.Turn, report.Results); err != nil {
			s.logger.Error("发布回合结果失败", err, "battle_id", report.BattleID, "turn", report.Turn)
			s.recordError(xerrors.Wrap(err, xerrors.CodeMessageQueueError, "发布回合结果失败"), "publish_turn")
		}
	}
	if report.End != nil {
		if err := s.resultSink.PublishEnd(ctx, report.End); err != nil {
			s.logger.Error("发布战斗结算失败", err, "battle_id", report.BattleID)
			s.recordError(xerrors.Wrap(err, xerrors.CodeMessageQueueError, "发布战斗结算失败"), "publish_end")
		}
	}
}

func (s *BattleManagerService) recordAction(kind domain.ActionKind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAction(string(kind), outcome, metrics.GetServiceName())
	}
}

func (s *BattleManagerService) recordError(err error, operation string) {
	if s.errorMetrics == nil || err == nil {
		return
	}
	if appErr, ok := xerrors.As(err); ok {
		s.errorMetrics.RecordError(appErr, operation, metrics.GetServiceName())
	}
}
