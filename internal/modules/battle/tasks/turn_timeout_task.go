package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"tsu-battle/internal/modules/battle/service"
	"tsu-battle/internal/pkg/log"
)

// DefaultTurnTimeoutSpec 每 5 秒检查一次回合超时
// Cron 表达式: 秒 分 时 日 月 周
const DefaultTurnTimeoutSpec = "*/5 * * * * *"

// TurnExpirer 回合超时结算
type TurnExpirer interface {
	ExpireTurns(ctx context.Context, now time.Time) ([]*service.TurnReport, error)
}

// TurnTimeoutTask 回合超时定时任务
// 超过回合时限仍未提交行动的玩家由 AI 代为选择，并立即结算该回合
type TurnTimeoutTask struct {
	expirer TurnExpirer
	spec    string
	logger  log.Logger
	cron    *cron.Cron
	now     func() time.Time
}

// NewTurnTimeoutTask 创建回合超时任务，spec 为空时使用默认调度
func NewTurnTimeoutTask(expirer TurnExpirer, spec string, logger log.Logger) *TurnTimeoutTask {
	if spec == "" {
		spec = DefaultTurnTimeoutSpec
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &TurnTimeoutTask{
		expirer: expirer,
		spec:    spec,
		logger:  logger,
		now:     time.Now,
	}
}

// Start 启动定时任务
func (t *TurnTimeoutTask) Start() error {
	t.cron = cron.New(cron.WithSeconds())

	_, err := t.cron.AddFunc(t.spec, func() {
		t.RunOnce(context.Background())
	})
	if err != nil {
		t.logger.Error("【战斗定时任务】添加回合超时任务失败", err, "spec", t.spec)
		return err
	}

	t.cron.Start()
	t.logger.Info("【战斗定时任务】回合超时任务已启动", "spec", t.spec)
	return nil
}

// RunOnce 执行一次超时检查，返回结算的回合数
func (t *TurnTimeoutTask) RunOnce(ctx context.Context) int {
	reports, err := t.expirer.ExpireTurns(ctx, t.now())
	if err != nil {
		t.logger.Error("【战斗定时任务】回合超时结算失败", err)
	}

	ended := 0
	for _, r := range reports {
		if r.End != nil {
			ended++
		}
	}
	if len(reports) > 0 {
		t.logger.Info("【战斗定时任务】超时回合已结算",
			"resolved_count", len(reports),
			"ended_count", ended,
			"timestamp", t.now().Format("2006-01-02 15:04:05"))
	} else {
		t.logger.Debug("【战斗定时任务】没有超时的回合")
	}
	return len(reports)
}

// Stop 停止定时任务（优雅关闭）
func (t *TurnTimeoutTask) Stop() {
	if t.cron != nil {
		t.logger.Info("【战斗定时任务】正在停止回合超时任务...")
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【战斗定时任务】回合超时任务已停止")
	}
}
