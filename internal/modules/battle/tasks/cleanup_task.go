package tasks

import (
	"time"

	"github.com/robfig/cron/v3"

	"tsu-battle/internal/pkg/log"
)

// BattlePruner 清理已结束的战斗
type BattlePruner interface {
	PruneEnded(before time.Time) int
}

// CleanupTask 已结束战斗的定时清理
type CleanupTask struct {
	pruner    BattlePruner
	retention time.Duration
	logger    log.Logger
	cron      *cron.Cron
	now       func() time.Time
}

// NewCleanupTask 创建清理任务，结束时间超过 retention 的战斗会被移出内存
func NewCleanupTask(pruner BattlePruner, retention time.Duration, logger log.Logger) *CleanupTask {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &CleanupTask{
		pruner:    pruner,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start 启动定时任务
func (t *CleanupTask) Start() error {
	t.cron = cron.New(cron.WithSeconds())

	// 每分钟的第 0 秒执行
	_, err := t.cron.AddFunc("0 * * * * *", func() {
		t.RunOnce()
	})
	if err != nil {
		t.logger.Error("【战斗定时任务】添加清理任务失败", err)
		return err
	}

	t.cron.Start()
	t.logger.Info("【战斗定时任务】已启动 - 每分钟清理已结束的战斗", "retention", t.retention.String())
	return nil
}

// RunOnce 执行一次清理，返回清理数量
func (t *CleanupTask) RunOnce() int {
	removed := t.pruner.PruneEnded(t.now().Add(-t.retention))
	if removed > 0 {
		t.logger.Info("【战斗定时任务】已结束战斗清理成功", "deleted_count", removed)
	}
	return removed
}

// Stop 停止定时任务（优雅关闭）
func (t *CleanupTask) Stop() {
	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【战斗定时任务】清理任务已停止")
	}
}
