package task

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweeper 表单会话清理
type SessionSweeper interface {
	SweepExpired() int
	ActiveSessions() int
}

// LimiterPruner 限流记录清理
type LimiterPruner interface {
	Prune(interval time.Duration) int
}

// SessionSweepTask 定时清理空闲过期的表单会话和提交冷却记录
type SessionSweepTask struct {
	sweeper  SessionSweeper
	limiter  LimiterPruner
	cooldown time.Duration
	spec     string
	cron     *cron.Cron
	log      *zap.Logger
}

// NewSessionSweepTask limiter 可为 nil
func NewSessionSweepTask(sweeper SessionSweeper, limiter LimiterPruner, cooldown time.Duration, spec string, log *zap.Logger) *SessionSweepTask {
	return &SessionSweepTask{
		sweeper:  sweeper,
		limiter:  limiter,
		cooldown: cooldown,
		spec:     spec,
		cron:     cron.New(cron.WithSeconds()), // 支持秒级控制
		log:      log,
	}
}

// Start 启动定时任务
func (t *SessionSweepTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, func() { t.SweepNow() }); err != nil {
		return err
	}
	t.cron.Start()
	t.log.Info("表单会话清理任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止并等待执行中的任务结束
func (t *SessionSweepTask) Stop() {
	<-t.cron.Stop().Done()
	t.log.Info("表单会话清理任务已停止")
}

// SweepNow 立即执行一次，返回清理的会话数
func (t *SessionSweepTask) SweepNow() int {
	removed := t.sweeper.SweepExpired()
	pruned := 0
	if t.limiter != nil {
		pruned = t.limiter.Prune(t.cooldown)
	}
	if removed > 0 || pruned > 0 {
		t.log.Info("[Cron] 清理过期表单会话",
			zap.Int("removed", removed),
			zap.Int("pruned_cooldowns", pruned),
			zap.Int("active", t.sweeper.ActiveSessions()),
		)
	}
	return removed
}
