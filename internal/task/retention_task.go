package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SubmissionPurger 提交记录清理
type SubmissionPurger interface {
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// RetentionTask 按保留期删除提交审计记录
type RetentionTask struct {
	purger    SubmissionPurger
	retention time.Duration
	spec      string
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
}

func NewRetentionTask(purger SubmissionPurger, retention time.Duration, spec string, log *zap.Logger) *RetentionTask {
	return &RetentionTask{
		purger:    purger,
		retention: retention,
		spec:      spec,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
		log:       log,
	}
}

// Start 启动定时任务
func (t *RetentionTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := t.PurgeNow(ctx); err != nil {
			t.log.Error("[Cron] 清理提交记录失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	t.cron.Start()
	t.log.Info("提交记录清理任务已启动", zap.String("spec", t.spec), zap.Duration("retention", t.retention))
	return nil
}

// Stop 停止并等待执行中的任务结束
func (t *RetentionTask) Stop() {
	<-t.cron.Stop().Done()
	t.log.Info("提交记录清理任务已停止")
}

// PurgeNow 立即清理一次
func (t *RetentionTask) PurgeNow(ctx context.Context) (int64, error) {
	n, err := t.purger.PurgeBefore(ctx, t.now().Add(-t.retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.log.Info("[Cron] 已清理过期提交记录", zap.Int64("count", n))
	}
	return n, nil
}
