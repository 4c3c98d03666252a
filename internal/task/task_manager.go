package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	sweepTask     *SessionSweepTask
	retentionTask *RetentionTask
	log           *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Sessions    SessionSweeper
	Limiter     LimiterPruner
	Submissions SubmissionPurger
	Log         *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	// 表单会话清理
	SweepEnabled   bool
	SweepSpec      string
	SubmitCooldown time.Duration

	// 提交记录保留
	RetentionEnabled bool
	RetentionSpec    string
	Retention        time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		SweepEnabled:   true,
		SweepSpec:      "0 */5 * * * *",
		SubmitCooldown: 3 * time.Second,

		RetentionEnabled: true,
		RetentionSpec:    "0 30 3 * * *",
		Retention:        90 * 24 * time.Hour,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	tm := &TaskManager{log: log}
	if cfg.SweepEnabled && deps.Sessions != nil {
		tm.sweepTask = NewSessionSweepTask(deps.Sessions, deps.Limiter, cfg.SubmitCooldown, cfg.SweepSpec, log)
	}
	if cfg.RetentionEnabled && deps.Submissions != nil && cfg.Retention > 0 {
		tm.retentionTask = NewRetentionTask(deps.Submissions, cfg.Retention, cfg.RetentionSpec, log)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.log.Info("[TaskManager] 正在启动后台任务...")
	if tm.sweepTask != nil {
		if err := tm.sweepTask.Start(); err != nil {
			return err
		}
	}
	if tm.retentionTask != nil {
		if err := tm.retentionTask.Start(); err != nil {
			tm.Stop()
			return err
		}
	}
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.sweepTask != nil {
		tm.sweepTask.Stop()
	}
	if tm.retentionTask != nil {
		tm.retentionTask.Stop()
	}
	tm.log.Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerSweep 立即清理表单会话
func (tm *TaskManager) TriggerSweep() (int, error) {
	if tm.sweepTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.sweepTask.SweepNow(), nil
}

// TriggerRetention 立即清理提交记录
func (tm *TaskManager) TriggerRetention(ctx context.Context) (int64, error) {
	if tm.retentionTask == nil {
		return 0, ErrTaskDisabled
	}
	return tm.retentionTask.PurgeNow(ctx)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"session_sweep": tm.sweepTask != nil,
		"retention":     tm.retentionTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
