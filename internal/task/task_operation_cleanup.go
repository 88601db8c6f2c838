package task

import (
	"context"
	"fmt"
	"time"

	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/service"
	"github.com/nexdoc/doc-persist-service/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupConfig 操作日志清理任务配置
type CleanupConfig struct {
	Enabled        bool
	KeepCount      int
	CronStrategy   string // daily / weekly / monthly / custom
	CronExpression string // CronStrategy 为 custom 时生效
}

// OperationCleanupTask 按计划清理超出保留窗口的操作日志
type OperationCleanupTask struct {
	storage  service.DocumentStorageService
	opRepo   domain.OperationRepository
	cfg      CleanupConfig
	schedule cron.Schedule
	logger   *zap.Logger
}

// Name 返回任务名称
func (t *OperationCleanupTask) Name() string {
	return "OperationCleanup"
}

// LoopInterval 返回 0，执行节奏由 Run 内部的 cron 计划控制
func (t *OperationCleanupTask) LoopInterval() time.Duration {
	return 0
}

// IsStartupRun 返回 true，任务启动后立即进入 Run 循环
func (t *OperationCleanupTask) IsStartupRun() bool {
	return true
}

// Run 等待下一个计划时刻并执行清理，直到上下文取消
func (t *OperationCleanupTask) Run(ctx context.Context) error {
	for {
		next := t.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			t.prune(ctx)
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// prune 遍历超出保留窗口的文档并清理
func (t *OperationCleanupTask) prune(ctx context.Context) {
	ids, err := t.opRepo.ListDocumentIDsExceeding(ctx, t.cfg.KeepCount)
	if err != nil {
		t.logger.Error("cleanup scan failed", zap.Error(err))
		return
	}

	var total int64
	for _, id := range ids {
		deleted, err := t.storage.CleanupOperations(ctx, id, t.cfg.KeepCount)
		if err != nil {
			t.logger.Error("cleanup failed",
				zap.Int64(logger.FieldDocumentID, id),
				zap.Error(err))
			continue
		}
		total += deleted
	}

	t.logger.Info("operation cleanup finished",
		zap.Int("documents", len(ids)),
		zap.Int64("deleted", total))
}

// cronSchedule 将策略解析为 cron 计划
func cronSchedule(cfg CleanupConfig) (cron.Schedule, error) {
	expr := ""
	switch cfg.CronStrategy {
	case "daily", "":
		expr = "0 0 * * *" // 每日零点
	case "weekly":
		expr = "0 0 * * 0" // 每周日零点
	case "monthly":
		expr = "0 0 1 * *" // 每月一日零点
	case "custom":
		expr = cfg.CronExpression
	default:
		return nil, fmt.Errorf("unknown cron strategy: %s", cfg.CronStrategy)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// NewOperationCleanupTask 创建操作日志清理任务
// 配置未启用时返回 nil
func NewOperationCleanupTask(deps *Deps) (Task, error) {
	if !deps.Cleanup.Enabled {
		return nil, nil
	}

	cfg := deps.Cleanup
	if cfg.KeepCount <= 0 {
		cfg.KeepCount = service.DefaultOperationKeepCount
	}

	schedule, err := cronSchedule(cfg)
	if err != nil {
		return nil, err
	}

	return &OperationCleanupTask{
		storage:  deps.Storage,
		opRepo:   deps.OpRepo,
		cfg:      cfg,
		schedule: schedule,
		logger:   deps.Logger,
	}, nil
}

func init() {
	Register(NewOperationCleanupTask)
}
