package task

import (
	"github.com/nexdoc/doc-persist-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	deps      *Deps
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(deps *Deps, sc *safe_close.SafeClose) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Manager{
		scheduler: NewScheduler(deps.Logger, sc),
		deps:      deps,
		logger:    deps.Logger,
	}
}

// RegisterTasks 通过注册表创建所有任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.deps)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			// 工厂返回 nil 表示该任务在当前配置下被禁用
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
