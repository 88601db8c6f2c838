package app

import (
	"context"
	"fmt"

	"github.com/nexdoc/doc-persist-service/internal/dao"
	"github.com/nexdoc/doc-persist-service/internal/domain"
	"github.com/nexdoc/doc-persist-service/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// Repository 层
	DocumentRepo  domain.DocumentRepository
	VersionRepo   domain.VersionRepository
	OperationRepo domain.OperationRepository

	// Service 层
	StorageService service.DocumentStorageService
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入，存储服务的 worker 随容器创建启动
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config: cfg,
		logger: logger,
		DB:     db,
	}

	a.Dao = dao.New(db, logger)

	// Repository 层
	a.DocumentRepo = dao.NewDocumentRepository(a.Dao)
	a.VersionRepo = dao.NewVersionRepository(a.Dao)
	a.OperationRepo = dao.NewOperationRepository(a.Dao)

	// Service 层
	a.StorageService = service.NewDocumentStorageService(
		a.DocumentRepo,
		a.VersionRepo,
		a.OperationRepo,
		cfg.GetSavePolicyConfig(),
		logger,
	)

	logger.Info("App container initialized successfully",
		zap.String("database", cfg.Database.Type),
		zap.String("saveInterval", cfg.Save.Interval),
		zap.Int("operationKeepCount", cfg.Save.OperationKeepCount))

	return a, nil
}

// Shutdown 排空保存队列并释放资源
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.StorageService.Shutdown(ctx); err != nil {
		return fmt.Errorf("storage service shutdown failed: %w", err)
	}

	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// VersionInfo 获取版本信息
func (a *App) VersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}
