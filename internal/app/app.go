// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/dao"
	"github.com/haierkeys/folio-lifecycle-service/internal/dao/memstore"
	"github.com/haierkeys/folio-lifecycle-service/internal/domain"
	"github.com/haierkeys/folio-lifecycle-service/internal/service"
	"github.com/haierkeys/folio-lifecycle-service/pkg/locker"
	"github.com/haierkeys/folio-lifecycle-service/pkg/metrics"
	"github.com/haierkeys/folio-lifecycle-service/pkg/writequeue"

	"github.com/redis/go-redis/v9"
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

	// 并发控制组件
	writeQueueMgr *writequeue.Manager
	redisClient   *redis.Client
	Locker        locker.Locker
	Metrics       *metrics.Metrics

	// Repository 层
	PortfolioRepo domain.PortfolioRepository
	TemplateRepo  domain.TemplateRepository

	// Service 层
	PortfolioService service.PortfolioService
	TemplateService  service.TemplateService
}

// OpenDatabase opens the configured database, the memory store needs none
// OpenDatabase 打开配置的数据库，内存存储返回 nil
func OpenDatabase(cfg *AppConfig) (*gorm.DB, error) {
	if cfg.Database.Type == "memory" {
		return nil, nil
	}
	return dao.NewDBEngine(cfg.GetDatabaseConfig())
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接，database.type 为 memory 时可为 nil
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil && cfg.Database.Type != "memory" {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:  cfg,
		logger:  logger,
		DB:      db,
		Metrics: metrics.New(),
	}

	// 初始化 Repository 层
	if db != nil {
		wqConfig := cfg.GetWriteQueueConfig()
		a.writeQueueMgr = writequeue.New(&wqConfig, logger)

		dbConfig := cfg.GetDatabaseConfig()
		a.Dao = dao.New(db, context.Background(),
			dao.WithConfig(&dbConfig),
			dao.WithLogger(logger),
			dao.WithWriteQueueManager(a.writeQueueMgr),
		)
		a.PortfolioRepo = dao.NewPortfolioRepository(a.Dao)
		a.TemplateRepo = dao.NewTemplateRepository(a.Dao)
	} else {
		store := memstore.New()
		a.PortfolioRepo = store.Portfolios()
		a.TemplateRepo = store.Templates()
	}

	// 初始化别名锁
	switch cfg.Lock.Driver {
	case "redis":
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect redis %s: %w", cfg.Redis.Addr, err)
		}
		a.Locker = locker.NewRedis(a.redisClient, cfg.GetRedisLockConfig(), logger)
	default:
		a.Locker = locker.NewLocal()
	}

	// 初始化 Service 层（依赖注入）
	svcConfig := cfg.GetServiceConfig()
	a.PortfolioService = service.NewPortfolioService(a.PortfolioRepo, a.TemplateRepo, a.Locker, a.Metrics, logger, svcConfig)
	a.TemplateService = service.NewTemplateService(a.TemplateRepo, a.Locker, a.Metrics, logger, svcConfig)

	logger.Info("App container initialized successfully",
		zap.String("database", cfg.Database.Type),
		zap.String("lockDriver", cfg.Lock.Driver))

	return a, nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.writeQueueMgr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue shutdown incomplete", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
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

// Migrate 创建或更新数据表，内存存储无需迁移
func (a *App) Migrate() error {
	if a.Dao == nil {
		return nil
	}
	return a.Dao.Migrate()
}
