// Package dao 实现数据访问层
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/model"
	"github.com/haierkeys/folio-lifecycle-service/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string // sqlite | mysql | postgres
	Path            string // SQLite 数据库文件路径
	UserName        string
	Password        string
	Host            string // host:port
	Name            string
	TablePrefix     string
	AutoMigrate     bool
	Charset         string
	ParseTime       bool
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RunMode         string
}

// Dao wraps the gorm engine shared by all repositories
// Dao 封装所有仓储共享的 gorm 引擎
type Dao struct {
	db         *gorm.DB
	ctx        context.Context
	config     *DatabaseConfig
	logger     *zap.Logger
	writeQueue *writequeue.Manager
}

// Option Dao 可选项
type Option func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(c *DatabaseConfig) Option {
	return func(d *Dao) { d.config = c }
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) Option {
	return func(d *Dao) { d.logger = l }
}

// WithWriteQueueManager sets the queue that serializes sqlite writes
// WithWriteQueueManager 设置用于串行化 SQLite 写操作的写队列
func WithWriteQueueManager(m *writequeue.Manager) Option {
	return func(d *Dao) { d.writeQueue = m }
}

// New 创建 Dao
func New(db *gorm.DB, ctx context.Context, opts ...Option) *Dao {
	d := &Dao{db: db, ctx: ctx, config: &DatabaseConfig{}}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

func (d *Dao) DB() *gorm.DB {
	return d.db
}

func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// Migrate creates or updates every table
// Migrate 创建或更新全部数据表
func (d *Dao) Migrate() error {
	return model.AutoMigrateAll(d.db.WithContext(d.ctx))
}

// ExecuteWrite runs fn inside a transaction; on sqlite writes of one collection go through the write queue
// ExecuteWrite 在事务中执行 fn；SQLite 下同一集合的写操作经写队列串行执行
func (d *Dao) ExecuteWrite(ctx context.Context, collection string, fn func(tx *gorm.DB) error) error {
	run := func() error {
		return d.db.WithContext(ctx).Transaction(fn)
	}
	if d.writeQueue == nil || d.config.Type != "sqlite" {
		return run()
	}
	return d.writeQueue.Execute(ctx, collection, run)
}

// NewDBEngine opens the configured database
// NewDBEngine 打开配置的数据库
func NewDBEngine(c DatabaseConfig) (*gorm.DB, error) {
	dialector, err := userDialector(c)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀，`Portfolio` 的表名应该是 `t_portfolio`
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s database", c.Type)
	}
	if c.RunMode == "debug" {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	}

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	if c.AutoMigrate {
		if err := model.AutoMigrateAll(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func userDialector(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=UTC",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			charset,
			c.ParseTime,
		)), nil
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.UserName, c.Password),
			Host:     c.Host,
			Path:     "/" + c.Name,
			RawQuery: "sslmode=" + sslMode + "&TimeZone=UTC",
		}
		return postgres.Open(dsn.String()), nil
	case "sqlite":
		if dir := filepath.Dir(c.Path); dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return nil, pkgerrors.Wrap(err, "create sqlite directory")
			}
		}
		return sqlite.Open(c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), nil
	}
	return nil, pkgerrors.Errorf("unsupported database type %q", c.Type)
}

// isDuplicateKey reports unique constraint violations, translated or raw
// isDuplicateKey 判断是否为唯一约束冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
