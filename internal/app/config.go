// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/folio-lifecycle-service/internal/dao"
	"github.com/haierkeys/folio-lifecycle-service/internal/service"
	"github.com/haierkeys/folio-lifecycle-service/pkg/locker"
	"github.com/haierkeys/folio-lifecycle-service/pkg/logger"
	"github.com/haierkeys/folio-lifecycle-service/pkg/util"
	"github.com/haierkeys/folio-lifecycle-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string         `yaml:"-"` // 配置文件路径，不序列化
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	App      AppSettings    `yaml:"app"`
	Lock     LockConfig     `yaml:"lock"`
	Redis    RedisConfig    `yaml:"redis"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型：sqlite、mysql、postgres、memory
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path string `yaml:"path" default:"storage/database/folio.sqlite3"`
	// UserName 用户名
	UserName string `yaml:"username"`
	// Password 密码
	Password string `yaml:"password"`
	// Host 主机，host:port
	Host string `yaml:"host"`
	// Name 数据库名
	Name string `yaml:"name"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate 是否启用自动迁移
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset MySQL 字符集
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime 是否解析时间
	ParseTime bool `yaml:"parse-time" default:"true"`
	// SSLMode PostgreSQL sslmode
	SSLMode string `yaml:"ssl-mode" default:"disable"`
	// RunMode debug 时输出 SQL 日志
	RunMode string `yaml:"run-mode" default:"release"`
	// MaxIdleConns 最大闲置连接数，默认 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数，默认 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期，支持格式：30m（分钟）、1h（小时），默认 30m
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期，默认 10m
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// AppSettings 应用设置
type AppSettings struct {
	// PublicURLPrefix 公开地址前缀，后接作品集别名
	PublicURLPrefix string `yaml:"public-url-prefix" default:"http://localhost:3000/p/"`
	// OperationTimeout 单次操作超时，支持格式：10s、1m
	OperationTimeout string `yaml:"operation-timeout" default:"10s"`
	// ConflictRetries 修订号冲突后的重试次数
	ConflictRetries int `yaml:"conflict-retries" default:"5"`
	// SlugMaxAttempts 别名被并发占用时的插入尝试次数
	SlugMaxAttempts int `yaml:"slug-max-attempts" default:"5"`
	// SlugMaxProbe 探测的最大数字后缀
	SlugMaxProbe int `yaml:"slug-max-probe" default:"1000"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// LockConfig 别名锁配置
type LockConfig struct {
	// Driver local 为进程内锁，redis 为跨实例锁
	Driver string `yaml:"driver" default:"local"`
	// Prefix Redis 键前缀
	Prefix string `yaml:"prefix" default:"folio:lock:"`
	// TTL 锁自动过期时间
	TTL string `yaml:"ttl" default:"10s"`
	// RetryInterval 获取锁失败后的重试间隔
	RetryInterval string `yaml:"retry-interval" default:"50ms"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"127.0.0.1:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	// keys absent from the file keep their defaults, explicit false and 0 are honoured
	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	if err := c.validate(); err != nil {
		return nil, realpath, err
	}
	return c, realpath, nil
}

func (c *AppConfig) validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql", "postgres", "memory":
	default:
		return errors.Errorf("database.type %q is not one of sqlite, mysql, postgres, memory", c.Database.Type)
	}
	switch c.Lock.Driver {
	case "local", "redis":
	default:
		return errors.Errorf("lock.driver %q is not one of local, redis", c.Lock.Driver)
	}
	if _, err := util.ParseDuration(c.App.OperationTimeout); err != nil {
		return errors.Wrap(err, "app.operation-timeout")
	}
	return nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

func durationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	if d, err := util.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return fallback
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetDatabaseConfig 获取 DAO 层数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Name:            c.Database.Name,
		TablePrefix:     c.Database.TablePrefix,
		AutoMigrate:     c.Database.AutoMigrate,
		Charset:         c.Database.Charset,
		ParseTime:       c.Database.ParseTime,
		SSLMode:         c.Database.SSLMode,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: durationOr(c.Database.ConnMaxLifetime, 30*time.Minute),
		ConnMaxIdleTime: durationOr(c.Database.ConnMaxIdleTime, 10*time.Minute),
		RunMode:         c.Database.RunMode,
	}
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	cfg.WriteTimeout = durationOr(c.App.WriteQueueTimeout, cfg.WriteTimeout)
	cfg.IdleTimeout = durationOr(c.App.WriteQueueIdleTime, cfg.IdleTimeout)
	return cfg
}

// GetServiceConfig 获取服务层配置
func (c *AppConfig) GetServiceConfig() *service.ServiceConfig {
	d := service.DefaultServiceConfig()
	return &service.ServiceConfig{
		PublicURLPrefix:  c.App.PublicURLPrefix,
		OperationTimeout: durationOr(c.App.OperationTimeout, d.OperationTimeout),
		ConflictRetries:  c.App.ConflictRetries,
		SlugMaxAttempts:  c.App.SlugMaxAttempts,
		SlugMaxProbe:     c.App.SlugMaxProbe,
	}
}

// GetRedisLockConfig 获取 Redis 锁配置
func (c *AppConfig) GetRedisLockConfig() locker.RedisConfig {
	return locker.RedisConfig{
		Prefix:        c.Lock.Prefix,
		TTL:           durationOr(c.Lock.TTL, 10*time.Second),
		RetryInterval: durationOr(c.Lock.RetryInterval, 50*time.Millisecond),
	}
}
