package cmd

import (
	"os"
	"path/filepath"

	internalApp "github.com/haierkeys/folio-lifecycle-service/internal/app"
	"github.com/haierkeys/folio-lifecycle-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bootstrapLogger logs startup before the configured logger exists
// bootstrapLogger 在配置的日志器就绪之前记录启动日志
var bootstrapLogger = newBootstrapLogger()

func newBootstrapLogger() *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// DEBUG 环境变量开启调试级别
	level := zapcore.InfoLevel
	if os.Getenv("DEBUG") != "" {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}

// resolveConfig finds the config file, writing the embedded default when none exists
// resolveConfig 查找配置文件，不存在时写出内置默认配置
func resolveConfig(f *rootFlags) (string, error) {
	if f.dir != "" {
		if err := os.Chdir(f.dir); err != nil {
			return "", errors.Wrap(err, "change working directory")
		}
		bootstrapLogger.Debug("working directory changed", zap.String("dir", f.dir))
	}
	if f.config != "" {
		return f.config, nil
	}
	for _, candidate := range []string{"config/config-dev.yaml", "config.yaml", "config/config.yaml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	path := "config/config.yaml"
	bootstrapLogger.Warn("config file not found, creating default config", zap.String("path", path))
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", errors.Wrap(err, "config file auto create error")
	}
	if err := os.WriteFile(path, []byte(configDefault), 0644); err != nil {
		return "", errors.Wrap(err, "config file auto create writing error")
	}
	return path, nil
}

// openApp loads configuration and builds the application container
// openApp 加载配置并构建应用容器
func openApp() (*internalApp.App, func(), error) {
	path, err := resolveConfig(globalFlags)
	if err != nil {
		return nil, nil, err
	}
	cfg, realpath, err := internalApp.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(cfg.GetLoggerConfig())
	if err != nil {
		return nil, nil, err
	}
	log.Debug("config loaded", zap.String("file", realpath))

	db, err := internalApp.OpenDatabase(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	a, err := internalApp.NewApp(cfg, log, db)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			log.Error("app close failed", zap.Error(err))
		}
		_ = log.Sync()
	}
	return a, cleanup, nil
}
