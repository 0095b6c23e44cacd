package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 按配置构建 zap logger。
// dev 模式走彩色 console 编码，否则走 JSON 生产编码。
func New(level string, dev bool) (*zap.Logger, error) {
	var cfg zap.Config

	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.InitialFields = map[string]any{
		"service": "soccentral",
	}

	return cfg.Build()
}

// Must 构建失败直接 panic，只在进程启动期调用
func Must(level string, dev bool) *zap.Logger {
	logger, err := New(level, dev)
	if err != nil {
		panic(err)
	}
	return logger
}
