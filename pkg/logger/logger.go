// Package logger 提供 zap 日志器构建与统一字段命名
package logger

import (
	"os"

	"github.com/nexdoc/doc-persist-service/pkg/fileurl"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config logger configuration
// Config 日志配置
type Config struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string
	// File 日志文件路径，为空时输出到 stderr
	File string
	// Production 是否启用 JSON 输出
	Production bool
}

// NewLogger creates the main logger from config
// NewLogger 根据配置创建主日志器
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var ws zapcore.WriteSyncer
	if cfg.File != "" {
		if !fileurl.IsExist(cfg.File) {
			if err := fileurl.CreatePath(cfg.File, os.ModePerm); err != nil {
				return nil, err
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		ws = zapcore.Lock(f)
	} else {
		ws = zapcore.Lock(os.Stderr)
	}

	var encoder zapcore.Encoder
	if cfg.Production {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, ws, level)
	return zap.New(core, zap.AddCaller()), nil
}
