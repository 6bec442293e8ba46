package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ricirt/motor-health-api/internal/config"
)

// New builds the production JSON logger. Output always goes to stdout; when
// LogFile is set it is also written to a size-rotated file. The returned
// close func releases that file and must run after the final Sync.
func New(cfg *config.Config) (*zap.Logger, func() error, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	closeFn := func() error { return nil }
	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stdout)}
	if cfg.LogFile != "" {
		rotating := RotatingFile(cfg)
		sinks = append(sinks, zapcore.AddSync(rotating))
		closeFn = rotating.Close
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), closeFn, nil
}

// RotatingFile returns the lumberjack writer configured from cfg.
func RotatingFile(cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
		Compress:   true,
	}
}
