// Package logging constructs the service logger. Structured log messages are
// produced through ectologger and sunk into a zap core so output matches the
// rest of the platform.
package logging

import (
	"encoding/json"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds an ectologger backed by zap. The returned flush function should
// be deferred from main.
func New(level string, pretty bool) (ectologger.Logger, func(), error) {
	var zcfg zap.Config
	if pretty {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zlog, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		b, err := json.Marshal(msg)
		if err != nil {
			zlog.Error("failed to encode log message", zap.Error(err))
			return
		}

		var envelope struct {
			Level string `json:"level"`
		}
		_ = json.Unmarshal(b, &envelope)

		entry := string(b)
		switch strings.ToLower(envelope.Level) {
		case "debug":
			zlog.Debug(entry)
		case "warn", "warning":
			zlog.Warn(entry)
		case "error", "fatal":
			zlog.Error(entry)
		default:
			zlog.Info(entry)
		}
	})

	flush := func() { _ = zlog.Sync() }
	return logger, flush, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
