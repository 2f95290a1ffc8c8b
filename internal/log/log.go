// Package log builds the process-wide zap logger.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeFormat = "2006-01-02 15:04:05.999"

// New builds a console-encoded zap logger at the given level. An
// unparseable level falls back to info.
func New(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	config.DisableStacktrace = true
	config.Sampling = nil

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		config.Level = lvl
	}

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
