package core

import (
	"os"

	"go.lumeweb.com/passreset/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
	level *zap.AtomicLevel
	cm    config.Manager
}

// NewLogger builds a console logger. Until the config is loaded it logs at debug level.
func NewLogger(cm config.Manager) *Logger {
	atomicLevel := zap.NewAtomicLevelAt(zapcore.DebugLevel)

	zapLogger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		atomicLevel,
	), zap.AddCaller())

	logger := &Logger{
		Logger: zapLogger,
		level:  &atomicLevel,
		cm:     cm,
	}

	logger.SetLevelFromConfig()

	return logger
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	atomicLevel := zap.NewAtomicLevelAt(zapcore.ErrorLevel)

	return &Logger{
		Logger: zap.NewNop(),
		level:  &atomicLevel,
	}
}

func (l *Logger) SetLevelFromConfig() {
	if l.cm != nil && l.cm.Config() != nil {
		l.level.SetLevel(mapLogLevel(l.cm.Config().Core.Log.Level))
	}
}

func (l *Logger) Level() *zap.AtomicLevel {
	return l.level
}

func mapLogLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
