package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	dbLogger "gorm.io/gorm/logger"
)

var _ dbLogger.Interface = (*logger)(nil)

const slowQueryThreshold = 200 * time.Millisecond

// logger forwards gorm output to zap. SQL traces are only produced when the root logger is at debug level.
type logger struct {
	logger   *zap.Logger
	level    *zap.AtomicLevel
	logLevel dbLogger.LogLevel
}

func newLogger(zlog *zap.Logger, zlogLevel *zap.AtomicLevel) *logger {
	return &logger{logger: zlog.Named("db"), level: zlogLevel, logLevel: dbLogger.Warn}
}

// LogMode returns a copy with the given gorm level; the shared zap level is left alone.
func (l *logger) LogMode(level dbLogger.LogLevel) dbLogger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *logger) Info(ctx context.Context, s string, i ...any) {
	if l.logLevel >= dbLogger.Info {
		l.logger.Info(fmt.Sprintf(s, i...))
	}
}

func (l *logger) Warn(ctx context.Context, s string, i ...any) {
	if l.logLevel >= dbLogger.Warn {
		l.logger.Warn(fmt.Sprintf(s, i...))
	}
}

func (l *logger) Error(ctx context.Context, s string, i ...any) {
	if l.logLevel >= dbLogger.Error {
		l.logger.Error(fmt.Sprintf(s, i...))
	}
}

func (l *logger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= dbLogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= dbLogger.Error:
		sql, rowsAffected := fc()
		l.logger.Error("query failed",
			zap.String("sql", sql),
			zap.Int64("rows_affected", rowsAffected),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	case elapsed > slowQueryThreshold && l.logLevel >= dbLogger.Warn:
		sql, rowsAffected := fc()
		l.logger.Warn("slow query",
			zap.String("sql", sql),
			zap.Int64("rows_affected", rowsAffected),
			zap.Duration("elapsed", elapsed))
	case l.level.Level() <= zap.DebugLevel:
		sql, rowsAffected := fc()
		l.logger.Debug("trace",
			zap.String("sql", sql),
			zap.Int64("rows_affected", rowsAffected),
			zap.Duration("elapsed", elapsed))
	}
}
