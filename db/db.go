package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/go-gorm/caches/v4"
	mysqldriver "github.com/go-sql-driver/mysql"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	mysqlErrLockDeadlock    = 1213
	mysqlErrLockWaitTimeout = 1205
	mysqlErrTooManyConns    = 1040

	maxLockRetries = 8
)

func NewDatabase(ctx core.Context) (*gorm.DB, []core.ContextBuilderOption, error) {
	cfg := ctx.Config()
	rootLogger := ctx.Logger()

	dbType := cfg.Config().Core.DB.Type
	var db *gorm.DB
	var err error

	switch dbType {
	case "mysql":
		db, err = openMySQLDatabase(cfg, rootLogger)
	case "sqlite":
		dbFile := cfg.Config().Core.DB.File

		if !path.IsAbs(dbFile) && cfg.ConfigFile() != "" {
			dbFile = path.Join(path.Dir(cfg.ConfigFile()), dbFile)
		}

		db, err = OpenSQLiteDatabase(dbFile, rootLogger)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	if err != nil {
		return nil, nil, err
	}

	cacher, err := getCacher(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cacher != nil {
		cache := &caches.Caches{Conf: &caches.Config{
			Cacher: cacher,
		}}
		if err := db.Use(cache); err != nil {
			return nil, nil, err
		}
	}

	ctxOpts := []core.ContextBuilderOption{
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			return Migrate(db)
		}),
		core.ContextWithDB(db),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}),
	}

	return db, ctxOpts, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.GetModels()...)
}

func openMySQLDatabase(cfg config.Manager, rootLogger *core.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Config().Core.DB

	mysqlCfg := mysqldriver.NewConfig()
	mysqlCfg.User = dbCfg.Username
	mysqlCfg.Passwd = dbCfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", dbCfg.Host, dbCfg.Port)
	mysqlCfg.DBName = dbCfg.Name
	mysqlCfg.ParseTime = true
	mysqlCfg.Loc = time.UTC
	mysqlCfg.Params = map[string]string{"charset": dbCfg.Charset}

	return gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: newLogger(rootLogger.Logger, rootLogger.Level()),
	})
}

func OpenSQLiteDatabase(file string, rootLogger *core.Logger) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(file), &gorm.Config{
		Logger:         newLogger(rootLogger.Logger, rootLogger.Level()),
		TranslateError: true,
	})
}

func getCacher(cm config.Manager) (caches.Cacher, error) {
	cacheCfg := cm.Config().Core.DB.Cache
	if cacheCfg == nil {
		return nil, nil
	}

	switch cacheCfg.Mode {
	case "", "none":
		return nil, nil
	case "memory":
		return &memoryCacher{}, nil
	case "redis":
		rcfg := cm.Config().Core.Redis()
		if rcfg == nil {
			return nil, errors.New("invalid redis config")
		}
		return &redisCacher{rcfg.Client()}, nil
	}

	return nil, fmt.Errorf("invalid cache mode: %s", cacheCfg.Mode)
}

// RetryOnLock runs operation until it succeeds, fails with an error other than lock contention, or the
// statement context is done. Backoff is exponential with jitter.
func RetryOnLock(db *gorm.DB, operation func(*gorm.DB) *gorm.DB) error {
	return retryOnLock(db.Statement.Context, func() error {
		return operation(db).Error
	})
}

// RetryableTransaction runs operation in a transaction and retries the whole transaction on lock contention.
func RetryableTransaction(ctx context.Context, db *gorm.DB, operation func(tx *gorm.DB) error) error {
	return retryOnLock(ctx, func() error {
		return db.WithContext(ctx).Transaction(operation)
	})
}

func retryOnLock(ctx context.Context, operation func() error) error {
	initialBackoff := 100 * time.Millisecond
	maxBackoff := 10 * time.Second
	if ctx == nil {
		ctx = context.Background()
	}

	for attempt := 0; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if !isLockError(err) || attempt >= maxLockRetries {
			return err
		}

		backoff := float64(initialBackoff) * math.Pow(2, float64(attempt))
		jitter := rand.Float64() * float64(initialBackoff)
		sleepDuration := time.Duration(math.Min(backoff+jitter, float64(maxBackoff)))

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(sleepDuration):
		}
	}
}

// isLockError checks if the given error is a database lock error
func isLockError(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrLockDeadlock, mysqlErrLockWaitTimeout, mysqlErrTooManyConns:
			return true
		}
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "deadlock") ||
		strings.Contains(errMsg, "lock wait timeout") ||
		strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "database table is locked") ||
		strings.Contains(errMsg, "too many connections")
}
