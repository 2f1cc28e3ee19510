package core

import (
	"context"
	"time"
)

const CRON_SERVICE = "cron"

type CronTaskFunction func(ctx context.Context) error

type CronService interface {
	// RegisterJob runs task every interval once the scheduler is started.
	RegisterJob(name string, interval time.Duration, task CronTaskFunction) error

	Start() error
	Stop() error

	Service
}
