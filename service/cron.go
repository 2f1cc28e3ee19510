package service

import (
	"context"
	"errors"
	"sync"
	"time"

	redislock "github.com/go-co-op/gocron-redis-lock/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/event"
	"go.uber.org/zap"
)

var _ core.CronService = (*CronServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.CRON_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewCronService(clockwork.NewRealClock())
		},
	})
}

type CronServiceDefault struct {
	ctx       context.Context
	logger    *core.Logger
	clock     clockwork.Clock
	scheduler gocron.Scheduler
	started   bool
	mu        sync.Mutex
}

func NewCronService(clock clockwork.Clock) (*CronServiceDefault, []core.ContextBuilderOption, error) {
	cron := &CronServiceDefault{
		clock: clock,
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cron.ctx = ctx
			cron.logger = ctx.Logger()

			scheduler, err := newScheduler(ctx.Config(), clock)
			if err != nil {
				return err
			}

			cron.scheduler = scheduler

			event.Listen[*event.BootCompleteEvent](ctx, event.EVENT_BOOT_COMPLETE, func(evt *event.BootCompleteEvent) error {
				return cron.Start()
			})

			return nil
		}),
		core.ContextWithExitFunc(func(ctx core.Context) error {
			return cron.Stop()
		}),
	)

	return cron, opts, nil
}

// newScheduler builds the scheduler. With redis configured, jobs are guarded by a distributed lock so only
// one instance runs each tick.
func newScheduler(cm config.Manager, clock clockwork.Clock) (gocron.Scheduler, error) {
	options := []gocron.SchedulerOption{gocron.WithClock(clock)}

	cfg := cm.Config()
	if cfg.Core.RedisEnabled() {
		locker, err := redislock.NewRedisLocker(cfg.Core.Redis().Client(), redislock.WithTries(1), redislock.WithExpiry(time.Hour))
		if err != nil {
			return nil, err
		}

		options = append(options, gocron.WithDistributedLocker(locker))
	}

	return gocron.NewScheduler(options...)
}

func (c *CronServiceDefault) ID() string {
	return core.CRON_SERVICE
}

func (c *CronServiceDefault) RegisterJob(name string, interval time.Duration, task core.CronTaskFunction) error {
	if c.scheduler == nil {
		return errors.New("scheduler not initialized")
	}

	if interval <= 0 {
		return errors.New("job interval must be positive")
	}

	onError := func(jobID uuid.UUID, jobName string, err error) {
		c.logger.Error("job failed", zap.String("job", jobName), zap.String("id", jobID.String()), zap.Error(err))
	}

	_, err := c.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() error {
			return task(c.ctx)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(gocron.AfterJobRunsWithError(onError)),
	)
	if err != nil {
		return err
	}

	c.logger.Debug("registered job", zap.String("job", name), zap.Duration("interval", interval))

	return nil
}

func (c *CronServiceDefault) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler == nil {
		return errors.New("scheduler not initialized")
	}

	if c.started {
		return nil
	}

	c.scheduler.Start()
	c.started = true

	return nil
}

func (c *CronServiceDefault) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduler == nil {
		return nil
	}

	c.started = false

	return c.scheduler.Shutdown()
}
