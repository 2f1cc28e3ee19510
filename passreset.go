package passreset

import (
	"context"
	"errors"
	"sync"

	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db"
	"go.lumeweb.com/passreset/event"
	_ "go.lumeweb.com/passreset/service"
	"go.uber.org/zap"
)

type App interface {
	Init() error
	Start() error
	Stop() error
	Serve(ctx context.Context) error
	Context() core.Context
	PasswordReset() core.PasswordResetService
}

var _ App = (*AppImpl)(nil)

type AppImpl struct {
	ctx   core.Context
	ctxMu sync.RWMutex
}

// NewApp builds an application around a loaded config. Init must be called before Start.
func NewApp(cm config.Manager, logger *core.Logger) (*AppImpl, error) {
	ctx, err := core.NewContext(cm, logger)
	if err != nil {
		return nil, err
	}

	return &AppImpl{ctx: ctx}, nil
}

func (a *AppImpl) Init() error {
	ctx := a.Context()

	ctx.Logger().Debug("initializing")

	_, ctxOpts, err := db.NewDatabase(ctx)
	if err != nil {
		ctx.Logger().Error("error opening database", zap.Error(err))
		return err
	}

	opts, err := a.initServices(ctx)
	if err != nil {
		return err
	}
	ctxOpts = append(ctxOpts, opts...)

	ctx, err = core.NewContext(ctx.Config(), ctx.Logger(), ctxOpts...)
	if err != nil {
		ctx.Logger().Error("error creating context", zap.Error(err))
		return err
	}

	a.SetContext(ctx)

	return nil
}

func (a *AppImpl) Start() error {
	ctx := a.Context()

	for _, startupFunc := range ctx.StartupFuncs() {
		if err := startupFunc(ctx); err != nil {
			ctx.Logger().Error("error during startup", zap.Error(err))
			return err
		}
	}

	return nil
}

// Serve runs the background jobs until ctx is done.
func (a *AppImpl) Serve(ctx context.Context) error {
	appCtx := a.Context()

	if err := event.FireBootCompleteEvent(appCtx); err != nil {
		appCtx.Logger().Error("error firing boot complete event", zap.Error(err))
		return err
	}

	appCtx.Logger().Info("serving", zap.Duration("sweep_interval", appCtx.Config().Config().Core.Reset.SweepInterval))

	select {
	case <-ctx.Done():
	case <-appCtx.Done():
	}

	return nil
}

func (a *AppImpl) Stop() error {
	ctx := a.Context()
	ctx.Logger().Debug("stopping")

	var errs []error

	// Exit funcs run in reverse registration order so the database closes last.
	exitFuncs := ctx.ExitFuncs()
	for i := len(exitFuncs) - 1; i >= 0; i-- {
		if err := exitFuncs[i](ctx); err != nil {
			ctx.Logger().Error("error during shutdown", zap.Error(err))
			errs = append(errs, err)
		}
	}

	ctx.Cancel()

	return errors.Join(errs...)
}

func (a *AppImpl) PasswordReset() core.PasswordResetService {
	return core.GetService[core.PasswordResetService](a.Context(), core.PASSWORD_RESET_SERVICE)
}

func (a *AppImpl) Context() core.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()

	return a.ctx
}

func (a *AppImpl) SetContext(ctx core.Context) {
	a.ctxMu.Lock()
	defer a.ctxMu.Unlock()

	a.ctx = ctx
}

func (a *AppImpl) initServices(ctx core.Context) (ctxOpts []core.ContextBuilderOption, err error) {
	svcs, err := core.GetServices()
	if err != nil {
		ctx.Logger().Error("error resolving service order", zap.Error(err))
		return nil, err
	}

	for _, svcInfo := range svcs {
		svc, opts, err := svcInfo.Factory()
		if err != nil {
			ctx.Logger().Error("error creating service", zap.String("service", svcInfo.ID), zap.Error(err))
			return nil, err
		}

		if opts != nil {
			ctxOpts = append(ctxOpts, opts...)
		}

		ctxOpts = append(ctxOpts, core.ContextWithService(svcInfo.ID, svc))
	}

	return ctxOpts, nil
}
