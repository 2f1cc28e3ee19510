package core

import (
	"context"
	"fmt"

	"github.com/gookit/event"
	"go.lumeweb.com/passreset/config"
	"gorm.io/gorm"
)

type ContextBuilderOption func(Context) (Context, error)

type StartupFunc func(Context) error
type ExitFunc func(Context) error

// Context carries the process wide collaborators. Services read what they need from it in their startup funcs.
type Context struct {
	context.Context
	services     map[string]any
	cfg          config.Manager
	logger       *Logger
	exitFuncs    []func(Context) error
	startupFuncs []func(Context) error
	db           *gorm.DB
	cancel       context.CancelFunc
	event        *event.Manager
}

func NewContext(config config.Manager, logger *Logger, options ...ContextBuilderOption) (Context, error) {
	newCtx := Context{
		Context:  context.Background(),
		services: make(map[string]any),
		cfg:      config,
		logger:   logger,
		event:    event.NewManager("passreset"),
	}
	c, cancel := context.WithCancel(newCtx.Context)

	newCtx.Context = c
	newCtx.cancel = cancel

	var err error

	for _, opt := range options {
		newCtx, err = opt(newCtx)
		if err != nil {
			return newCtx, err
		}
	}

	return newCtx, nil
}

func (ctx Context) Service(id string) any {
	if svc, ok := ctx.services[id]; ok {
		return svc
	}

	return nil
}

func (ctx *Context) OnExit(f func(Context) error) {
	ctx.exitFuncs = append(ctx.exitFuncs, f)
}

func (ctx *Context) OnStartup(f func(Context) error) {
	ctx.startupFuncs = append(ctx.startupFuncs, f)
}

func (ctx Context) StartupFuncs() []func(Context) error {
	return ctx.startupFuncs
}

func (ctx Context) ExitFuncs() []func(Context) error {
	return ctx.exitFuncs
}

func (ctx Context) DB() *gorm.DB {
	return ctx.db
}

func (ctx Context) Logger() *Logger {
	return ctx.logger
}

func (ctx Context) Config() config.Manager {
	return ctx.cfg
}

func (ctx Context) Cancel() {
	ctx.cancel()
}

func (ctx Context) Event() *event.Manager {
	return ctx.event
}

// GetService returns the registered service with the given id. It panics when the service is missing or of
// another type, since that is a wiring error in the bootstrap.
func GetService[T any](ctx Context, id string) T {
	svc := ctx.Service(id)
	if svc == nil {
		panic(fmt.Sprintf("service %s not found", id))
	}

	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s has unexpected type %T", id, svc))
	}

	return typed
}

func ContextWithService(id string, svc Service) ContextBuilderOption {
	return func(ctx Context) (Context, error) {
		ctx.services[id] = svc
		return ctx, nil
	}
}

func ContextWithDB(db *gorm.DB) ContextBuilderOption {
	return func(ctx Context) (Context, error) {
		ctx.db = db
		return ctx, nil
	}
}

func ContextWithStartupFunc(f StartupFunc) ContextBuilderOption {
	return func(ctx Context) (Context, error) {
		ctx.OnStartup(f)
		return ctx, nil
	}
}

func ContextWithExitFunc(f ExitFunc) ContextBuilderOption {
	return func(ctx Context) (Context, error) {
		ctx.OnExit(f)
		return ctx, nil
	}
}

func ContextOptions(options ...ContextBuilderOption) []ContextBuilderOption {
	return options
}
