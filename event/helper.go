package event

import (
	"fmt"
	"sync"

	"github.com/gookit/event"
	"go.lumeweb.com/passreset/core"
)

// The gookit manager sorts listener queues while firing, so fires and registrations are serialized.
var managerMu sync.Mutex

// Fire builds a fresh event of type T registered under eventName, lets fill populate it and dispatches it.
func Fire[T core.Eventer](ctx core.Context, eventName string, fill func(evt T) error) error {
	evt, err := core.NewEvent(eventName)
	if err != nil {
		return err
	}

	typedEvt, err := assertEventType[T](evt, eventName)
	if err != nil {
		return err
	}

	if fill != nil {
		if err := fill(typedEvt); err != nil {
			return err
		}
	}

	managerMu.Lock()
	defer managerMu.Unlock()

	return ctx.Event().FireEvent(typedEvt)
}

// Listen registers cb for eventName. Events of another type are reported as listener errors.
func Listen[T core.Eventer](ctx core.Context, eventName string, cb func(evt T) error) {
	managerMu.Lock()
	defer managerMu.Unlock()

	ctx.Event().On(eventName, event.ListenerFunc(func(e event.Event) error {
		typedEvt, err := assertEventType[T](e, eventName)
		if err != nil {
			return err
		}

		return cb(typedEvt)
	}))
}

func assertEventType[T any](evt any, eventName string) (T, error) {
	typedEvt, ok := evt.(T)
	if !ok {
		return *new(T), fmt.Errorf("event %s is not of expected type", eventName)
	}
	return typedEvt, nil
}
