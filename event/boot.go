package event

import (
	"go.lumeweb.com/passreset/core"
)

const (
	EVENT_BOOT_COMPLETE = "boot.complete"
)

func init() {
	core.RegisterEvent(EVENT_BOOT_COMPLETE, func() core.Eventer { return &BootCompleteEvent{} })
}

// BootCompleteEvent is fired after every startup func ran. Background work starts from it.
type BootCompleteEvent struct {
	core.Event
}

func FireBootCompleteEvent(ctx core.Context) error {
	return Fire[*BootCompleteEvent](ctx, EVENT_BOOT_COMPLETE, nil)
}
