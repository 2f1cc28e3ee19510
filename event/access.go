package event

import "go.lumeweb.com/passreset/core"

const (
	EVENT_USER_ACCESS_REVOKED = "user.access.revoked"
)

func init() {
	core.RegisterEvent(EVENT_USER_ACCESS_REVOKED, func() core.Eventer { return &UserAccessRevokedEvent{} })
}

type UserAccessRevokedEvent struct {
	core.Event
}

func (e *UserAccessRevokedEvent) SetUID(uid string) {
	e.Set("uid", uid)
}

func (e *UserAccessRevokedEvent) UID() string {
	return e.Get("uid").(string)
}

func (e *UserAccessRevokedEvent) SetRevoked(sessions int64, apiKeys int64) {
	e.Set("sessions", sessions)
	e.Set("api_keys", apiKeys)
}

func (e *UserAccessRevokedEvent) Sessions() int64 {
	return e.Get("sessions").(int64)
}

func (e *UserAccessRevokedEvent) APIKeys() int64 {
	return e.Get("api_keys").(int64)
}

func FireUserAccessRevokedEvent(ctx core.Context, uid string, sessions int64, apiKeys int64) error {
	return Fire[*UserAccessRevokedEvent](ctx, EVENT_USER_ACCESS_REVOKED, func(evt *UserAccessRevokedEvent) error {
		evt.SetUID(uid)
		evt.SetRevoked(sessions, apiKeys)
		return nil
	})
}
