package event

import (
	"go.lumeweb.com/passreset/core"
)

const (
	EVENT_PASSWORD_RESET_REQUESTED = "password_reset.requested"
	EVENT_PASSWORD_RESET_FEDERATED = "password_reset.federated"
	EVENT_PASSWORD_RESET_EXPIRED   = "password_reset.expired"
	EVENT_PASSWORD_RESET_COMPLETED = "password_reset.completed"
)

func init() {
	core.RegisterEvent(EVENT_PASSWORD_RESET_REQUESTED, func() core.Eventer { return &PasswordResetRequestedEvent{} })
	core.RegisterEvent(EVENT_PASSWORD_RESET_FEDERATED, func() core.Eventer { return &PasswordResetFederatedEvent{} })
	core.RegisterEvent(EVENT_PASSWORD_RESET_EXPIRED, func() core.Eventer { return &PasswordResetExpiredEvent{} })
	core.RegisterEvent(EVENT_PASSWORD_RESET_COMPLETED, func() core.Eventer { return &PasswordResetCompletedEvent{} })
}

// PasswordResetRequestedEvent is fired once a local reset token has been persisted, before delivery.
type PasswordResetRequestedEvent struct {
	core.Event
}

func (e *PasswordResetRequestedEvent) SetUID(uid string) {
	e.Set("uid", uid)
}

func (e *PasswordResetRequestedEvent) UID() string {
	return e.Get("uid").(string)
}

func (e *PasswordResetRequestedEvent) SetFederatedLogin(federated bool) {
	e.Set("federated_login", federated)
}

func (e *PasswordResetRequestedEvent) FederatedLogin() bool {
	return e.Get("federated_login").(bool)
}

func FirePasswordResetRequestedEvent(ctx core.Context, uid string, federatedLogin bool) error {
	return Fire[*PasswordResetRequestedEvent](ctx, EVENT_PASSWORD_RESET_REQUESTED, func(evt *PasswordResetRequestedEvent) error {
		evt.SetUID(uid)
		evt.SetFederatedLogin(federatedLogin)
		return nil
	})
}

// PasswordResetFederatedEvent is fired when a reset was delegated to the federated provider.
type PasswordResetFederatedEvent struct {
	core.Event
}

func (e *PasswordResetFederatedEvent) SetProviderID(id string) {
	e.Set("provider_id", id)
}

func (e *PasswordResetFederatedEvent) ProviderID() string {
	return e.Get("provider_id").(string)
}

func FirePasswordResetFederatedEvent(ctx core.Context, providerID string) error {
	return Fire[*PasswordResetFederatedEvent](ctx, EVENT_PASSWORD_RESET_FEDERATED, func(evt *PasswordResetFederatedEvent) error {
		evt.SetProviderID(providerID)
		return nil
	})
}

// PasswordResetExpiredEvent is fired when a stale token was presented and cleared.
type PasswordResetExpiredEvent struct {
	core.Event
}

func (e *PasswordResetExpiredEvent) SetUID(uid string) {
	e.Set("uid", uid)
}

func (e *PasswordResetExpiredEvent) UID() string {
	return e.Get("uid").(string)
}

func FirePasswordResetExpiredEvent(ctx core.Context, uid string) error {
	return Fire[*PasswordResetExpiredEvent](ctx, EVENT_PASSWORD_RESET_EXPIRED, func(evt *PasswordResetExpiredEvent) error {
		evt.SetUID(uid)
		return nil
	})
}

// PasswordResetCompletedEvent is fired after the credential was rotated and access revoked.
type PasswordResetCompletedEvent struct {
	core.Event
}

func (e *PasswordResetCompletedEvent) SetUID(uid string) {
	e.Set("uid", uid)
}

func (e *PasswordResetCompletedEvent) UID() string {
	return e.Get("uid").(string)
}

func (e *PasswordResetCompletedEvent) SetRemovedFederatedLogin(removed bool) {
	e.Set("removed_federated_login", removed)
}

func (e *PasswordResetCompletedEvent) RemovedFederatedLogin() bool {
	return e.Get("removed_federated_login").(bool)
}

func FirePasswordResetCompletedEvent(ctx core.Context, uid string, removedFederatedLogin bool) error {
	return Fire[*PasswordResetCompletedEvent](ctx, EVENT_PASSWORD_RESET_COMPLETED, func(evt *PasswordResetCompletedEvent) error {
		evt.SetUID(uid)
		evt.SetRemovedFederatedLogin(removedFederatedLogin)
		return nil
	})
}
