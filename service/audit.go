package service

import (
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/event"
	"go.uber.org/zap"
)

// registerAuditListeners writes the security relevant reset transitions to the "audit" logger.
func registerAuditListeners(ctx core.Context) {
	logger := ctx.Logger().Named("audit")

	event.Listen[*event.PasswordResetRequestedEvent](ctx, event.EVENT_PASSWORD_RESET_REQUESTED, func(evt *event.PasswordResetRequestedEvent) error {
		logger.Info("password reset requested", zap.String("uid", evt.UID()), zap.Bool("federated_login", evt.FederatedLogin()))
		return nil
	})

	event.Listen[*event.PasswordResetFederatedEvent](ctx, event.EVENT_PASSWORD_RESET_FEDERATED, func(evt *event.PasswordResetFederatedEvent) error {
		logger.Info("password reset delegated to federated provider", zap.String("provider_id", evt.ProviderID()))
		return nil
	})

	event.Listen[*event.PasswordResetExpiredEvent](ctx, event.EVENT_PASSWORD_RESET_EXPIRED, func(evt *event.PasswordResetExpiredEvent) error {
		logger.Info("expired password reset token presented", zap.String("uid", evt.UID()))
		return nil
	})

	event.Listen[*event.PasswordResetCompletedEvent](ctx, event.EVENT_PASSWORD_RESET_COMPLETED, func(evt *event.PasswordResetCompletedEvent) error {
		logger.Info("password reset completed", zap.String("uid", evt.UID()), zap.Bool("removed_federated_login", evt.RemovedFederatedLogin()))
		return nil
	})

	event.Listen[*event.UserAccessRevokedEvent](ctx, event.EVENT_USER_ACCESS_REVOKED, func(evt *event.UserAccessRevokedEvent) error {
		logger.Info("account access revoked", zap.String("uid", evt.UID()), zap.Int64("sessions", evt.Sessions()), zap.Int64("api_keys", evt.APIKeys()))
		return nil
	})
}
