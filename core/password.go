package core

import "context"

const PASSWORD_RESET_SERVICE = "password_reset"

// PasswordResetRequest is the successful outcome of RequestReset.
type PasswordResetRequest struct {
	// URL is the link that was delivered, or the provider link for federated-only accounts.
	URL string
	// Federated is true when the link was minted by the federated provider and no local state changed.
	Federated bool
}

// PasswordResetCompletion is the successful outcome of ConsumeReset.
type PasswordResetCompletion struct {
	UID string
	// HadFederatedLogin reports that completing the reset disconnected federated login.
	HadFederatedLogin bool
}

type PasswordResetService interface {
	// RequestReset issues a reset token for the account registered under email and mails the reset link,
	// or delegates to the federated provider when no local account exists.
	RequestReset(ctx context.Context, email string) (*PasswordResetRequest, error)

	// ConsumeReset validates token, rotates the account password and revokes all existing access.
	ConsumeReset(ctx context.Context, token string, password string) (*PasswordResetCompletion, error)

	// SweepExpired clears tokens that are past the expiry window and returns how many were cleared.
	SweepExpired(ctx context.Context) (int64, error)

	Service
}
