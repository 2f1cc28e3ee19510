package core

import "context"

const FEDERATED_SERVICE = "federated"

type FederatedAccount struct {
	ID    string
	Email string
	// Providers lists the sign-in providers linked to the account, such as google.com.
	Providers []string
}

// FederatedService is the external identity provider for accounts that log in through it.
type FederatedService interface {
	// Enabled reports whether a provider is configured.
	Enabled() bool

	// LookupByEmail returns the provider account for email, or nil when there is none.
	LookupByEmail(ctx context.Context, email string) (*FederatedAccount, error)

	// GenerateResetLink asks the provider for its own password reset link for email.
	GenerateResetLink(ctx context.Context, email string) (string, error)

	Service
}
