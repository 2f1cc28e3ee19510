package core

import "context"

const ACCESS_SERVICE = "access"

// AccessService owns the grants that let an identity act without presenting its password again.
type AccessService interface {
	// RevokeAll removes every session and API key of the account identified by uid.
	RevokeAll(ctx context.Context, uid string) error

	Service
}
