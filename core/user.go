package core

import (
	"context"

	"go.lumeweb.com/passreset/db/models"
)

const USER_SERVICE = "user"

type UserService interface {
	// FindByEmail returns the account registered under the normalized form of email, or nil when there is none.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByResetToken returns the account holding exactly token, or nil when there is none.
	FindByResetToken(ctx context.Context, token string) (*models.User, error)

	// UpdateAccountInfoIf applies info to the account with the given ID only while conditions still hold.
	// It reports whether the row was updated; false means another writer changed the record first.
	UpdateAccountInfoIf(ctx context.Context, userId uint, conditions map[string]any, info map[string]any) (bool, error)

	// HashPassword derives the stored digest of password with salt.
	HashPassword(password string, salt string) (string, error)

	// VerifyPassword checks password against the stored digest of user.
	VerifyPassword(user *models.User, password string) bool

	// CreateAccount creates a local account with a password, or a federated-only account when password is empty.
	CreateAccount(ctx context.Context, email string, password string, federated bool) (*models.User, error)

	Service
}
