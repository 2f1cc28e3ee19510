package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/passreset/core"
)

func TestUserHashPassword(t *testing.T) {
	u := NewUserServiceWithDB(nil, testHashParams)

	a, err := u.HashPassword("secret", "salt-a")
	require.NoError(t, err)
	b, err := u.HashPassword("secret", "salt-b")
	require.NoError(t, err)
	again, err := u.HashPassword("secret", "salt-a")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)

	_, err = u.HashPassword("secret", "")
	requireAccountError(t, err, core.ErrKeyHashingFailed)
}

func TestUserCreateAndFind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.user.CreateAccount(ctx, " Mixed@Example.com", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, "mixed@example.com", created.Email)
	assert.NotEmpty(t, created.UID)
	assert.True(t, env.user.VerifyPassword(created, "secret"))

	found, err := env.user.FindByEmail(ctx, "MIXED@example.com ")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.UID, found.UID)

	missing, err := env.user.FindByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = env.user.CreateAccount(ctx, "mixed@example.com", "secret", false)
	requireAccountError(t, err, core.ErrKeyEmailAlreadyExists)
}

func TestUserFindByEmailIgnoresStoredCase(t *testing.T) {
	env := newTestEnv(t)
	created := env.createUser(t, "u1", "Alice@X.com", false)

	found, err := env.user.FindByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Alice@X.com", found.Email)
}

func TestUserFederatedOnlyAccount(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.user.CreateAccount(context.Background(), "fed@example.com", "", true)
	require.NoError(t, err)
	assert.True(t, user.FederatedLogin)
	assert.Nil(t, user.PasswordHash)
	assert.False(t, env.user.VerifyPassword(user, ""))
}

func TestUserUpdateAccountInfoIf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "u1", "a@x.com", false)

	token := strings.Repeat("a", 128)

	// Absent token compares as NULL.
	ok, err := env.user.UpdateAccountInfoIf(ctx, user.ID, map[string]any{"reset_token": nil}, map[string]any{"reset_token": token})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.user.UpdateAccountInfoIf(ctx, user.ID, map[string]any{"reset_token": nil}, map[string]any{"reset_token": "other"})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := env.user.FindByResetToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.UID)

	ok, err = env.user.UpdateAccountInfoIf(ctx, user.ID, map[string]any{"reset_token": token}, map[string]any{"reset_token": nil})
	require.NoError(t, err)
	assert.True(t, ok)

	found, err = env.user.FindByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = env.user.FindByResetToken(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, found)
}
