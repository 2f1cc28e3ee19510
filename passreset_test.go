package passreset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db/models"
)

// The SMTP port is closed so delivery fails fast without leaving the host.
const appTestConfig = `
core:
  log:
    level: error
  db:
    type: sqlite
    file: passreset.db
  mail:
    host: 127.0.0.1
    port: 1
    from: noreply@example.com
  reset:
    production_url: https://example.com/auth/prod
`

func newStartedApp(t *testing.T) *AppImpl {
	t.Helper()

	file := filepath.Join(t.TempDir(), "passreset.yaml")
	require.NoError(t, os.WriteFile(file, []byte(appTestConfig), 0600))

	cm, err := config.NewManager(file)
	require.NoError(t, err)
	require.NoError(t, cm.Init())

	app, err := NewApp(cm, core.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())

	return app
}

func newTestApp(t *testing.T) *AppImpl {
	t.Helper()

	app := newStartedApp(t)

	t.Cleanup(func() {
		assert.NoError(t, app.Stop())
	})

	return app
}

func TestAppWiresPasswordReset(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	assert.FileExists(t, filepath.Join(filepath.Dir(app.Context().Config().ConfigFile()), "passreset.db"))

	_, err := app.PasswordReset().RequestReset(ctx, "nobody@example.com")
	assert.True(t, core.IsAccountErrorType(err, core.ErrKeyUserNotFound))

	users := core.GetService[core.UserService](app.Context(), core.USER_SERVICE)
	_, err = users.CreateAccount(ctx, "a@example.com", "old-password", false)
	require.NoError(t, err)

	_, err = app.PasswordReset().RequestReset(ctx, "a@example.com")
	require.True(t, core.IsAccountErrorType(err, core.ErrKeyResetDeliveryFailed), "got %v", err)

	var user models.User
	require.NoError(t, app.Context().DB().Where("email = ?", "a@example.com").First(&user).Error)
	require.NotNil(t, user.ResetToken)

	done, err := app.PasswordReset().ConsumeReset(ctx, *user.ResetToken, "new-password")
	require.NoError(t, err)
	assert.Equal(t, user.UID, done.UID)

	updated, err := users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, users.VerifyPassword(updated, "new-password"))
}

func TestAppServeStopsWithContext(t *testing.T) {
	app := newTestApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, app.Serve(ctx))
}

func TestAppStopWithoutMailSent(t *testing.T) {
	app := newStartedApp(t)

	_, err := app.PasswordReset().RequestReset(context.Background(), "nobody@example.com")
	require.True(t, core.IsAccountErrorType(err, core.ErrKeyUserNotFound))

	assert.NotPanics(t, func() {
		assert.NoError(t, app.Stop())
	})
}
