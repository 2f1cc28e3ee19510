package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db"
	"go.lumeweb.com/passreset/db/models"
	"gorm.io/gorm"
)

const testConfig = `
core:
  mail:
    host: smtp.example.com
    from: noreply@example.com
  reset:
    environment: production
    staging_url: https://example.com/auth/dev
    production_url: https://example.com/auth/prod/
`

const testBaseURL = "https://example.com/auth/prod"

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var testHashParams = PasswordHashParams{
	Time:    1,
	Memory:  1024,
	Threads: 1,
	KeyLen:  32,
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []*mail.Msg
	err  error
}

func (r *recordingSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	r.msgs = append(r.msgs, messages...)

	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.msgs)
}

func (r *recordingSender) lastBody(t *testing.T) string {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.msgs)
	parts := r.msgs[len(r.msgs)-1].GetParts()
	require.NotEmpty(t, parts)

	content, err := parts[0].GetContent()
	require.NoError(t, err)

	return string(content)
}

func (r *recordingSender) lastRecipients(t *testing.T) []string {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.msgs)
	rcpts, err := r.msgs[len(r.msgs)-1].GetRecipients()
	require.NoError(t, err)

	return rcpts
}

type fakeFederated struct {
	enabled   bool
	accounts  map[string]string
	lookupErr error
	linkErr   error

	mu      sync.Mutex
	lookups int
}

func (f *fakeFederated) ID() string {
	return core.FEDERATED_SERVICE
}

func (f *fakeFederated) Enabled() bool {
	return f.enabled
}

func (f *fakeFederated) LookupByEmail(_ context.Context, email string) (*core.FederatedAccount, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()

	if f.lookupErr != nil {
		return nil, f.lookupErr
	}

	id, ok := f.accounts[email]
	if !ok {
		return nil, nil
	}

	return &core.FederatedAccount{ID: id, Email: email}, nil
}

func (f *fakeFederated) GenerateResetLink(_ context.Context, email string) (string, error) {
	if f.linkErr != nil {
		return "", f.linkErr
	}

	return "https://idp.example.com/reset?oob=" + f.accounts[email], nil
}

func (f *fakeFederated) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lookups
}

type failingAccess struct{}

func (failingAccess) ID() string {
	return core.ACCESS_SERVICE
}

func (failingAccess) RevokeAll(context.Context, string) error {
	return fmt.Errorf("session store offline")
}

type testEnv struct {
	ctx       core.Context
	db        *gorm.DB
	clock     clockwork.FakeClock
	sender    *recordingSender
	federated *fakeFederated
	user      *UserServiceDefault
	access    *AccessServiceDefault
	reset     *PasswordResetServiceDefault
}

func newTestConfig(t *testing.T, extra string) config.Manager {
	t.Helper()

	file := filepath.Join(t.TempDir(), "passreset.yaml")
	require.NoError(t, os.WriteFile(file, []byte(testConfig+extra), 0600))

	cm, err := config.NewManager(file)
	require.NoError(t, err)
	require.NoError(t, cm.Init())

	return cm
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLiteDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), core.NewNopLogger())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))

	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	return newTestEnvWithConfig(t, "")
}

func newTestEnvWithConfig(t *testing.T, extra string) *testEnv {
	t.Helper()

	cm := newTestConfig(t, extra)
	logger := core.NewNopLogger()
	gdb := newTestDB(t)
	clock := clockwork.NewFakeClockAt(testEpoch)
	sender := &recordingSender{}
	federated := &fakeFederated{accounts: map[string]string{}}

	user, userOpts, err := NewUserService()
	require.NoError(t, err)
	user.hashParams = testHashParams

	access, accessOpts, err := NewAccessService()
	require.NoError(t, err)

	mailer, err := NewMailerWithSender(cm.Config().Core.Mail.From, sender, logger)
	require.NoError(t, err)

	cron, cronOpts, err := NewCronService(clock)
	require.NoError(t, err)

	reset, resetOpts, err := NewPasswordResetService(clock)
	require.NoError(t, err)

	opts := []core.ContextBuilderOption{
		core.ContextWithDB(gdb),
		core.ContextWithService(core.USER_SERVICE, user),
		core.ContextWithService(core.ACCESS_SERVICE, access),
		core.ContextWithService(core.MAILER_SERVICE, mailer),
		core.ContextWithService(core.FEDERATED_SERVICE, federated),
		core.ContextWithService(core.CRON_SERVICE, cron),
		core.ContextWithService(core.PASSWORD_RESET_SERVICE, reset),
	}
	opts = append(opts, userOpts...)
	opts = append(opts, accessOpts...)
	opts = append(opts, cronOpts...)
	opts = append(opts, resetOpts...)

	ctx, err := core.NewContext(cm, logger, opts...)
	require.NoError(t, err)

	for _, f := range ctx.StartupFuncs() {
		require.NoError(t, f(ctx))
	}

	t.Cleanup(func() {
		for _, f := range ctx.ExitFuncs() {
			_ = f(ctx)
		}
		ctx.Cancel()
	})

	return &testEnv{
		ctx:       ctx,
		db:        gdb,
		clock:     clock,
		sender:    sender,
		federated: federated,
		user:      user,
		access:    access,
		reset:     reset,
	}
}

// createUser stores an account with a known password and one session and API key.
func (e *testEnv) createUser(t *testing.T, uid string, email string, federated bool) *models.User {
	t.Helper()

	salt := "00112233445566778899aabbccddeeff"
	hash, err := e.user.HashPassword("old-password", salt)
	require.NoError(t, err)

	user := &models.User{
		UID:            uid,
		Email:          email,
		PasswordHash:   &hash,
		PasswordSalt:   &salt,
		FederatedLogin: federated,
	}
	require.NoError(t, e.db.Create(user).Error)

	require.NoError(t, e.db.Create(&models.Session{UserID: user.ID, TokenHash: "session-" + uid, ExpiresAt: testEpoch.Add(time.Hour)}).Error)
	require.NoError(t, e.db.Create(&models.APIKey{UserID: user.ID, Key: "key-" + uid}).Error)

	return user
}

func (e *testEnv) reload(t *testing.T, uid string) *models.User {
	t.Helper()

	var user models.User
	require.NoError(t, e.db.Where("uid = ?", uid).First(&user).Error)

	return &user
}

func (e *testEnv) grants(t *testing.T, userID uint) (int64, int64) {
	t.Helper()

	var sessions, keys int64
	require.NoError(t, e.db.Model(&models.Session{}).Where("user_id = ?", userID).Count(&sessions).Error)
	require.NoError(t, e.db.Model(&models.APIKey{}).Where("user_id = ?", userID).Count(&keys).Error)

	return sessions, keys
}

func requireAccountError(t *testing.T, err error, key core.AccountErrorType) {
	t.Helper()

	require.Error(t, err)
	accountErr := core.AsAccountError(err)
	require.NotNil(t, accountErr, "expected an account error, got %v", err)
	require.Equal(t, key, accountErr.Key, err.Error())
}
