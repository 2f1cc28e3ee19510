package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/passreset/core"
)

func newTestContext(t *testing.T) core.Context {
	t.Helper()

	ctx, err := core.NewContext(nil, core.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(ctx.Cancel)

	return ctx
}

func TestFireDeliversTypedEvent(t *testing.T) {
	ctx := newTestContext(t)

	var got *PasswordResetRequestedEvent
	Listen[*PasswordResetRequestedEvent](ctx, EVENT_PASSWORD_RESET_REQUESTED, func(evt *PasswordResetRequestedEvent) error {
		got = evt
		return nil
	})

	require.NoError(t, FirePasswordResetRequestedEvent(ctx, "u1", true))
	require.NotNil(t, got)
	assert.Equal(t, EVENT_PASSWORD_RESET_REQUESTED, got.Name())
	assert.Equal(t, "u1", got.UID())
	assert.True(t, got.FederatedLogin())
}

func TestFireBuildsFreshEvents(t *testing.T) {
	ctx := newTestContext(t)

	var seen []*PasswordResetCompletedEvent
	var mu sync.Mutex
	Listen[*PasswordResetCompletedEvent](ctx, EVENT_PASSWORD_RESET_COMPLETED, func(evt *PasswordResetCompletedEvent) error {
		mu.Lock()
		seen = append(seen, evt)
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for _, uid := range []string{"u1", "u2", "u3"} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			assert.NoError(t, FirePasswordResetCompletedEvent(ctx, uid, false))
		}(uid)
	}
	wg.Wait()

	require.Len(t, seen, 3)
	uids := []string{seen[0].UID(), seen[1].UID(), seen[2].UID()}
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, uids)
}

func TestFireUnknownEvent(t *testing.T) {
	ctx := newTestContext(t)

	err := Fire[*PasswordResetExpiredEvent](ctx, "password_reset.unknown", nil)
	assert.ErrorContains(t, err, "not found")
}

func TestFireWrongType(t *testing.T) {
	ctx := newTestContext(t)

	err := Fire[*PasswordResetExpiredEvent](ctx, EVENT_PASSWORD_RESET_REQUESTED, nil)
	assert.ErrorContains(t, err, "not of expected type")
}

func TestUserAccessRevokedEvent(t *testing.T) {
	ctx := newTestContext(t)

	var sessions, keys int64
	Listen[*UserAccessRevokedEvent](ctx, EVENT_USER_ACCESS_REVOKED, func(evt *UserAccessRevokedEvent) error {
		sessions = evt.Sessions()
		keys = evt.APIKeys()
		return nil
	})

	require.NoError(t, FireUserAccessRevokedEvent(ctx, "u1", 2, 3))
	assert.EqualValues(t, 2, sessions)
	assert.EqualValues(t, 3, keys)
}

func TestRegisteredEventNames(t *testing.T) {
	names := core.GetEventNames()

	for _, name := range []string{
		EVENT_BOOT_COMPLETE,
		EVENT_PASSWORD_RESET_COMPLETED,
		EVENT_PASSWORD_RESET_EXPIRED,
		EVENT_PASSWORD_RESET_FEDERATED,
		EVENT_PASSWORD_RESET_REQUESTED,
		EVENT_USER_ACCESS_REVOKED,
	} {
		assert.Contains(t, names, name)
	}
}
