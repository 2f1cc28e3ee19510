package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/event"
)

func TestAccessRevokeAll(t *testing.T) {
	env := newTestEnv(t)
	target := env.createUser(t, "u1", "a@x.com", false)
	other := env.createUser(t, "u2", "b@x.com", false)

	revoked := make(chan *event.UserAccessRevokedEvent, 1)
	event.Listen[*event.UserAccessRevokedEvent](env.ctx, event.EVENT_USER_ACCESS_REVOKED, func(evt *event.UserAccessRevokedEvent) error {
		revoked <- evt
		return nil
	})

	require.NoError(t, env.access.RevokeAll(context.Background(), "u1"))

	sessions, keys := env.grants(t, target.ID)
	assert.Zero(t, sessions)
	assert.Zero(t, keys)

	sessions, keys = env.grants(t, other.ID)
	assert.EqualValues(t, 1, sessions)
	assert.EqualValues(t, 1, keys)

	evt := <-revoked
	assert.Equal(t, "u1", evt.UID())
	assert.EqualValues(t, 1, evt.Sessions())
	assert.EqualValues(t, 1, evt.APIKeys())
}

func TestAccessRevokeAllUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	err := env.access.RevokeAll(context.Background(), "missing")
	requireAccountError(t, err, core.ErrKeyUserNotFound)
}
