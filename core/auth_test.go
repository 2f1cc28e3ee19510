package core

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 128)
	_, err = hex.DecodeString(token)
	assert.NoError(t, err)

	other, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGeneratePasswordSalt(t *testing.T) {
	salt, err := GeneratePasswordSalt()
	require.NoError(t, err)
	assert.Len(t, salt, 32)
}
