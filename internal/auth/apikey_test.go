package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "discuss_ak_"))
	assert.Len(t, key, len("discuss_ak_")+48)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	hash := HashAPIKey(key)
	assert.True(t, VerifyAPIKey(key, hash))
	assert.False(t, VerifyAPIKey(other, hash))
}

func TestConfiguredHash(t *testing.T) {
	assert.Empty(t, ConfiguredHash("", " "))
	assert.Equal(t, HashAPIKey("secret"), ConfiguredHash(" secret ", ""))
	assert.Equal(t, "abc", ConfiguredHash("secret", " ABC "))
}

func TestAuthorize(t *testing.T) {
	hash := HashAPIKey("secret")

	assert.NoError(t, Authorize("Bearer secret", hash))
	assert.ErrorIs(t, Authorize("", hash), ErrMissingToken)
	assert.ErrorIs(t, Authorize("Basic secret", hash), ErrMissingToken)
	assert.ErrorIs(t, Authorize("Bearer   ", hash), ErrMissingToken)
	assert.ErrorIs(t, Authorize("Bearer wrong", hash), ErrInvalidKey)
}
