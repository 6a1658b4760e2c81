package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenPair_RoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair(42, "peternak@example.com", "customer", "secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := ValidateToken(pair.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "peternak@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	pair, err := GenerateTokenPair(1, "a@b.com", "customer", "secret", time.Minute, time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "other-secret")
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	pair, err := GenerateTokenPair(1, "a@b.com", "customer", "secret", -time.Minute, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "secret")
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not.a.token", "secret")
	assert.Error(t, err)
}
