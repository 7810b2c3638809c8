package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-count/internal/config"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.Session.Secret = secret
	cfg.Session.Issuer = "stock-count"
	cfg.Session.TTLHours = 1
	return cfg
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig("secret"))

	token, err := m.GenerateToken("abc-123")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", claims.SessionID)
	assert.Equal(t, "stock-count", claims.Issuer)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTManager(testConfig("one")).GenerateToken("abc")
	require.NoError(t, err)

	_, err = NewJWTManager(testConfig("two")).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTManager(testConfig("one")).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsEmptySession(t *testing.T) {
	m := NewJWTManager(testConfig("secret"))
	token, err := m.GenerateToken("")
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, "hunter3"))
	assert.False(t, VerifyPassword("", "hunter2"))
}
