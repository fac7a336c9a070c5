package auth

import (
	"testing"
	"time"

	"recipe-pipeline/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(accessTTL time.Duration) *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:     "test-secret-for-signing",
		AccessTTL:  accessTTL,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestGenerateTokenPair(t *testing.T) {
	manager := newTestManager(time.Hour)

	pair, err := manager.GenerateTokenPair(42)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := manager.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestValidateToken_WrongType(t *testing.T) {
	manager := newTestManager(time.Hour)

	pair, err := manager.GenerateTokenPair(1)
	require.NoError(t, err)

	// 更新權杖不能當存取權杖使用，反之亦然
	_, err = manager.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err)

	_, err = manager.ValidateRefreshToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	managerA := newTestManager(time.Hour)
	managerB := NewJWTManager(&config.JWTConfig{
		Secret:     "different-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
	})

	pair, err := managerA.GenerateTokenPair(1)
	require.NoError(t, err)

	_, err = managerB.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	manager := newTestManager(-time.Minute)

	pair, err := manager.GenerateTokenPair(1)
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	manager := newTestManager(time.Hour)

	_, err := manager.ValidateToken("not-a-token")
	assert.Error(t, err)
}
