package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-delivery-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Food Delivery Backend"},
		JWT: config.JWTConfig{
			Secret:            "test-secret-that-is-at-least-32-characters",
			AccessTokenExpiry: time.Hour,
		},
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager(testConfig())

	token, err := manager.GenerateAccessToken(42, "ana@example.com", true)
	require.NoError(t, err)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestJWTManager_Rejects(t *testing.T) {
	cfg := testConfig()
	manager := NewJWTManager(cfg)

	other := testConfig()
	other.JWT.Secret = "a-completely-different-secret-of-32-chars"
	foreign, err := NewJWTManager(other).GenerateAccessToken(1, "x@example.com", false)
	require.NoError(t, err)

	expiredCfg := testConfig()
	expiredCfg.JWT.AccessTokenExpiry = -time.Minute
	expired, err := NewJWTManager(expiredCfg).GenerateAccessToken(1, "x@example.com", false)
	require.NoError(t, err)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 1, TokenType: "refresh"})
	refreshToken, err := refresh.SignedString([]byte(cfg.JWT.Secret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":       "not-a-token",
		"wrong secret":  foreign,
		"expired":       expired,
		"refresh token": refreshToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := manager.ValidateAccessToken(token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}
