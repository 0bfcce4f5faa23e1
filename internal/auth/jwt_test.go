package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/config"
)

func testConfig() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour, Issuer: "tourbook"}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateAccessToken(cfg, 42, "agent@example.com", "AGENT")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "AGENT", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateRejectsUnknownRole(t *testing.T) {
	_, err := GenerateAccessToken(testConfig(), 1, "a@example.com", "ROOT")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = GenerateAccessToken(testConfig(), 0, "a@example.com", "CUSTOMER")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejects(t *testing.T) {
	cfg := testConfig()
	tok, err := GenerateAccessToken(cfg, 1, "a@example.com", "CUSTOMER")
	require.NoError(t, err)

	other := &config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Hour, Issuer: "tourbook"}
	_, err = ParseAccessToken(other, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := &config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour, Issuer: "someone-else"}
	_, err = ParseAccessToken(foreign, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &config.JWTConfig{AccessSecret: "secret", AccessExpiry: -time.Minute, Issuer: "tourbook"}
	old, err := GenerateAccessToken(expired, 1, "a@example.com", "CUSTOMER")
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, old)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsMismatchedSubject(t *testing.T) {
	cfg := testConfig()
	claims := Claims{
		UserID: 7,
		Role:   "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8",
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.AccessSecret))
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := BearerToken(h)
		assert.False(t, ok, h)
	}
}
