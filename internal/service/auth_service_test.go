package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourbook/config"
	"tourbook/internal/auth"
	"tourbook/internal/domain"
	"tourbook/internal/logger"
)

func newAuth(t *testing.T, env *testEnv) (*AuthService, *config.Config) {
	t.Helper()
	cfg := &config.Config{JWT: config.JWTConfig{AccessSecret: "test-secret", AccessExpiry: time.Hour, Issuer: "tourbook"}}
	return NewAuthService(cfg, env.store, logger.Discard()), cfg
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, false)
	svc, cfg := newAuth(t, env)

	u, token, err := svc.Register(RegisterInput{Name: "Kim", Email: " Kim@Example.com ", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)

	claims, err := auth.ParseAccessToken(&cfg.JWT, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = svc.Register(RegisterInput{Name: "Kim", Email: "kim@example.com", Password: "longenough"})
	requireKind(t, err, "EMAIL_EXISTS")

	_, _, err = svc.Login("kim@example.com", "wrong-password")
	requireKind(t, err, "INVALID_CREDENTIALS")
	_, _, err = svc.Login("nobody@example.com", "longenough")
	requireKind(t, err, "INVALID_CREDENTIALS")

	got, _, err := svc.Login("KIM@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t, false)
	svc, _ := newAuth(t, env)

	_, _, err := svc.Register(RegisterInput{Name: "A", Email: "nope", Password: "longenough"})
	requireKind(t, err, "INVALID_EMAIL")
	_, _, err = svc.Register(RegisterInput{Name: "A", Email: "a@b.c", Password: "short"})
	requireKind(t, err, "WEAK_PASSWORD")
	_, _, err = svc.Register(RegisterInput{Email: "a@b.c", Password: "longenough"})
	requireKind(t, err, "INVALID_NAME")
}

func TestCreateStaff(t *testing.T) {
	env := newTestEnv(t, false)
	svc, _ := newAuth(t, env)
	in := RegisterInput{Name: "Agent", Email: "agent@example.com", Password: "longenough"}

	_, err := svc.CreateStaff(env.customerActor(), in, domain.RoleAgent)
	requireKind(t, err, "FORBIDDEN")
	_, err = svc.CreateStaff(env.adminActor(), in, domain.RoleCustomer)
	requireKind(t, err, "INVALID_ROLE")

	u, err := svc.CreateStaff(env.adminActor(), in, domain.RoleAgent)
	require.NoError(t, err)
	stored, err := env.store.Users.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, stored.Role)
}
