package account

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tunex/cache"
	"tunex/core/access"
	"tunex/core/apperr"
	"tunex/core/auth"
	"tunex/internal/dbtest"
	"tunex/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T, withRedis bool) *Service {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	if !withRedis {
		return NewService(store, tokens, nil)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(store, tokens, cache.NewTokenDenylist(client))
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)

	user, err := svc.Register(ctx, "mia", " Mia@Example.com ", "pw123", "CREATOR")
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", user.Email)
	assert.NotEqual(t, "pw123", user.PasswordHash)

	_, err = svc.Register(ctx, "other", "mia@example.com", "pw", "USER")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	session, err := svc.Login(ctx, "mia@example.com", "pw123", "CREATOR")
	require.NoError(t, err)
	assert.Equal(t, "CREATOR", session.Role)

	id, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, []access.Role{access.RoleCreator}, id.Roles)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)

	cases := []struct {
		name                            string
		username, email, password, role string
	}{
		{"missing username", "", "a@b.c", "pw", "USER"},
		{"missing password", "a", "a@b.c", "", "USER"},
		{"password too long", "a", "a@b.c", strings.Repeat("p", 73), "USER"},
		{"bad email", "a", "not-an-email", "pw", "USER"},
		{"admin role", "a", "a@b.c", "pw", "ADMIN"},
		{"unknown role", "a", "a@b.c", "pw", "DJ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, tc.role)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	_, err := svc.Register(ctx, "lee", "lee@example.com", "secret", "USER")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "lee@example.com", "wrong", "USER")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "secret", "USER")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Login(ctx, "lee@example.com", "secret", "ADMIN")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	assert.Contains(t, err.Error(), "Unauthorized role")
}

func TestLoginUpgradesPasswordCost(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	prev := auth.PasswordCost()
	t.Cleanup(func() { auth.SetPasswordCost(prev) })

	auth.SetPasswordCost(bcrypt.MinCost)
	user, err := svc.Register(ctx, "ivy", "ivy@example.com", "pw123", "USER")
	require.NoError(t, err)

	auth.SetPasswordCost(bcrypt.MinCost + 1)
	_, err = svc.Login(ctx, "ivy@example.com", "pw123", "USER")
	require.NoError(t, err)

	stored, err := svc.store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.True(t, auth.CheckPasswordHash("pw123", stored.PasswordHash))
}

func TestSeededAdminCanLogin(t *testing.T) {
	svc := newService(t, false)
	session, err := svc.Login(context.Background(), "admin@tunex.com", "admin123", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "TUNEX_ADMIN", session.User.Username)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, true)
	_, err := svc.Register(ctx, "kai", "kai@example.com", "pw", "USER")
	require.NoError(t, err)

	first, err := svc.Login(ctx, "kai@example.com", "pw", "USER")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "kai@example.com", "pw", "USER")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.Token))

	_, err = svc.Authenticate(ctx, first.Token)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = svc.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	assert.True(t, errors.Is(svc.Logout(ctx, "garbage"), apperr.ErrUnauthorized))
}

func TestLogoutWithoutRedisIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	session, err := svc.Login(ctx, "admin@tunex.com", "admin123", "ADMIN")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.Authenticate(ctx, session.Token)
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, false)
	user, err := svc.Register(ctx, "ro", "ro@example.com", "old", "USER")
	require.NoError(t, err)
	id := access.NewIdentity(user.ID, user.Username, []string{"USER"})

	assert.True(t, errors.Is(svc.ChangePassword(ctx, id, "nope", "new"), apperr.ErrUnauthorized))
	assert.True(t, errors.Is(svc.ChangePassword(ctx, id, "old", ""), apperr.ErrValidation))
	assert.True(t, errors.Is(svc.ChangePassword(ctx, access.Anonymous, "old", "new"), apperr.ErrUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, id, "old", "new"))
	_, err = svc.Login(ctx, "ro@example.com", "old", "USER")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = svc.Login(ctx, "ro@example.com", "new", "USER")
	assert.NoError(t, err)
}
