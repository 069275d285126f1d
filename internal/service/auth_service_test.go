package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"smarttasks/internal/auth"
	"smarttasks/internal/model"
)

// memUserStore keeps users in a map, keyed by email.
type memUserStore struct {
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) CreateUser(_ context.Context, u *model.User) error {
	s.users[u.Email] = u
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

const testSecret = "test-secret"

func signAssertion(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("idp-secret"))
	require.NoError(t, err)
	return token
}

func TestLoginWithIdentityDefaultsTenant(t *testing.T) {
	store := newMemUserStore()
	svc := NewAuthService(store, nil, testSecret)

	assertion := signAssertion(t, jwt.MapClaims{
		"sub":   "ext-1",
		"email": "ada@example.com",
		"name":  "Ada",
	})

	token, err := svc.LoginWithIdentity(context.Background(), assertion)
	require.NoError(t, err)

	// The token we hand back must survive the middleware's full parse.
	claims, err := auth.ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, DefaultTenant, claims.TenantID)

	u := store.users["ada@example.com"]
	require.NotNil(t, u)
	require.Equal(t, DefaultTenant, u.TenantID)
}

func TestLoginWithIdentityKeepsTenantClaim(t *testing.T) {
	store := newMemUserStore()
	svc := NewAuthService(store, nil, testSecret)

	assertion := signAssertion(t, jwt.MapClaims{
		"sub":    "ext-2",
		"email":  "bob@example.com",
		"tenant": "tenant_x",
	})

	token, err := svc.LoginWithIdentity(context.Background(), assertion)
	require.NoError(t, err)

	claims, err := auth.ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "tenant_x", claims.TenantID)
}

func TestLoginWithIdentityReusesExistingUser(t *testing.T) {
	store := newMemUserStore()
	svc := NewAuthService(store, nil, testSecret)

	assertion := signAssertion(t, jwt.MapClaims{
		"sub":    "ext-3",
		"email":  "eve@example.com",
		"tenant": "tenant_x",
	})

	_, err := svc.LoginWithIdentity(context.Background(), assertion)
	require.NoError(t, err)
	first := store.users["eve@example.com"]

	_, err = svc.LoginWithIdentity(context.Background(), assertion)
	require.NoError(t, err)
	require.Equal(t, first, store.users["eve@example.com"], "second identity login re-provisioned the user")
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemUserStore()
	svc := NewAuthService(store, nil, testSecret)
	ctx := context.Background()

	u, err := svc.Register(ctx, "ada@example.com", "s3cretpass", "Ada")
	require.NoError(t, err)
	require.Equal(t, DefaultTenant, u.TenantID)
	require.NotEqual(t, "s3cretpass", u.PasswordHash)

	_, err = svc.Register(ctx, "ada@example.com", "otherpass99", "Ada Again")
	require.ErrorIs(t, err, ErrEmailTaken)

	token, err := svc.Login(ctx, "ada@example.com", "s3cretpass")
	require.NoError(t, err)
	claims, err := auth.ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)

	_, err = svc.Login(ctx, "ada@example.com", "wrongpass")
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cretpass")
	require.ErrorIs(t, err, ErrBadCredentials)
}
