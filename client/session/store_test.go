package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func identityToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{
		"sub":    "user-1",
		"tenant": "tenant_a",
		"email":  "ada@example.com",
		"name":   "Ada",
	})
}

func TestIsAuthenticatedRequiresUserAndToken(t *testing.T) {
	s, err := NewStore(NewMemKV(), nil, zap.NewNop())
	require.NoError(t, err)

	if s.IsAuthenticated() {
		t.Fatal("empty store reported authenticated")
	}

	_, err = s.Login(identityToken(t))
	require.NoError(t, err)

	if !s.IsAuthenticated() {
		t.Fatal("store not authenticated after login")
	}
	require.Equal(t, "tenant_a", s.TenantID())

	s.Logout()
	if s.IsAuthenticated() {
		t.Fatal("store still authenticated after logout")
	}
	if s.Current() != nil {
		t.Fatal("session survived logout")
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	kv := NewMemKV()

	first, err := NewStore(kv, nil, zap.NewNop())
	require.NoError(t, err)
	want, err := first.Login(identityToken(t))
	require.NoError(t, err)

	second, err := NewStore(kv, nil, zap.NewNop())
	require.NoError(t, err)

	got := second.Current()
	require.NotNil(t, got)
	require.Equal(t, *want, *got)
	require.True(t, second.IsAuthenticated())
}

func TestRehydrateDiscardsPartialState(t *testing.T) {
	kv := NewMemKV()
	// Token present, user identity missing: not a valid session.
	require.NoError(t, kv.Put(storageKey, []byte(`{"token":"orphan"}`)))

	s, err := NewStore(kv, nil, zap.NewNop())
	require.NoError(t, err)

	if s.IsAuthenticated() {
		t.Fatal("partial persisted state reported authenticated")
	}
	require.Nil(t, s.Current())
}

func TestLoginDefaultsTenant(t *testing.T) {
	s, err := NewStore(NewMemKV(), nil, zap.NewNop())
	require.NoError(t, err)

	// Identity-provider credentials may carry no tenant claim.
	sess, err := s.Login(signToken(t, jwt.MapClaims{
		"sub":   "user-2",
		"email": "bob@example.com",
	}))
	require.NoError(t, err)
	require.Equal(t, DefaultTenant, sess.TenantID)
}

func TestLoginRejectsGarbage(t *testing.T) {
	s, err := NewStore(NewMemKV(), nil, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Login("not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredential)
	require.False(t, s.IsAuthenticated())
}

// failingKV accepts reads but refuses every write.
type failingKV struct {
	*MemKV
}

func (f *failingKV) Put(string, []byte) error {
	return errors.New("disk full")
}

func TestLoginFailedPersistLeavesStoreSignedOut(t *testing.T) {
	s, err := NewStore(&failingKV{MemKV: NewMemKV()}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = s.Login(identityToken(t))
	require.Error(t, err)
	require.False(t, s.IsAuthenticated())
	require.Nil(t, s.Current())
	require.Empty(t, s.Token())
}

func TestSwitchTenant(t *testing.T) {
	kv := NewMemKV()
	s, err := NewStore(kv, nil, zap.NewNop())
	require.NoError(t, err)

	// Unauthenticated switch is a no-op.
	require.NoError(t, s.SwitchTenant("tenant_b"))
	require.Equal(t, "", s.TenantID())

	_, err = s.Login(identityToken(t))
	require.NoError(t, err)
	require.NoError(t, s.SwitchTenant("tenant_b"))
	require.Equal(t, "tenant_b", s.TenantID())

	// The switch persists across restarts.
	restored, err := NewStore(kv, nil, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "tenant_b", restored.TenantID())
}

func TestUnauthorizedSignalClearsSession(t *testing.T) {
	kv := NewMemKV()
	bus := NewBroadcaster()

	s, err := NewStore(kv, bus, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Login(identityToken(t))
	require.NoError(t, err)

	bus.Publish(TopicUnauthorized)

	if s.IsAuthenticated() {
		t.Fatal("session survived the unauthorized signal")
	}
	if _, ok, _ := kv.Get(storageKey); ok {
		t.Fatal("persisted session survived the unauthorized signal")
	}
}
