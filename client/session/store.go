// Package session holds the authenticated user's identity and bearer token
// for the lifetime of the process, persisted across restarts in durable
// local storage. It is the single owned session service every consumer gets
// handed a reference to; there is no package-level session.
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"smarttasks/internal/auth"
)

// storageKey is where the serialized session lives in the KV.
const storageKey = "smarttasks_session"

// DefaultTenant is assumed when an identity credential carries no tenant
// claim.
const DefaultTenant = "tenant_default"

// ErrInvalidCredential means the identity token could not be decoded.
var ErrInvalidCredential = errors.New("invalid credential")

// Session is the authenticated identity plus the bearer token API calls
// are signed with. A session is authenticated exactly when both the user
// identity and the token are present.
type Session struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	TenantID    string `json:"tenantId"`
	Token       string `json:"token"`
}

// Store owns the current session. All mutations persist before returning,
// so a restart rehydrates exactly what the last operation left behind.
type Store struct {
	mu     sync.Mutex
	kv     KV
	logger *zap.Logger
	cur    *Session
}

// NewStore rehydrates any persisted session and subscribes to the
// unauthorized signal for its lifetime.
func NewStore(kv KV, bus *Broadcaster, logger *zap.Logger) (*Store, error) {
	s := &Store{
		kv:     kv,
		logger: logger,
	}

	data, ok, err := kv.Get(storageKey)
	if err != nil {
		return nil, err
	}
	if ok {
		var sess Session
		if err := json.Unmarshal(data, &sess); err == nil && sess.UserID != "" && sess.Token != "" {
			s.cur = &sess
		}
		// A session missing either the user or the token is not
		// authenticated; leave it behind as garbage to overwrite.
	}

	if bus != nil {
		bus.Subscribe(TopicUnauthorized, s.forcedLogout)
	}
	return s, nil
}

// Login decodes an externally-issued identity credential and installs the
// session it describes. The signature is not checked here: the issuer
// signed it and the server independently verifies every API call.
func (s *Store) Login(credential string) (*Session, error) {
	claims, err := auth.DecodeToken(credential)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	tenant := claims.TenantID
	if tenant == "" {
		tenant = DefaultTenant
	}

	sess := &Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
		TenantID:    tenant,
		Token:       credential,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cur
	s.cur = sess
	if err := s.persistLocked(); err != nil {
		// Never report authenticated state the next start cannot rehydrate.
		s.cur = prev
		return nil, err
	}

	out := *sess
	return &out, nil
}

// LoginWithToken installs a session for a server-issued token. Used after
// exchanging credentials with the API's auth endpoints.
func (s *Store) LoginWithToken(token string) (*Session, error) {
	return s.Login(token)
}

// Logout clears the session unconditionally. It always succeeds; a failed
// persistence write is logged and the in-memory state is gone regardless.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) forcedLogout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return
	}
	if s.logger != nil {
		s.logger.Info("Session cleared by unauthorized signal",
			zap.String("user_id", s.cur.UserID),
		)
	}
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.cur = nil
	if err := s.kv.Delete(storageKey); err != nil && s.logger != nil {
		s.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}
}

// SwitchTenant changes the tenant the session acts in. A no-op when
// unauthenticated.
func (s *Store) SwitchTenant(tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	prev := s.cur.TenantID
	s.cur.TenantID = tenantID
	if err := s.persistLocked(); err != nil {
		s.cur.TenantID = prev
		return err
	}
	return nil
}

// Current returns a copy of the session, or nil when unauthenticated.
func (s *Store) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return nil
	}
	out := *s.cur
	return &out
}

// IsAuthenticated reports whether a user identity and a token are both
// held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && s.cur.UserID != "" && s.cur.Token != ""
}

// Token returns the bearer token, or "". Implements the request client's
// token source.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.Token
}

// Clear drops the session. Implements the request client's token source;
// same effect as Logout.
func (s *Store) Clear() {
	s.Logout()
}

// TenantID returns the current tenant, or "" when unauthenticated.
func (s *Store) TenantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.TenantID
}

func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.cur)
	if err != nil {
		return err
	}
	return s.kv.Put(storageKey, data)
}
