package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"smarttasks/internal/model"
)

const tokenLifetime = 24 * time.Hour

// Claims is the decoded identity a token carries. The tenant travels inside
// the token; clients never pick their own tenant.
type Claims struct {
	UserID      string
	TenantID    string
	Email       string
	DisplayName string
	AvatarURL   string
	TokenID     string
	ExpiresAt   time.Time
}

// GenerateToken issues a signed token for a user.
func GenerateToken(u *model.User, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     u.ID,
		"tenant":  u.TenantID,
		"email":   u.Email,
		"name":    u.DisplayName,
		"picture": u.AvatarURL,
		"jti":     uuid.NewString(),
		"exp":     now.Add(tokenLifetime).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token signature and extracts its claims.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenMalformed
	}

	claims, err := claimsFromMap(mc)
	if err != nil {
		return nil, err
	}
	if claims.TenantID == "" {
		return nil, errors.New("token carries no tenant")
	}
	return claims, nil
}

// DecodeToken extracts claims without checking the signature. The client
// side uses this on identity-provider credentials: the issuer signed them
// and the server re-verifies on every call, the client only needs to read
// who it is acting as.
func DecodeToken(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenMalformed
	}
	return claimsFromMap(mc)
}

func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, ok := mc["sub"].(string)
	if !ok || sub == "" {
		return nil, jwt.ErrTokenMalformed
	}

	c := &Claims{UserID: sub}
	if v, ok := mc["tenant"].(string); ok {
		c.TenantID = v
	}
	if v, ok := mc["email"].(string); ok {
		c.Email = v
	}
	if v, ok := mc["name"].(string); ok {
		c.DisplayName = v
	}
	if v, ok := mc["picture"].(string); ok {
		c.AvatarURL = v
	}
	if v, ok := mc["jti"].(string); ok {
		c.TokenID = v
	}
	if v, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(v), 0)
	}
	return c, nil
}

// ExtractToken pulls the bearer token out of the Authorization header.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
