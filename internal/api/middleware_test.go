package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"smarttasks/internal/auth"
	"smarttasks/internal/model"
)

const testSecret = "test-secret"

// stubRevocations denylists token IDs in memory.
type stubRevocations struct {
	revoked map[string]bool
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) bool {
	return s.revoked[tokenID]
}

func protectedRouter(revoker TokenRevocations) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret, revoker), func(c *gin.Context) {
		tenantID, ok := tenantFrom(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"tenant": tenantID, "user": c.GetString(ctxUserID)})
	})
	return r
}

func issueToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := auth.GenerateToken(&model.User{
		ID:       "user-1",
		TenantID: "tenant_a",
		Email:    "ada@example.com",
	}, secret)
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	r := protectedRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"tenant":"tenant_a"`)
	require.Contains(t, w.Body.String(), `"user":"user-1"`)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := protectedRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	r := protectedRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, "wrong-secret"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	token := issueToken(t, testSecret)
	claims, err := auth.ParseToken(token, testSecret)
	require.NoError(t, err)

	revoker := &stubRevocations{revoked: map[string]bool{claims.TokenID: true}}
	r := protectedRouter(revoker)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A different, still-live token passes the same router.
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, testSecret))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestPagingFromDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=2&size=50", nil)
	page, size := pagingFrom(c)
	require.Equal(t, 2, page)
	require.Equal(t, 50, size)

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	page, size = pagingFrom(c)
	require.Equal(t, 0, page)
	require.Equal(t, 20, size)
}
