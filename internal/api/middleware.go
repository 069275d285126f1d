package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttasks/internal/auth"
	"smarttasks/pkg/metrics"
	"smarttasks/pkg/trace"
)

// Gin context keys set by the middleware chain.
const (
	ctxUserID   = "user_id"
	ctxTenantID = "tenant_id"
	ctxClaims   = "claims"
)

// TraceMiddleware attaches a trace ID to the request context, reusing the
// caller's when one is propagated.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(trace.HeaderName)
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

// RequestLogMiddleware logs every request after it completes.
func RequestLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", trace.FromContext(c.Request.Context())),
		)
	}
}

// MetricsMiddleware records request duration per route and status.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// TokenRevocations is the slice of the revoker the middleware consults.
// *auth.Revoker satisfies it.
type TokenRevocations interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// AuthMiddleware verifies the bearer token, rejects revoked tokens, and
// stores the caller's identity in the gin context. The tenant is always the
// one the token carries; requests cannot pick a tenant.
func AuthMiddleware(jwtSecret string, revoker TokenRevocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractToken(c.Request)
		if token == "" {
			metrics.AuthRejectedCount.WithLabelValues("missing").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(token, jwtSecret)
		if err != nil {
			metrics.AuthRejectedCount.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		if revoker != nil && revoker.IsRevoked(c.Request.Context(), claims.TokenID) {
			metrics.AuthRejectedCount.WithLabelValues("revoked").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxTenantID, claims.TenantID)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

// tenantFrom returns the authenticated tenant, aborting with 401 when the
// auth middleware did not run.
func tenantFrom(c *gin.Context) (string, bool) {
	tenantID := c.GetString(ctxTenantID)
	if tenantID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return "", false
	}
	return tenantID, true
}

// pagingFrom parses the page/size query parameters, zero-based.
func pagingFrom(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}
