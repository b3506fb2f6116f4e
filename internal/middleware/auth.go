// Package middleware provides Gin HTTP middleware for authentication, authorization,
// rate limiting, security headers, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → RBAC → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity and permission claims; RBAC reads from that context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/auth"
)

// Context keys set by AuthMiddleware and read by downstream middleware and handlers.
const (
	ContextUserID      = "user_id"
	ContextEmail       = "email"
	ContextName        = "name"
	ContextPermissions = "permissions"
	ContextClaims      = "claims"
)

// AuthMiddleware validates the bearer token and populates the request context with
// the caller's identity and permission claims.
//
// Permissions are read from the token, not re-resolved against the database. A
// group or permission change therefore takes effect on the next login, and a
// token issued before a revocation stays valid until it expires.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		// Check if it starts with "Bearer "
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		// Extract token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		token = strings.TrimSpace(token)

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		// Set context values
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextName, claims.Name)
		c.Set(ContextPermissions, claims.Permissions)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// OptionalAuthMiddleware - same as AuthMiddleware but doesn't abort if no auth
func OptionalAuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// No auth provided, continue without setting user context
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			// Invalid format, continue without auth
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		if claims, err := issuer.Verify(token); err == nil {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextName, claims.Name)
			c.Set(ContextPermissions, claims.Permissions)
			c.Set(ContextClaims, claims)
		}

		// Continue regardless of auth status
		c.Next()
	}
}

// GetPermissions returns the caller's permission claims from the gin context.
// Returns an empty slice when the request is unauthenticated.
func GetPermissions(c *gin.Context) []string {
	v, ok := c.Get(ContextPermissions)
	if !ok {
		return []string{}
	}
	perms, ok := v.([]string)
	if !ok {
		return []string{}
	}
	return perms
}

// GetUserID returns the authenticated caller's user ID, or "" when unauthenticated.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
