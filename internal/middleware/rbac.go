// Package middleware (rbac.go) implements permission-based authorization middleware.
//
// Permission claims are embedded in the JWT at login time and read from the
// request context here. A user's permission change therefore takes effect on
// their next login rather than their next request, and a token issued before a
// revocation stays valid until it expires.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/auth"
)

// RequirePermission checks if the authenticated user holds the required permission
func RequirePermission(permission auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get permissions from context (set by AuthMiddleware)
		permsVal, exists := c.Get(ContextPermissions)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		userPerms, ok := permsVal.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid permissions format",
			})
			return
		}

		if !auth.HasPermission(userPerms, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required permission",
				"details": "Required permission: " + string(permission),
			})
			return
		}

		c.Next()
	}
}

// RequireAnyPermission checks if the authenticated user holds at least one of the required permissions
func RequireAnyPermission(permissions ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		permsVal, exists := c.Get(ContextPermissions)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		userPerms, ok := permsVal.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid permissions format",
			})
			return
		}

		if !auth.HasAnyPermission(userPerms, permissions) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Missing required permission",
			})
			return
		}

		c.Next()
	}
}

// RequireAllPermissions checks if the authenticated user holds all of the required permissions
func RequireAllPermissions(permissions ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		permsVal, exists := c.Get(ContextPermissions)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		userPerms, ok := permsVal.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Invalid permissions format",
			})
			return
		}

		if !auth.HasAllPermissions(userPerms, permissions) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Missing one or more required permissions",
			})
			return
		}

		c.Next()
	}
}
