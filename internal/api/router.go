// Package api wires together all HTTP routes for the user and group
// administration service.
//
// Route grouping philosophy:
//   - /api/v1/auth/register and /api/v1/auth/login are the only unauthenticated
//     endpoints, and they sit behind a stricter rate limit than the rest of the
//     API because both are credential-guessing targets.
//   - Everything else requires a valid session token. Authorization decisions
//     are made from the permission claims inside the token, so a request never
//     triggers a permission lookup against the database. The trade-off is that
//     permission changes reach a user on their next login, not mid-session.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/api/admin"
	authapi "github.com/usergroup-manager/usergroup-manager/internal/api/auth"
	"github.com/usergroup-manager/usergroup-manager/internal/api/stats"
	"github.com/usergroup-manager/usergroup-manager/internal/api/users"
	"github.com/usergroup-manager/usergroup-manager/internal/auth"
	"github.com/usergroup-manager/usergroup-manager/internal/config"
	"github.com/usergroup-manager/usergroup-manager/internal/middleware"
)

// BackgroundServices holds references to background resources that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices, error) {
	router := gin.New()

	issuer, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Initialize handlers
	authHandlers := authapi.NewHandlers(cfg, db, issuer)
	userModeration := admin.NewUserHandlers(db)
	groupHandlers := admin.NewGroupHandlers(db)
	membershipHandlers := admin.NewMembershipHandlers(db)
	permissionHandlers := admin.NewPermissionHandlers(db)
	userHandlers := users.NewHandlers(db)
	statsHandlers := stats.NewHandlers(db)

	// Initialize rate limiters. The auth limiter is stricter because register
	// and login accept credentials from unauthenticated clients.
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		// Authentication routes (public, strict rate limit)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/register", authHandlers.RegisterHandler())
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.GET("/me", middleware.AuthMiddleware(issuer), authHandlers.MeHandler())
		}

		// Everything below requires a valid token
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		authenticatedGroup.Use(middleware.AuthMiddleware(issuer))
		{
			// User directory
			usersReadGroup := authenticatedGroup.Group("/users")
			usersReadGroup.Use(middleware.RequirePermission(auth.PermissionViewUsers))
			{
				usersReadGroup.GET("", userHandlers.ListUsersHandler())
			}

			usersWriteGroup := authenticatedGroup.Group("/users")
			usersWriteGroup.Use(middleware.RequirePermission(auth.PermissionManageUsers))
			{
				usersWriteGroup.PUT("/:id", userHandlers.UpdateUserHandler())
				usersWriteGroup.DELETE("/:id", userHandlers.DeleteUserHandler())
			}

			// Registration moderation and membership assignment
			adminUsersGroup := authenticatedGroup.Group("/admin/users")
			adminUsersGroup.Use(middleware.RequirePermission(auth.PermissionManageUsers))
			{
				adminUsersGroup.GET("/pending", userModeration.ListPendingUsersHandler())
				adminUsersGroup.GET("/:id", userModeration.GetUserHandler())
				adminUsersGroup.POST("/:id/approve", userModeration.ApproveUserHandler())
				adminUsersGroup.POST("/:id/reject", userModeration.RejectUserHandler())
				adminUsersGroup.GET("/:id/groups", membershipHandlers.GetUserGroupsHandler())
				adminUsersGroup.PUT("/:id/groups", membershipHandlers.ReplaceUserGroupsHandler())
			}

			// Group CRUD and permission assignment
			groupsReadGroup := authenticatedGroup.Group("/admin/groups")
			groupsReadGroup.Use(middleware.RequirePermission(auth.PermissionViewGroups))
			{
				groupsReadGroup.GET("", groupHandlers.ListGroupsHandler())
				groupsReadGroup.GET("/:id", groupHandlers.GetGroupHandler())
				groupsReadGroup.GET("/:id/permissions", permissionHandlers.GetGroupPermissionsHandler())
			}

			groupsWriteGroup := authenticatedGroup.Group("/admin/groups")
			groupsWriteGroup.Use(middleware.RequirePermission(auth.PermissionManageGroups))
			{
				groupsWriteGroup.POST("", groupHandlers.CreateGroupHandler())
				groupsWriteGroup.PUT("/:id", groupHandlers.RenameGroupHandler())
				groupsWriteGroup.DELETE("/:id", groupHandlers.DeleteGroupHandler())
				groupsWriteGroup.PUT("/:id/permissions", permissionHandlers.ReplaceGroupPermissionsHandler())
			}

			// Permission catalogue (read-only reference data)
			permissionsGroup := authenticatedGroup.Group("/admin/permissions")
			permissionsGroup.Use(middleware.RequirePermission(auth.PermissionViewGroups))
			{
				permissionsGroup.GET("", permissionHandlers.ListPermissionsHandler())
			}

			// Reporting
			statsGroup := authenticatedGroup.Group("/stats")
			statsGroup.Use(middleware.RequirePermission(auth.PermissionViewReports))
			{
				statsGroup.GET("/users/count", statsHandlers.CountUsersHandler())
				statsGroup.GET("/groups/members", statsHandlers.GroupMemberCountsHandler())
			}
		}
	}

	backgroundServices := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter},
	}

	return router, backgroundServices, nil
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the service and API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
