// Package auth implements the public authentication endpoints: registration,
// login, and the current-user lookup.
package auth

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authn "github.com/usergroup-manager/usergroup-manager/internal/auth"
	"github.com/usergroup-manager/usergroup-manager/internal/config"
	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
	"github.com/usergroup-manager/usergroup-manager/internal/middleware"
	"github.com/usergroup-manager/usergroup-manager/internal/telemetry"
)

// Handlers handles authentication-related endpoints
type Handlers struct {
	cfg            *config.Config
	db             *sql.DB
	userRepo       *repositories.UserRepository
	membershipRepo *repositories.MembershipRepository
	issuer         *authn.TokenIssuer
}

// NewHandlers creates a new auth Handlers instance
func NewHandlers(cfg *config.Config, db *sql.DB, issuer *authn.TokenIssuer) *Handlers {
	return &Handlers{
		cfg:            cfg,
		db:             db,
		userRepo:       repositories.NewUserRepository(db),
		membershipRepo: repositories.NewMembershipRepository(db),
		issuer:         issuer,
	}
}

// RegisterRequest represents a self-service registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest represents a credential login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Register account
// @Description  Create a new account. The very first account is activated immediately and granted the administrators group; all later accounts start pending and must be approved by an administrator.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterRequest  true  "Registration request"
// @Success      201  {object}  map[string]interface{}  "user: models.User, pending: bool"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Email already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a new account
// POST /api/v1/auth/register
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		// Cheap duplicate check before the expensive bcrypt hash. The unique
		// constraint on users.email still catches concurrent registrations.
		exists, err := h.userRepo.ExistsByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check existing user",
			})
			return
		}
		if exists {
			telemetry.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			c.JSON(http.StatusConflict, gin.H{
				"error": "Email already registered",
			})
			return
		}

		hash, err := authn.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to process registration",
			})
			return
		}

		user := &models.User{
			Email:        email,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			PasswordHash: hash,
		}

		bootstrap, err := h.userRepo.Register(c.Request.Context(), user, h.cfg.Auth.AdminGroup)
		if err != nil {
			if repositories.IsUniqueViolation(err) {
				telemetry.RegistrationsTotal.WithLabelValues("duplicate").Inc()
				c.JSON(http.StatusConflict, gin.H{
					"error": "Email already registered",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create account",
			})
			return
		}

		if bootstrap {
			telemetry.RegistrationsTotal.WithLabelValues("bootstrap").Inc()
		} else {
			telemetry.RegistrationsTotal.WithLabelValues("pending").Inc()
		}

		c.JSON(http.StatusCreated, gin.H{
			"user":    user,
			"pending": user.Status == models.UserStatusPending,
		})
	}
}

// @Summary      Login
// @Description  Exchange email and password for a signed session token. The token embeds the user's effective permissions as resolved from approved group memberships at login time.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Login request"
// @Success      200  {object}  map[string]interface{}  "token, expires_in, user, permissions"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Invalid email or password"
// @Failure      403  {object}  map[string]interface{}  "Account is not active"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates a user and issues a session token
// POST /api/v1/auth/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		user, err := h.userRepo.GetByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Login failed",
			})
			return
		}

		// Unknown email and wrong password produce the same response so the
		// endpoint cannot be used to probe which addresses are registered.
		if user == nil {
			telemetry.LoginsTotal.WithLabelValues("bad_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid email or password",
			})
			return
		}

		if err := authn.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			telemetry.LoginsTotal.WithLabelValues("bad_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid email or password",
			})
			return
		}

		// Correct credentials but a pending or declined account get a distinct
		// response so the frontend can explain the approval flow.
		if user.Status != models.UserStatusActive {
			telemetry.LoginsTotal.WithLabelValues("not_active").Inc()
			c.JSON(http.StatusForbidden, gin.H{
				"error":  "Account is not active",
				"status": user.Status,
			})
			return
		}

		// Resolve effective permissions fresh at login; they travel in the token
		// from here on.
		permissions, err := h.membershipRepo.GetEffectivePermissions(c.Request.Context(), user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Login failed",
			})
			return
		}

		token, err := h.issuer.Issue(user, permissions)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate session token",
			})
			return
		}

		telemetry.LoginsTotal.WithLabelValues("success").Inc()

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_in": int(h.cfg.Auth.TokenTTL.Seconds()),
			"user": gin.H{
				"id":         user.ID,
				"email":      user.Email,
				"first_name": user.FirstName,
				"last_name":  user.LastName,
				"name":       user.DisplayName(),
				"is_admin":   user.IsAdmin,
			},
			"permissions": permissions,
		})
	}
}

// @Summary      Get current user
// @Description  Retrieve the currently authenticated user, including group memberships and effective permissions as stored right now (which may be newer than the token claims).
// @Tags         Authentication
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user, memberships, effective_permissions, token_permissions"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the current authenticated user's information
// GET /api/v1/auth/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			return
		}

		userWithGroups, err := h.userRepo.GetWithGroups(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get user information",
			})
			return
		}

		if userWithGroups == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		memberships := make([]gin.H, 0, len(userWithGroups.Memberships))
		for _, m := range userWithGroups.Memberships {
			memberships = append(memberships, gin.H{
				"group_id":   m.GroupID,
				"group_name": m.GroupName,
				"status":     m.Status,
				"created_at": m.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":         userWithGroups.ID,
				"email":      userWithGroups.Email,
				"first_name": userWithGroups.FirstName,
				"last_name":  userWithGroups.LastName,
				"name":       userWithGroups.DisplayName(),
				"status":     userWithGroups.Status,
				"is_admin":   userWithGroups.IsAdmin,
				"created_at": userWithGroups.CreatedAt,
				"updated_at": userWithGroups.UpdatedAt,
			},
			"memberships": memberships,
			// Fresh from the database; may differ from the token claims when
			// memberships changed after login.
			"effective_permissions": userWithGroups.EffectivePermissions(),
			// As carried by the presented token.
			"token_permissions": middleware.GetPermissions(c),
		})
	}
}
