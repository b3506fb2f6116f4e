// Package admin implements the administrative endpoints: pending-registration
// moderation, group CRUD, membership assignment, and permission assignment.
// Every route in this package sits behind AuthMiddleware plus a permission gate.
package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
	"github.com/usergroup-manager/usergroup-manager/internal/telemetry"
)

// UserHandlers handles administrative user moderation endpoints
type UserHandlers struct {
	db       *sql.DB
	userRepo *repositories.UserRepository
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(db *sql.DB) *UserHandlers {
	return &UserHandlers{
		db:       db,
		userRepo: repositories.NewUserRepository(db),
	}
}

// @Summary      List pending registrations
// @Description  List all accounts awaiting approval, oldest first
// @Tags         Admin - Users
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "users: []models.User, count: int"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/pending [get]
// ListPendingUsersHandler lists accounts awaiting approval
// GET /api/v1/admin/users/pending
func (h *UserHandlers) ListPendingUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.userRepo.ListByStatus(c.Request.Context(), models.UserStatusPending)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list pending users",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"users": users,
			"count": len(users),
		})
	}
}

// @Summary      Approve registration
// @Description  Activate a pending account so the user can log in. Approving an already-active account is a no-op.
// @Tags         Admin - Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/approve [post]
// ApproveUserHandler activates a pending account
// POST /api/v1/admin/users/:id/approve
func (h *UserHandlers) ApproveUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		found, err := h.userRepo.SetStatus(c.Request.Context(), userID, models.UserStatusActive)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to approve user",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		telemetry.UserModerationsTotal.WithLabelValues("approve").Inc()

		c.JSON(http.StatusOK, gin.H{
			"message": "User approved",
		})
	}
}

// @Summary      Reject registration
// @Description  Decline an account. The record is kept so the email stays reserved and the user sees a distinct rejection on login.
// @Tags         Admin - Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/reject [post]
// RejectUserHandler declines an account
// POST /api/v1/admin/users/:id/reject
func (h *UserHandlers) RejectUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		found, err := h.userRepo.SetStatus(c.Request.Context(), userID, models.UserStatusDeclined)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to reject user",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		telemetry.UserModerationsTotal.WithLabelValues("reject").Inc()

		c.JSON(http.StatusOK, gin.H{
			"message": "User rejected",
		})
	}
}

// @Summary      Get user detail
// @Description  Retrieve a single user with their group memberships and effective permissions
// @Tags         Admin - Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user, memberships, effective_permissions"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id} [get]
// GetUserHandler retrieves a single user with membership detail
// GET /api/v1/admin/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		user, err := h.userRepo.GetWithGroups(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user":                  user.User,
			"memberships":           user.Memberships,
			"effective_permissions": user.EffectivePermissions(),
		})
	}
}
