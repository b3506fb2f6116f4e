package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
)

// MembershipHandlers handles administrative user-to-group assignment endpoints
type MembershipHandlers struct {
	db             *sql.DB
	membershipRepo *repositories.MembershipRepository
	groupRepo      *repositories.GroupRepository
}

// NewMembershipHandlers creates a new MembershipHandlers instance
func NewMembershipHandlers(db *sql.DB) *MembershipHandlers {
	return &MembershipHandlers{
		db:             db,
		membershipRepo: repositories.NewMembershipRepository(db),
		groupRepo:      repositories.NewGroupRepository(db),
	}
}

// MembershipRequest is the request body for replacing a user's group set
type MembershipRequest struct {
	GroupIDs []int64 `json:"group_ids" binding:"required"`
}

// @Summary      Get user memberships
// @Description  List the IDs of every group the user belongs to
// @Tags         Admin - Memberships
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user_id, group_ids"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/groups [get]
// GetUserGroupsHandler lists a user's group IDs
// GET /api/v1/admin/users/:id/groups
func (h *MembershipHandlers) GetUserGroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		groupIDs, err := h.membershipRepo.GetUserGroupIDs(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get user memberships",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user_id":   userID,
			"group_ids": groupIDs,
		})
	}
}

// @Summary      Replace user memberships
// @Description  Replace the user's entire group set with the supplied list. An empty list removes the user from every group. Takes effect on the user's next login; existing tokens keep their claims until expiry.
// @Tags         Admin - Memberships
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  MembershipRequest  true  "Complete target group set"
// @Success      200  {object}  map[string]interface{}  "user_id, group_ids"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or unknown group"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/groups [put]
// ReplaceUserGroupsHandler replaces a user's group set
// PUT /api/v1/admin/users/:id/groups
func (h *MembershipHandlers) ReplaceUserGroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req MembershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		// Reject the whole request on the first unknown group so a typo cannot
		// silently shrink the target set.
		for _, groupID := range req.GroupIDs {
			group, err := h.groupRepo.GetByID(c.Request.Context(), groupID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to validate groups",
				})
				return
			}
			if group == nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":    "Unknown group in request",
					"group_id": groupID,
				})
				return
			}
		}

		found, err := h.membershipRepo.ReplaceUserGroups(c.Request.Context(), userID, req.GroupIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update user memberships",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user_id":   userID,
			"group_ids": req.GroupIDs,
		})
	}
}
