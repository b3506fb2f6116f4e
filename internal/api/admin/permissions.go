package admin

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
)

// PermissionHandlers handles the permission catalogue and group-to-permission
// assignment endpoints
type PermissionHandlers struct {
	db             *sql.DB
	permissionRepo *repositories.PermissionRepository
	groupRepo      *repositories.GroupRepository
}

// NewPermissionHandlers creates a new PermissionHandlers instance
func NewPermissionHandlers(db *sql.DB) *PermissionHandlers {
	return &PermissionHandlers{
		db:             db,
		permissionRepo: repositories.NewPermissionRepository(sqlx.NewDb(db, "postgres")),
		groupRepo:      repositories.NewGroupRepository(db),
	}
}

// PermissionAssignmentRequest is the request body for replacing a group's permission set
type PermissionAssignmentRequest struct {
	PermissionIDs []int64 `json:"permission_ids" binding:"required"`
}

// @Summary      List permissions
// @Description  List the permission catalogue. Permissions are seeded reference data and never change at runtime.
// @Tags         Admin - Permissions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "permissions: []models.Permission, count: int"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/permissions [get]
// ListPermissionsHandler lists the permission catalogue
// GET /api/v1/admin/permissions
func (h *PermissionHandlers) ListPermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		permissions, err := h.permissionRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list permissions",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"permissions": permissions,
			"count":       len(permissions),
		})
	}
}

// @Summary      Get group permissions
// @Description  List the IDs of every permission assigned to the group
// @Tags         Admin - Permissions
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Group ID"
// @Success      200  {object}  map[string]interface{}  "group_id, permission_ids"
// @Failure      400  {object}  map[string]interface{}  "Invalid group ID"
// @Failure      404  {object}  map[string]interface{}  "Group not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups/{id}/permissions [get]
// GetGroupPermissionsHandler lists a group's assigned permission IDs
// GET /api/v1/admin/groups/:id/permissions
func (h *PermissionHandlers) GetGroupPermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := parseGroupID(c)
		if !ok {
			return
		}

		group, err := h.groupRepo.GetByID(c.Request.Context(), groupID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get group",
			})
			return
		}
		if group == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Group not found",
			})
			return
		}

		permissionIDs, err := h.groupRepo.GetPermissionIDs(c.Request.Context(), groupID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get group permissions",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"group_id":       groupID,
			"permission_ids": permissionIDs,
		})
	}
}

// @Summary      Replace group permissions
// @Description  Replace the group's entire permission set with the supplied list. An empty list strips the group of every permission. Takes effect on members' next login; existing tokens keep their claims until expiry.
// @Tags         Admin - Permissions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "Group ID"
// @Param        body  body  PermissionAssignmentRequest  true  "Complete target permission set"
// @Success      200  {object}  map[string]interface{}  "group_id, permission_ids"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or unknown permission"
// @Failure      404  {object}  map[string]interface{}  "Group not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups/{id}/permissions [put]
// ReplaceGroupPermissionsHandler replaces a group's permission set
// PUT /api/v1/admin/groups/:id/permissions
func (h *PermissionHandlers) ReplaceGroupPermissionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := parseGroupID(c)
		if !ok {
			return
		}

		var req PermissionAssignmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		// One round trip to validate the whole set. Any unknown or duplicate ID
		// makes the count come up short and fails the request.
		count, err := h.permissionRepo.CountByIDs(c.Request.Context(), req.PermissionIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to validate permissions",
			})
			return
		}
		if count != len(req.PermissionIDs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown or duplicate permission in request",
			})
			return
		}

		found, err := h.groupRepo.ReplacePermissions(c.Request.Context(), groupID, req.PermissionIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update group permissions",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Group not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"group_id":       groupID,
			"permission_ids": req.PermissionIDs,
		})
	}
}
