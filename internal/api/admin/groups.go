package admin

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
)

// GroupHandlers handles administrative group CRUD endpoints
type GroupHandlers struct {
	db        *sql.DB
	groupRepo *repositories.GroupRepository
}

// NewGroupHandlers creates a new GroupHandlers instance
func NewGroupHandlers(db *sql.DB) *GroupHandlers {
	return &GroupHandlers{
		db:        db,
		groupRepo: repositories.NewGroupRepository(db),
	}
}

// GroupRequest is the request body for creating or renaming a group
type GroupRequest struct {
	Name string `json:"name" binding:"required"`
}

func parseGroupID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid group ID",
		})
		return 0, false
	}
	return id, true
}

// @Summary      List groups
// @Description  List all groups ordered by name
// @Tags         Admin - Groups
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "groups: []models.Group, count: int"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups [get]
// ListGroupsHandler lists all groups
// GET /api/v1/admin/groups
func (h *GroupHandlers) ListGroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := h.groupRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list groups",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"groups": groups,
			"count":  len(groups),
		})
	}
}

// @Summary      Create group
// @Description  Create a new empty group with a unique name
// @Tags         Admin - Groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  GroupRequest  true  "Group to create"
// @Success      201  {object}  models.Group
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      409  {object}  map[string]interface{}  "Group name already taken"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups [post]
// CreateGroupHandler creates a new group
// POST /api/v1/admin/groups
func (h *GroupHandlers) CreateGroupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Group name must not be blank",
			})
			return
		}

		existing, err := h.groupRepo.GetByName(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check group name",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A group with this name already exists",
			})
			return
		}

		group := &models.Group{Name: name}
		if err := h.groupRepo.Create(c.Request.Context(), group); err != nil {
			if repositories.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{
					"error": "A group with this name already exists",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create group",
			})
			return
		}

		c.JSON(http.StatusCreated, group)
	}
}

// @Summary      Get group
// @Description  Retrieve a single group by ID
// @Tags         Admin - Groups
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Group ID"
// @Success      200  {object}  models.Group
// @Failure      400  {object}  map[string]interface{}  "Invalid group ID"
// @Failure      404  {object}  map[string]interface{}  "Group not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups/{id} [get]
// GetGroupHandler retrieves a single group
// GET /api/v1/admin/groups/:id
func (h *GroupHandlers) GetGroupHandler() gin.HandlerFunc {
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

		c.JSON(http.StatusOK, group)
	}
}

// @Summary      Rename group
// @Description  Change a group's name. The new name must not collide with another group.
// @Tags         Admin - Groups
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int           true  "Group ID"
// @Param        body  body  GroupRequest  true  "New name"
// @Success      200  {object}  models.Group
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      404  {object}  map[string]interface{}  "Group not found"
// @Failure      409  {object}  map[string]interface{}  "Group name already taken"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups/{id} [put]
// RenameGroupHandler renames a group
// PUT /api/v1/admin/groups/:id
func (h *GroupHandlers) RenameGroupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := parseGroupID(c)
		if !ok {
			return
		}

		var req GroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Group name must not be blank",
			})
			return
		}

		// Renaming a group to its own current name is allowed and a no-op.
		existing, err := h.groupRepo.GetByName(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check group name",
			})
			return
		}
		if existing != nil && existing.ID != groupID {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A group with this name already exists",
			})
			return
		}

		found, err := h.groupRepo.Rename(c.Request.Context(), groupID, name)
		if err != nil {
			if repositories.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{
					"error": "A group with this name already exists",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to rename group",
			})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Group not found",
			})
			return
		}

		c.JSON(http.StatusOK, &models.Group{ID: groupID, Name: name})
	}
}

// @Summary      Delete group
// @Description  Delete a group. Memberships and permission assignments referencing it are removed; user accounts are untouched. Already-issued tokens keep any permissions the group granted until they expire.
// @Tags         Admin - Groups
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Group ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid group ID"
// @Failure      404  {object}  map[string]interface{}  "Group not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/groups/{id} [delete]
// DeleteGroupHandler deletes a group
// DELETE /api/v1/admin/groups/:id
func (h *GroupHandlers) DeleteGroupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groupID, ok := parseGroupID(c)
		if !ok {
			return
		}

		found, err := h.groupRepo.Delete(c.Request.Context(), groupID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete group",
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
			"message": "Group deleted",
		})
	}
}
