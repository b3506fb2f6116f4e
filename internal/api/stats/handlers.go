// Package stats implements the reporting endpoints behind the View Reports
// permission: account totals and per-group membership counts.
package stats

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/usergroup-manager/usergroup-manager/internal/db/repositories"
)

// Handlers handles reporting endpoints
type Handlers struct {
	db        *sql.DB
	statsRepo *repositories.StatsRepository
}

// NewHandlers creates a new stats Handlers instance
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{
		db:        db,
		statsRepo: repositories.NewStatsRepository(sqlx.NewDb(db, "postgres")),
	}
}

// @Summary      Count users
// @Description  Total number of accounts in any status
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count: int"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/stats/users/count [get]
// CountUsersHandler returns the total account count
// GET /api/v1/stats/users/count
func (h *Handlers) CountUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := h.statsRepo.CountUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to count users",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count": count,
		})
	}
}

// @Summary      Group member counts
// @Description  Per-group count of approved members, including empty groups
// @Tags         Stats
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "groups: []models.GroupMemberCount"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/stats/groups/members [get]
// GroupMemberCountsHandler returns approved member counts per group
// GET /api/v1/stats/groups/members
func (h *Handlers) GroupMemberCountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := h.statsRepo.GroupMemberCounts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get group member counts",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"groups": groups,
		})
	}
}
