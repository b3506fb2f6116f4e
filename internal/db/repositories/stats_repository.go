// stats_repository.go implements StatsRepository, the read-only queries behind the
// reporting endpoints.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

// StatsRepository handles aggregate reporting queries
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// CountUsers returns the total number of user accounts
func (r *StatsRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

// GroupMemberCounts returns, for every group, the number of approved members.
// Groups with no approved members are included with a zero count.
func (r *StatsRepository) GroupMemberCounts(ctx context.Context) ([]models.GroupMemberCount, error) {
	counts := make([]models.GroupMemberCount, 0)
	err := r.db.SelectContext(ctx, &counts, `
		SELECT g.name AS group_name,
		       COUNT(ug.user_id) FILTER (WHERE ug.status = 'approved') AS member_count
		FROM groups g
		LEFT JOIN user_groups ug ON ug.group_id = g.id
		GROUP BY g.id, g.name
		ORDER BY g.id ASC
	`)
	return counts, err
}
