package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

// MembershipRepository handles the user→group association table and implements the
// authorization resolver: the effective permission set of a user is the de-duplicated
// union of permission names over the groups in which the user holds an approved
// membership. The resolver runs fresh on every login — permissions are never cached
// on the user record, because group assignments can change between logins.
type MembershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// GetUserGroupIDs returns the ids of every group the user has a membership row
// for, regardless of membership status.
func (r *MembershipRepository) GetUserGroupIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_id
		FROM user_groups
		WHERE user_id = $1
		ORDER BY group_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ReplaceUserGroups atomically replaces a user's entire membership set: every
// existing membership row for the user is deleted and one approved row is inserted
// per target group id. Admin-created memberships are auto-approved. Returns false
// without touching any rows when the user does not exist. The delete and inserts
// share one transaction so a concurrent reader never observes a half-applied set.
func (r *MembershipRepository) ReplaceUserGroups(ctx context.Context, userID string, groupIDs []int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin membership reset transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
		return false, fmt.Errorf("failed to clear user memberships: %w", err)
	}

	for _, groupID := range groupIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_groups (user_id, group_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, userID, groupID, models.MembershipStatusApproved)
		if err != nil {
			return false, fmt.Errorf("failed to add membership for group %d: %w", groupID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit membership reset: %w", err)
	}

	return true, nil
}

// GetEffectivePermissions resolves the user's effective permission set: the
// distinct permission names attached to every group where the user's membership
// is approved. A user with no approved memberships gets an empty set, which is
// a valid, non-error outcome.
func (r *MembershipRepository) GetEffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.name
		FROM user_groups ug
		JOIN group_permissions gp ON gp.group_id = ug.group_id
		JOIN permissions p ON p.id = gp.permission_id
		WHERE ug.user_id = $1 AND ug.status = $2
		ORDER BY p.name ASC
	`, userID, models.MembershipStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}

	return permissions, rows.Err()
}
