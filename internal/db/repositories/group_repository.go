package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

// GroupRepository handles group database operations, including the group→permission
// association set.
type GroupRepository struct {
	db *sql.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *sql.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group and populates its assigned id.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO groups (name)
		VALUES ($1)
		RETURNING id
	`, group.Name).Scan(&group.ID)
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(ctx context.Context, groupID int64) (*models.Group, error) {
	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM groups
		WHERE id = $1
	`, groupID).Scan(&group.ID, &group.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetByName retrieves a group by display name
func (r *GroupRepository) GetByName(ctx context.Context, name string) (*models.Group, error) {
	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name
		FROM groups
		WHERE name = $1
	`, name).Scan(&group.ID, &group.Name)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

// List retrieves all groups
func (r *GroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM groups
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// Rename updates a group's name. Returns false when the group does not exist.
func (r *GroupRepository) Rename(ctx context.Context, groupID int64, name string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE groups
		SET name = $2
		WHERE id = $1
	`, groupID, name)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Delete deletes a group (cascades to memberships and permission links).
// Returns false when the group does not exist.
func (r *GroupRepository) Delete(ctx context.Context, groupID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetPermissionIDs returns the ids of the permissions currently attached to a group.
func (r *GroupRepository) GetPermissionIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT permission_id
		FROM group_permissions
		WHERE group_id = $1
		ORDER BY permission_id ASC
	`, groupID)
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

// ReplacePermissions replaces a group's entire permission set with the given
// permission ids in one transaction — set-equals semantics, last write wins.
// Returns false without touching any rows when the group does not exist.
func (r *GroupRepository) ReplacePermissions(ctx context.Context, groupID int64, permissionIDs []int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin permission reset transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, groupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check group existence: %w", err)
	}
	if !exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_permissions WHERE group_id = $1`, groupID); err != nil {
		return false, fmt.Errorf("failed to clear group permissions: %w", err)
	}

	for _, permissionID := range permissionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO group_permissions (group_id, permission_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, groupID, permissionID)
		if err != nil {
			return false, fmt.Errorf("failed to attach permission %d: %w", permissionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit permission reset: %w", err)
	}

	return true, nil
}
