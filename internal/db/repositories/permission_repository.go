// permission_repository.go implements PermissionRepository over sqlx. Permissions are
// seeded reference data: the repository exposes reads only, never create or delete.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

// PermissionRepository handles read access to the seeded permission catalogue
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new PermissionRepository
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// List retrieves all permissions
func (r *PermissionRepository) List(ctx context.Context) ([]*models.Permission, error) {
	permissions := make([]*models.Permission, 0)
	err := r.db.SelectContext(ctx, &permissions, `
		SELECT id, name
		FROM permissions
		ORDER BY id ASC
	`)
	return permissions, err
}

// CountByIDs returns how many of the given permission ids exist. Used to reject
// a group-permission reset that references unknown permissions before any row
// is touched.
func (r *PermissionRepository) CountByIDs(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`SELECT COUNT(*) FROM permissions WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.db.GetContext(ctx, &count, r.db.Rebind(query), args...)
	return count, err
}
