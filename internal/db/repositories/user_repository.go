// Package repositories implements the data access layer (repository pattern) for the
// user/group administration service. Each repository type encapsulates all database
// queries for a domain entity. Handlers never issue SQL directly — all database access
// goes through this layer, which makes query logic testable in isolation and keeps
// multi-statement operations inside a single transaction.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/usergroup-manager/usergroup-manager/internal/db/models"
)

// registrationLockKey is the advisory lock key serialising user registration.
// Holding it for the duration of the registration transaction closes the race
// where two concurrent first registrations could both observe an empty users
// table and both be promoted to bootstrap admin.
const registrationLockKey = 4217

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, password_hash, status, is_admin, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Status,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a new user inside a single transaction. If no user exists yet,
// the new account is created active, flagged as admin, and enrolled with an
// approved membership in adminGroupName (when that group exists) — this is the
// only path that bypasses admin approval. Every later registration is created
// pending with no memberships. Returns whether the bootstrap path was taken.
func (r *UserRepository) Register(ctx context.Context, user *models.User, adminGroupName string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
		return false, fmt.Errorf("failed to acquire registration lock: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}

	bootstrap := count == 0

	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if bootstrap {
		user.Status = models.UserStatusActive
		user.IsAdmin = true
	} else {
		user.Status = models.UserStatusPending
		user.IsAdmin = false
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, first_name, last_name, password_hash, status, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Status,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert user: %w", err)
	}

	if bootstrap {
		var groupID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM groups WHERE name = $1`, adminGroupName).Scan(&groupID)
		switch {
		case err == sql.ErrNoRows:
			// No admin group seeded; the bootstrap user still becomes admin.
		case err != nil:
			return false, fmt.Errorf("failed to look up admin group: %w", err)
		default:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO user_groups (user_id, group_id, status, created_at)
				VALUES ($1, $2, $3, $4)
			`, user.ID, groupID, models.MembershipStatusApproved, user.CreatedAt)
			if err != nil {
				return false, fmt.Errorf("failed to enrol bootstrap admin: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit registration: %w", err)
	}

	return bootstrap, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

// GetByEmail retrieves a user by email (exact match against the unique index)
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

// ExistsByEmail reports whether a user with the given email already exists.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// SetStatus updates a user's account status and bumps the last-updated timestamp.
// Returns false when no user with the given id exists. Setting the status a user
// already holds is a successful no-op update.
func (r *UserRepository) SetStatus(ctx context.Context, userID string, status models.UserStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, userID, status, time.Now())
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// UpdateProfile updates a user's name and email and bumps the last-updated timestamp.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, updated_at = $5
		WHERE id = $1
	`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.UpdatedAt,
	)
	return err
}

// Delete deletes a user (cascades to memberships)
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	return err
}

// List retrieves all users ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ListByStatus retrieves all users in the given account status
func (r *UserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE status = $1
		ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetWithGroups retrieves a user together with their memberships, each carrying
// the permission names of its group.
func (r *UserRepository) GetWithGroups(ctx context.Context, userID string) (*models.UserWithGroups, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ug.group_id, g.name, ug.status, ug.created_at,
		       COALESCE(array_agg(p.name) FILTER (WHERE p.name IS NOT NULL), '{}') AS permissions
		FROM user_groups ug
		JOIN groups g ON ug.group_id = g.id
		LEFT JOIN group_permissions gp ON gp.group_id = g.id
		LEFT JOIN permissions p ON p.id = gp.permission_id
		WHERE ug.user_id = $1
		GROUP BY ug.group_id, g.name, ug.status, ug.created_at
		ORDER BY ug.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make([]models.Membership, 0)
	for rows.Next() {
		m := models.Membership{UserID: userID}
		var perms pq.StringArray
		if err := rows.Scan(&m.GroupID, &m.GroupName, &m.Status, &m.CreatedAt, &perms); err != nil {
			return nil, err
		}
		m.GroupPermissions = []string(perms)
		memberships = append(memberships, m)
	}

	return &models.UserWithGroups{
		User:        *user,
		Memberships: memberships,
	}, rows.Err()
}
