package repositories

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newPermissionRepo(t *testing.T) (*PermissionRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPermissionRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestPermissionList(t *testing.T) {
	repo, mock := newPermissionRepo(t)

	mock.ExpectQuery("SELECT id, name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Manage Users").
			AddRow(int64(2), "View Users"))

	permissions, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(permissions) != 2 {
		t.Fatalf("permissions = %d entries, want 2", len(permissions))
	}
	if permissions[0].Name != "Manage Users" {
		t.Errorf("permissions[0].Name = %q", permissions[0].Name)
	}
}

func TestCountByIDs(t *testing.T) {
	repo, mock := newPermissionRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByIDs(context.Background(), []int64{1, 3})
	if err != nil {
		t.Fatalf("CountByIDs: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestCountByIDs_EmptySkipsQuery(t *testing.T) {
	repo, mock := newPermissionRepo(t)

	count, err := repo.CountByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountByIDs: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}
