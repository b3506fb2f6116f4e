package repositories

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newStatsRepo(t *testing.T) (*StatsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStatsRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestCountUsers(t *testing.T) {
	repo, mock := newStatsRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	count, err := repo.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 17 {
		t.Errorf("count = %d, want 17", count)
	}
}

func TestGroupMemberCounts_IncludesEmptyGroups(t *testing.T) {
	repo, mock := newStatsRepo(t)

	mock.ExpectQuery("SELECT g.name").
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "member_count"}).
			AddRow("Administrators", 3).
			AddRow("Empty Group", 0))

	counts, err := repo.GroupMemberCounts(context.Background())
	if err != nil {
		t.Fatalf("GroupMemberCounts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts = %d entries, want 2", len(counts))
	}
	if counts[1].GroupName != "Empty Group" || counts[1].MemberCount != 0 {
		t.Errorf("counts[1] = %+v, want zero-count group", counts[1])
	}
}
