package admin

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

var permissionSQLCols = []string{"id", "name"}

// newPermissionRouter creates a gin router with all PermissionHandlers routes registered.
func newPermissionRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewPermissionHandlers(db)

	r := gin.New()
	r.GET("/permissions", h.ListPermissionsHandler())
	r.GET("/groups/:id/permissions", h.GetGroupPermissionsHandler())
	r.PUT("/groups/:id/permissions", h.ReplaceGroupPermissionsHandler())

	return mock, r
}

// ---------------------------------------------------------------------------
// ListPermissionsHandler
// ---------------------------------------------------------------------------

func TestListPermissionsHandler_Success(t *testing.T) {
	mock, r := newPermissionRouter(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(permissionSQLCols).
			AddRow(int64(1), "Manage Users").
			AddRow(int64(2), "View Users").
			AddRow(int64(3), "Manage Groups").
			AddRow(int64(4), "View Groups").
			AddRow(int64(5), "View Reports"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/permissions", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	if int(resp["count"].(float64)) != 5 {
		t.Errorf("count = %v, want 5", resp["count"])
	}
}

// ---------------------------------------------------------------------------
// GetGroupPermissionsHandler
// ---------------------------------------------------------------------------

func TestGetGroupPermissionsHandler_Success(t *testing.T) {
	mock, r := newPermissionRouter(t)

	mock.ExpectQuery("SELECT id, name").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(groupSQLCols).AddRow(int64(1), "Administrators"))
	mock.ExpectQuery("SELECT permission_id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"permission_id"}).
			AddRow(int64(1)).
			AddRow(int64(3)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/groups/1/permissions", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	permissionIDs, _ := resp["permission_ids"].([]interface{})
	if len(permissionIDs) != 2 {
		t.Errorf("permission_ids = %v, want 2 entries", permissionIDs)
	}
}

func TestGetGroupPermissionsHandler_GroupNotFound(t *testing.T) {
	mock, r := newPermissionRouter(t)

	mock.ExpectQuery("SELECT id, name").
		WillReturnRows(sqlmock.NewRows(groupSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/groups/99/permissions", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// ReplaceGroupPermissionsHandler
// ---------------------------------------------------------------------------

func TestReplaceGroupPermissionsHandler_Success(t *testing.T) {
	mock, r := newPermissionRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM group_permissions").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO group_permissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO group_permissions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/groups/1/permissions",
		jsonBody(gin.H{"permission_ids": []int64{1, 3}})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceGroupPermissionsHandler_EmptySetStripsGroup(t *testing.T) {
	mock, r := newPermissionRouter(t)

	// No catalogue lookup for an empty set; it is trivially valid.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM group_permissions").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/groups/1/permissions",
		jsonBody(gin.H{"permission_ids": []int64{}})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceGroupPermissionsHandler_UnknownPermission(t *testing.T) {
	mock, r := newPermissionRouter(t)

	// Catalogue count comes up short of the requested set.
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/groups/1/permissions",
		jsonBody(gin.H{"permission_ids": []int64{1, 99}})))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestReplaceGroupPermissionsHandler_GroupNotFound(t *testing.T) {
	mock, r := newPermissionRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/groups/99/permissions",
		jsonBody(gin.H{"permission_ids": []int64{1}})))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
