package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/usergroup-manager/usergroup-manager/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var userSQLCols = []string{
	"id", "email", "first_name", "last_name", "password_hash",
	"status", "is_admin", "created_at", "updated_at",
}

func aliceRow() *sqlmock.Rows {
	return sqlmock.NewRows(userSQLCols).
		AddRow("user-1", "alice@example.com", "Alice", "Smith", "hash",
			"active", false, time.Now(), time.Now())
}

// newUserRouter creates a gin router with all Handlers routes registered,
// acting as the given authenticated caller.
func newUserRouter(t *testing.T, callerID string) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(db)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, callerID)
		c.Next()
	})
	r.GET("/users", h.ListUsersHandler())
	r.PUT("/users/:id", h.UpdateUserHandler())
	r.DELETE("/users/:id", h.DeleteUserHandler())

	return mock, r
}

func jsonBody(v interface{}) *bytes.Buffer {
	b, _ := json.Marshal(v)
	return bytes.NewBuffer(b)
}

func getJSON(resp *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &m)
	return m
}

// ---------------------------------------------------------------------------
// ListUsersHandler
// ---------------------------------------------------------------------------

func TestListUsersHandler_Success(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WillReturnRows(aliceRow())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/users", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	resp := getJSON(w)
	if int(resp["count"].(float64)) != 1 {
		t.Errorf("count = %v, want 1", resp["count"])
	}
	users, _ := resp["users"].([]interface{})
	user, _ := users[0].(map[string]interface{})
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash must never appear in responses")
	}
}

// ---------------------------------------------------------------------------
// UpdateUserHandler
// ---------------------------------------------------------------------------

func TestUpdateUserHandler_Success(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WithArgs("user-1").
		WillReturnRows(aliceRow())
	mock.ExpectExec("UPDATE users").
		WithArgs("user-1", "alice.smith@example.com", "Alice", "Smith", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/users/user-1", jsonBody(gin.H{
		"email":      "Alice.Smith@Example.com",
		"first_name": "Alice",
		"last_name":  "Smith",
	})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if getJSON(w)["email"] != "alice.smith@example.com" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateUserHandler_KeepOwnEmail(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	// Unchanged email skips the conflict check.
	mock.ExpectQuery("SELECT").
		WillReturnRows(aliceRow())
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/users/user-1", jsonBody(gin.H{
		"email":      "alice@example.com",
		"first_name": "Alicia",
		"last_name":  "Smith",
	})))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateUserHandler_EmailTaken(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WillReturnRows(aliceRow())
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/users/user-1", jsonBody(gin.H{
		"email":      "bob@example.com",
		"first_name": "Alice",
		"last_name":  "Smith",
	})))

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409, body %s", w.Code, w.Body.String())
	}
}

func TestUpdateUserHandler_NotFound(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(userSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("PUT", "/users/no-such-user", jsonBody(gin.H{
		"email":      "ghost@example.com",
		"first_name": "Ghost",
		"last_name":  "User",
	})))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// ---------------------------------------------------------------------------
// DeleteUserHandler
// ---------------------------------------------------------------------------

func TestDeleteUserHandler_Success(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WithArgs("user-1").
		WillReturnRows(aliceRow())
	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/user-1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteUserHandler_SelfDeletionRejected(t *testing.T) {
	_, r := newUserRouter(t, "user-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/user-1", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400, body %s", w.Code, w.Body.String())
	}
}

func TestDeleteUserHandler_NotFound(t *testing.T) {
	mock, r := newUserRouter(t, "admin-1")

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows(userSQLCols))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("DELETE", "/users/no-such-user", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
