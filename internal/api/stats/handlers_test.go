package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newStatsRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewHandlers(db)

	r := gin.New()
	r.GET("/stats/users/count", h.CountUsersHandler())
	r.GET("/stats/groups/members", h.GroupMemberCountsHandler())

	return mock, r
}

func getJSON(resp *httptest.ResponseRecorder) map[string]interface{} {
	var m map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &m)
	return m
}

func TestCountUsersHandler_Success(t *testing.T) {
	mock, r := newStatsRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats/users/count", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if int(getJSON(w)["count"].(float64)) != 42 {
		t.Errorf("count = %v, want 42", getJSON(w)["count"])
	}
}

func TestCountUsersHandler_DBError(t *testing.T) {
	mock, r := newStatsRouter(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(sqlmock.ErrCancelled)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats/users/count", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestGroupMemberCountsHandler_Success(t *testing.T) {
	mock, r := newStatsRouter(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "member_count"}).
			AddRow("Administrators", 2).
			AddRow("Auditors", 0))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats/groups/members", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	groups, _ := getJSON(w)["groups"].([]interface{})
	if len(groups) != 2 {
		t.Errorf("groups = %v, want 2 entries", groups)
	}
}

func TestGroupMemberCountsHandler_NoGroups(t *testing.T) {
	mock, r := newStatsRouter(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "member_count"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats/groups/members", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if groups, ok := getJSON(w)["groups"].([]interface{}); !ok || len(groups) != 0 {
		t.Errorf("groups = %v, want empty array", getJSON(w)["groups"])
	}
}
