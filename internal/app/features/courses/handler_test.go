package courses_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/features/courses"
	uierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*courses.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := courses.NewHandler(db, uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func TestHandleCreate(t *testing.T) {
	h, _ := newHandler(t)

	body := `{"name":"CS156 F25","installation_id":"12345"}`
	req := httptest.NewRequest("POST", "/api/courses", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		InstallationID string `json:"installation_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected id in response")
	}
	if created.Name != "CS156 F25" {
		t.Errorf("name: got %q, want %q", created.Name, "CS156 F25")
	}
	if created.InstallationID != "12345" {
		t.Errorf("installation_id: got %q, want %q", created.InstallationID, "12345")
	}
}

func TestHandleCreate_MissingFields(t *testing.T) {
	h, _ := newHandler(t)

	for _, body := range []string{
		`{"name":"CS156 F25"}`,
		`{"installation_id":"12345"}`,
		`{}`,
		`not json`,
	} {
		req := httptest.NewRequest("POST", "/api/courses", strings.NewReader(body))
		rec := httptest.NewRecorder()

		h.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status got %d, want %d", body, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestServeList(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateCourse(ctx, "CS156 F25", "1")
	fixtures.CreateCourse(ctx, "CS156 W26", "2")

	req := httptest.NewRequest("GET", "/api/courses", nil)
	rec := httptest.NewRecorder()

	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var list []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(list))
	}
}

func TestServeView(t *testing.T) {
	h, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	course := fixtures.CreateCourse(ctx, "CS156 F25", "1")

	req := httptest.NewRequest("GET", "/api/courses/"+course.ID.Hex(), nil)
	req = testutil.WithChiURLParam(req, "id", course.ID.Hex())
	rec := httptest.NewRecorder()

	h.ServeView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestServeView_NotFound(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest("GET", "/api/courses/ffffffffffffffffffffffff", nil)
	req = testutil.WithChiURLParam(req, "id", "ffffffffffffffffffffffff")
	rec := httptest.NewRecorder()

	h.ServeView(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeView_BadID(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest("GET", "/api/courses/not-an-id", nil)
	req = testutil.WithChiURLParam(req, "id", "not-an-id")
	rec := httptest.NewRecorder()

	h.ServeView(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
