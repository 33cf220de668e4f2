package submissions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminKey = "test-admin-key"

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc, _ := newTestService(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, log, false)
	gate := &auth.Gate{AdminKey: testAdminKey}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Post("/submissions", h.Create)
	r.Get("/submissions/schema", h.Schema)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(gate, log))
		r.Get("/admin/submissions", h.AdminList)
		r.Get("/admin/submissions/{id}", h.AdminGet)
		r.Patch("/admin/submissions", h.AdminPatch)
		r.Patch("/admin/submissions/{id}", h.AdminPatch)
	})
	return r, svc
}

func do(t *testing.T, h http.Handler, method, target, body string, admin bool) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(auth.AdminKeyHeader, testAdminKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestCreateMessage(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/submissions", validMessage, false)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Regexp(t, `^message_`, body["id"])
	assert.Contains(t, body["message"], "Message sent successfully")
}

func TestCreateValidationFailure(t *testing.T) {
	h, svc := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/submissions",
		`{"type":"booking","fullName":"A","email":"bad-email","date":"2020-01-01","time":"09:00"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "fullName")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "date")

	items, _, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCreateRejectsBadType(t *testing.T) {
	h, _ := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/submissions", `{"type":"spam"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "Invalid submission type")

	rec, _ = do(t, h, http.MethodPost, "/submissions", `{"type":`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSchemaListsBothVariants(t *testing.T) {
	h, _ := newTestRouter(t)
	rec, body := do(t, h, http.MethodGet, "/submissions/schema", "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	types, ok := body["types"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, types, "message")
	assert.Contains(t, types, "booking")
}

func TestAdminRoutesRequireCredential(t *testing.T) {
	h, svc := newTestRouter(t)
	_, created := do(t, h, http.MethodPost, "/submissions", validMessage, false)
	id := created["id"].(string)

	rec, body := do(t, h, http.MethodGet, "/admin/submissions", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, body, "submissions")

	rec, _ = do(t, h, http.MethodPatch, "/admin/submissions?id="+id, `{"read":true}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, got.IsRead())
}

func TestAdminListAndPatch(t *testing.T) {
	h, _ := newTestRouter(t)
	_, msg := do(t, h, http.MethodPost, "/submissions", validMessage, false)
	_, booking := do(t, h, http.MethodPost, "/submissions", validBooking, false)

	rec, body := do(t, h, http.MethodGet, "/admin/submissions?type=booking", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	items := body["submissions"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, booking["id"], items[0].(map[string]interface{})["id"])

	rec, body = do(t, h, http.MethodPatch, "/admin/submissions?id="+msg["id"].(string), `{"read":true}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["submission"].(map[string]interface{})["read"])

	rec, body = do(t, h, http.MethodGet, "/admin/submissions?read=true", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	path := "/admin/submissions/" + booking["id"].(string)
	rec, _ = do(t, h, http.MethodPatch, path, `{"status":"confirmed"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = do(t, h, http.MethodPatch, path, `{"status":"cancelled"}`, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", body["submission"].(map[string]interface{})["status"])

	rec, _ = do(t, h, http.MethodGet, path, "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminPatchErrorStatuses(t *testing.T) {
	h, _ := newTestRouter(t)
	_, booking := do(t, h, http.MethodPost, "/submissions", validBooking, false)
	path := "/admin/submissions/" + booking["id"].(string)

	cases := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"immutable", path, `{"id":"booking_x"}`, http.StatusBadRequest},
		{"bad transition", path, `{"status":"completed"}`, http.StatusConflict},
		{"wrong variant field", path, `{"read":true}`, http.StatusBadRequest},
		{"missing", "/admin/submissions/booking_missing", `{"status":"confirmed"}`, http.StatusNotFound},
		{"no id", "/admin/submissions", `{"status":"confirmed"}`, http.StatusBadRequest},
		{"bad json", path, `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPatch, tc.target, tc.body, true)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestAdminListRejectsBadQuery(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, q := range []string{"type=spam", "read=maybe", "limit=-1", "status=archived", "type=message&status=pending"} {
		rec, _ := do(t, h, http.MethodGet, "/admin/submissions?"+q, "", true)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHandlerHidesStoreErrors(t *testing.T) {
	svc := NewService(failingStore{}, nil)
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), false)

	req := httptest.NewRequest(http.MethodGet, "/admin/submissions", nil)
	rec := httptest.NewRecorder()
	h.AdminList(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, s Submission) (string, error) {
	return "", unavailable(fmt.Errorf("connection reset"))
}

func (failingStore) Get(ctx context.Context, id string) (Submission, error) {
	return Submission{}, unavailable(fmt.Errorf("connection reset"))
}

func (failingStore) List(ctx context.Context, filter ListFilter) ([]Submission, int64, error) {
	return nil, 0, unavailable(fmt.Errorf("connection reset"))
}

func (failingStore) Patch(ctx context.Context, id string, u Update) (Submission, error) {
	return Submission{}, unavailable(fmt.Errorf("connection reset"))
}

func (failingStore) Ping(ctx context.Context) error {
	return unavailable(fmt.Errorf("connection reset"))
}
