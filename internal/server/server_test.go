package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapi/internal/models"
	"todoapi/internal/storage/sqlite"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "todo.db"), 5, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(store, quietLogger(), io.Discard)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func requireErrorBody(t *testing.T, rec *httptest.ResponseRecorder, status int, key string) ErrorResponse {
	t.Helper()

	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, key, body.Error)
	assert.NotEmpty(t, body.Message)
	return body
}

func TestCreateTodo(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, float64(1), raw["id"])
	assert.Equal(t, "Buy milk", raw["title"])
	assert.Contains(t, raw, "description")
	assert.Nil(t, raw["description"])
	assert.Equal(t, false, raw["completed"])
	assert.Equal(t, raw["created_at"], raw["updated_at"])

	rec = do(t, srv, http.MethodPost, "/todos", `{"title":"Call mom","description":"Sunday"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	todo := decode[models.Todo](t, rec)
	require.NotNil(t, todo.Description)
	assert.Equal(t, "Sunday", *todo.Description)
}

func TestCreateTodoRejectsEmptyTitle(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"title":""}`, `{"title":"   "}`, `{"title":"\t\n"}`} {
		rec := do(t, srv, http.MethodPost, "/todos", body)
		resp := requireErrorBody(t, rec, http.StatusUnprocessableEntity, "validation")
		assert.Equal(t, "Title must not be empty", resp.Message)
	}

	rec := do(t, srv, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Todo](t, rec))
}

func TestCreateTodoRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	testCases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing title", body: `{"description":"No title"}`, message: "Missing required field: title"},
		{name: "null title", body: `{"title":null}`, message: "Missing required field: title"},
		{name: "empty body", body: "", message: "Request body must not be empty"},
		{name: "invalid json", body: `{"title":`, message: "Request body is not valid JSON"},
		{name: "wrong type", body: `{"title":42}`, message: "Invalid type for field title: expected string"},
		{name: "not an object", body: `["Buy milk"]`, message: "Request body must be a JSON object"},
		{name: "trailing text", body: `{"title":"a"} trailing garbage`, message: "Request body is not valid JSON"},
		{name: "second value", body: `{"title":"a"}{"title":"b"}`, message: "Request body is not valid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/todos", tc.body)
			resp := requireErrorBody(t, rec, http.StatusBadRequest, "bad_request")
			assert.Equal(t, tc.message, resp.Message)
		})
	}

	rec := do(t, srv, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Todo](t, rec))
}

func TestCreateTodoAcceptsSurroundingWhitespace(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/todos", "\n  {\"title\":\"padded\"}  \n")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "padded", decode[models.Todo](t, rec).Title)
}

func TestListTodos(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, title := range []string{"one", "two", "three"} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/todos", `{"title":"`+title+`"}`).Code)
	}
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/todos/1", `{"title":"one again","completed":true}`).Code)

	rec = do(t, srv, http.MethodGet, "/todos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	todos := decode[[]models.Todo](t, rec)
	require.Len(t, todos, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{todos[0].ID, todos[1].ID, todos[2].ID})
	assert.Equal(t, "one again", todos[0].Title)
}

func TestGetTodo(t *testing.T) {
	srv := newTestServer(t)

	created := decode[models.Todo](t, do(t, srv, http.MethodPost, "/todos", `{"title":"Find me","description":"here"}`))

	rec := do(t, srv, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	if diff := cmp.Diff(created, decode[models.Todo](t, rec)); diff != "" {
		t.Errorf("get after create mismatch (-created +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/todos/2", "")
	resp := requireErrorBody(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, "Todo with id 2 not found", resp.Message)

	rec = do(t, srv, http.MethodGet, "/todos/abc", "")
	resp = requireErrorBody(t, rec, http.StatusBadRequest, "bad_request")
	assert.Equal(t, "Invalid todo id: abc", resp.Message)
}

func TestUpdateTodo(t *testing.T) {
	srv := newTestServer(t)

	created := decode[models.Todo](t, do(t, srv, http.MethodPost, "/todos", `{"title":"Buy milk","description":"2 liters"}`))

	rec := do(t, srv, http.MethodPut, "/todos/1", `{"title":"Buy milk","completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Todo](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	// Timestamps have second resolution, so an update in the same second keeps the value.
	assert.GreaterOrEqual(t, updated.UpdatedAt, created.UpdatedAt)

	fetched := decode[models.Todo](t, do(t, srv, http.MethodGet, "/todos/1", ""))
	if diff := cmp.Diff(updated, fetched); diff != "" {
		t.Errorf("get after update mismatch (-updated +got):\n%s", diff)
	}
}

func TestUpdateTodoFailures(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/todos", `{"title":"exists"}`).Code)

	testCases := []struct {
		name   string
		path   string
		body   string
		status int
		key    string
	}{
		{name: "missing todo", path: "/todos/99", body: `{"title":"x","completed":false}`, status: http.StatusNotFound, key: "not_found"},
		{name: "empty title", path: "/todos/1", body: `{"title":" ","completed":false}`, status: http.StatusUnprocessableEntity, key: "validation"},
		{name: "missing completed", path: "/todos/1", body: `{"title":"Test"}`, status: http.StatusBadRequest, key: "bad_request"},
		{name: "missing title", path: "/todos/1", body: `{"completed":true}`, status: http.StatusBadRequest, key: "bad_request"},
		{name: "wrong completed type", path: "/todos/1", body: `{"title":"x","completed":"yes"}`, status: http.StatusBadRequest, key: "bad_request"},
		{name: "bad id", path: "/todos/1.5", body: `{"title":"x","completed":false}`, status: http.StatusBadRequest, key: "bad_request"},
		{name: "trailing text", path: "/todos/1", body: `{"title":"x","completed":true} trailing garbage`, status: http.StatusBadRequest, key: "bad_request"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, tc.path, tc.body)
			requireErrorBody(t, rec, tc.status, tc.key)
		})
	}

	// None of the failures created or changed anything.
	todos := decode[[]models.Todo](t, do(t, srv, http.MethodGet, "/todos", ""))
	require.Len(t, todos, 1)
	assert.Equal(t, "exists", todos[0].Title)
	assert.Equal(t, todos[0].CreatedAt, todos[0].UpdatedAt)
}

func TestDeleteTodo(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/todos", `{"title":"Buy milk"}`).Code)

	rec := do(t, srv, http.MethodDelete, "/todos/1", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/todos/1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Todo with id 1 not found"}`, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/todos/1", "")
	resp := requireErrorBody(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, "Todo with id 1 not found", resp.Message)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/nope", "")
	requireErrorBody(t, rec, http.StatusNotFound, "not_found")
}

func TestAccessLogGoesToGivenWriter(t *testing.T) {
	store, err := sqlite.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "todo.db"), 5, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var accessLog bytes.Buffer
	srv := New(store, quietLogger(), &accessLog)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Empty(t, accessLog.String())

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/todos", "").Code)
	assert.Contains(t, accessLog.String(), "/todos")
	assert.Contains(t, accessLog.String(), "200")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/todos", "")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/todos/7", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

// failingRepo fails every call with err.
type failingRepo struct {
	err error
}

func (r failingRepo) CreateTodo(context.Context, string, *string) (models.Todo, error) {
	return models.Todo{}, r.err
}

func (r failingRepo) ListTodos(context.Context) ([]models.Todo, error) {
	return nil, r.err
}

func (r failingRepo) GetTodo(context.Context, int64) (models.Todo, bool, error) {
	return models.Todo{}, false, r.err
}

func (r failingRepo) UpdateTodo(context.Context, int64, string, *string, bool) (models.Todo, bool, error) {
	return models.Todo{}, false, r.err
}

func (r failingRepo) DeleteTodo(context.Context, int64) (bool, error) {
	return false, r.err
}

func (r failingRepo) Ping(context.Context) error {
	return r.err
}

func TestStoreErrorsAreHidden(t *testing.T) {
	srv := New(failingRepo{err: errors.New("disk I/O error: /var/lib/todo.db")}, quietLogger(), nil)

	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/todos", `{"title":"x"}`},
		{http.MethodGet, "/todos", ""},
		{http.MethodGet, "/todos/1", ""},
		{http.MethodPut, "/todos/1", `{"title":"x","completed":true}`},
		{http.MethodDelete, "/todos/1", ""},
		{http.MethodGet, "/healthz", ""},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			rec := do(t, srv, r.method, r.path, r.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"database","message":"A database error occurred"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "/var/lib")
		})
	}
}

func TestValidationRunsBeforeStore(t *testing.T) {
	srv := New(failingRepo{err: errors.New("must not be called")}, quietLogger(), nil)

	rec := do(t, srv, http.MethodPost, "/todos", `{"title":""}`)
	requireErrorBody(t, rec, http.StatusUnprocessableEntity, "validation")

	rec = do(t, srv, http.MethodPut, "/todos/1", `{"title":"x"}`)
	requireErrorBody(t, rec, http.StatusBadRequest, "bad_request")
}

// panickingRepo panics on list.
type panickingRepo struct {
	failingRepo
}

func (panickingRepo) ListTodos(context.Context) ([]models.Todo, error) {
	panic("boom")
}

func TestPanicsBecomeInternalErrors(t *testing.T) {
	srv := New(panickingRepo{}, quietLogger(), nil)

	rec := do(t, srv, http.MethodGet, "/todos", "")
	resp := requireErrorBody(t, rec, http.StatusInternalServerError, "internal")
	assert.NotContains(t, resp.Message, "boom")
}
