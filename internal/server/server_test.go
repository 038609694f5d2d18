package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/models"
)

var errMockDB = errors.New("disk I/O error")

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestServer(t *testing.T) (*Server, *db.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := db.Open(":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewServer(store, quietLogger()), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestCreateTask(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks", `{"title":"Write docs","description":"API"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatal(err)
	}
	if task.ID != 1 || task.Title != "Write docs" || task.Completed || task.CreatedAt.IsZero() {
		t.Fatalf("unexpected task %+v", task)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	s, _ := newTestServer(t)
	for _, body := range []string{"", "null", "{}", `{"title":""}`, `{"description":"x"}`, "not json", `{"title":7}`} {
		w := do(t, s, http.MethodPost, "/api/tasks", body)
		if w.Code != http.StatusBadRequest || errorOf(t, w) != "Title is required" {
			t.Fatalf("body %q: status=%d resp=%s", body, w.Code, w.Body)
		}
	}
}

func TestUpdateTask(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/api/tasks", `{"title":"A"}`)

	w := do(t, s, http.MethodPut, "/api/tasks/1", `{"completed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	var task models.Task
	json.Unmarshal(w.Body.Bytes(), &task)
	if !task.Completed || task.Title != "A" {
		t.Fatalf("unexpected %+v", task)
	}

	for _, body := range []string{"", "null", "{}", `{"foo":1}`, "not json", `{"completed":"yes"}`} {
		w = do(t, s, http.MethodPut, "/api/tasks/1", body)
		if w.Code != http.StatusBadRequest || errorOf(t, w) != "No data provided" {
			t.Fatalf("body %q: status=%d resp=%s", body, w.Code, w.Body)
		}
	}

	w = do(t, s, http.MethodPut, "/api/tasks/99", `{"title":"x"}`)
	if w.Code != http.StatusNotFound || errorOf(t, w) != "Resource not found" {
		t.Fatalf("unknown id: status=%d body=%s", w.Code, w.Body)
	}
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/api/tasks", `{"title":"A"}`)
	do(t, s, http.MethodPost, "/api/tasks/1/comments", `{"author":"Ann","content":"hi"}`)

	w := do(t, s, http.MethodDelete, "/api/tasks/1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Task deleted successfully") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	if w := do(t, s, http.MethodGet, "/api/comments/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("comment survived: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/api/tasks/1", ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
}

func TestComments(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/api/tasks", `{"title":"A"}`)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		errMsg string
	}{
		{"missing author", "/api/tasks/1/comments", `{"content":"x"}`, http.StatusBadRequest, "Content and author are required"},
		{"missing content", "/api/tasks/1/comments", `{"author":"x"}`, http.StatusBadRequest, "Content and author are required"},
		{"unknown task", "/api/tasks/9/comments", `{"author":"a","content":"b"}`, http.StatusNotFound, "Resource not found"},
		{"non numeric id", "/api/tasks/abc/comments", `{"author":"a","content":"b"}`, http.StatusNotFound, "Resource not found"},
		{"created", "/api/tasks/1/comments", `{"author":"Ann","content":"hi"}`, http.StatusCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status=%d body=%s", w.Code, w.Body)
			}
			if tt.errMsg != "" && errorOf(t, w) != tt.errMsg {
				t.Fatalf("error=%q", errorOf(t, w))
			}
		})
	}

	w := do(t, s, http.MethodGet, "/api/tasks/1", "")
	var task models.Task
	json.Unmarshal(w.Body.Bytes(), &task)
	if task.CommentsCount != 1 {
		t.Fatalf("comments_count=%d", task.CommentsCount)
	}

	w = do(t, s, http.MethodPut, "/api/comments/1", `{"content":"edited"}`)
	var c models.Comment
	json.Unmarshal(w.Body.Bytes(), &c)
	if w.Code != http.StatusOK || c.Content != "edited" || c.Author != "Ann" {
		t.Fatalf("status=%d comment=%+v", w.Code, c)
	}

	if w := do(t, s, http.MethodGet, "/api/tasks/9/comments", ""); w.Code != http.StatusNotFound {
		t.Fatalf("list under unknown task: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/api/comments/1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete: %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/nope", "")
	if w.Code != http.StatusNotFound || errorOf(t, w) != "Resource not found" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id=%q", got)
	}
}

// failingRepo fails every call
type failingRepo struct{ Repository }

func (failingRepo) ListTasks(ctx context.Context) ([]models.Task, error) { return nil, errMockDB }

func TestRepositoryErrorIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logs bytes.Buffer
	s := NewServer(failingRepo{}, log.New(&logs, "", 0))

	w := do(t, s, http.MethodGet, "/api/tasks", "")
	if w.Code != http.StatusInternalServerError || errorOf(t, w) != "Internal server error" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	if !strings.Contains(logs.String(), errMockDB.Error()) {
		t.Fatalf("error not logged: %q", logs.String())
	}
}

func TestPanicIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	// the embedded nil Repository panics on any method failingRepo does not override
	s := NewServer(failingRepo{}, quietLogger())
	w := do(t, s, http.MethodGet, "/api/tasks/1", "")
	if w.Code != http.StatusInternalServerError || errorOf(t, w) != "Internal server error" {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
}

// TestClientRoundTrip drives the real API client against the service
func TestClientRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	client := api.New(ts.URL+"/api", api.WithLogger(quietLogger()))
	ctx := context.Background()

	created, err := client.CreateTask(ctx, models.TaskDraft{Title: "Round trip"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done := true
	updated, err := client.UpdateTask(ctx, created.ID, models.TaskPatch{Completed: &done})
	if err != nil || !updated.Completed || !updated.Updated() {
		t.Fatalf("update: %+v %v", updated, err)
	}

	comment, err := client.CreateComment(ctx, created.ID, models.CommentDraft{Author: "Ann", Content: "hi"})
	if err != nil || comment.TaskID != created.ID {
		t.Fatalf("comment: %+v %v", comment, err)
	}

	_, err = client.CreateTask(ctx, models.TaskDraft{})
	if api.KindOf(err) != api.KindRejected {
		t.Fatalf("expected rejection, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Reason() != "Title is required" || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected error %#v", err)
	}

	if err := client.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.GetTask(ctx, created.ID); !api.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
