package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/taskdeck/internal/config"
	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/server"
	"github.com/tgienger/taskdeck/internal/session"
)

type harness struct {
	t   *testing.T
	url string
	db  *db.DB
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// keep the user's real config out of the way
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	database, err := db.Open(":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := httptest.NewServer(server.NewServer(database, log.New(io.Discard, "", 0)).Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, url: srv.URL + "/api", db: database}
}

// run executes the root command with args; stdin feeds confirmation prompts
func (h *harness) run(stdin string, args ...string) (stdout, stderr string, err error) {
	h.t.Helper()
	cmd := NewRootCmd(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--api", h.url}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, stderr, err := h.run("", args...)
	if err != nil {
		h.t.Fatalf("%v: %v\n%s", args, err, stderr)
	}
	return out
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

func TestTasks_AddAndList(t *testing.T) {
	h := newHarness(t)

	created := decode[models.Task](t, h.mustRun("tasks", "add", "--title", "Write docs", "--description", "**soon**"))
	if created.ID == 0 || created.Title != "Write docs" || created.Completed {
		t.Fatalf("unexpected task %+v", created)
	}
	h.mustRun("tasks", "add", "--title", "Ship", "--completed")

	tasks := decode[[]models.Task](t, h.mustRun("tasks", "list"))
	if len(tasks) != 2 || tasks[0].Title != "Write docs" || !tasks[1].Completed {
		t.Fatalf("unexpected list %+v", tasks)
	}

	shown := decode[models.Task](t, h.mustRun("tasks", "show", "1"))
	if shown.Description != "**soon**" {
		t.Fatalf("unexpected task %+v", shown)
	}
}

func TestTasks_AddRejectsBlankTitle(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("", "tasks", "add", "--title", "  ")
	if err == nil || err.Error() != "Please enter a task title" {
		t.Fatalf("expected validation error, got %v", err)
	}
	tasks := decode[[]models.Task](t, h.mustRun("tasks", "list"))
	if len(tasks) != 0 {
		t.Fatalf("invalid task reached the server: %+v", tasks)
	}
}

func TestTasks_UpdateOnlyChangesGivenFlags(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "Keep", "--description", "body")

	updated := decode[models.Task](t, h.mustRun("tasks", "update", "1", "--completed"))
	if updated.Title != "Keep" || updated.Description != "body" || !updated.Completed {
		t.Fatalf("unexpected task %+v", updated)
	}

	_, _, err := h.run("", "tasks", "update", "99", "--title", "x")
	if err == nil || !strings.Contains(err.Error(), "task not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTasks_DoneAndUndo(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "Toggle me")

	if task := decode[models.Task](t, h.mustRun("tasks", "done", "1")); !task.Completed {
		t.Fatal("expected completed")
	}
	if task := decode[models.Task](t, h.mustRun("tasks", "undo", "1")); task.Completed {
		t.Fatal("expected pending")
	}

	if _, _, err := h.run("", "tasks", "done", "42"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestTasks_RmAsksForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "A")
	h.mustRun("comments", "add", "1", "--content", "hi", "--author", "Ann")

	_, stderr, err := h.run("n\n", "tasks", "rm", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "This will also delete all comments. [y/N]") || !strings.Contains(stderr, "Aborted.") {
		t.Fatalf("unexpected prompt output %q", stderr)
	}
	if tasks := decode[[]models.Task](t, h.mustRun("tasks", "list")); len(tasks) != 1 {
		t.Fatal("declined delete removed the task")
	}

	if _, _, err := h.run("y\n", "tasks", "rm", "1"); err != nil {
		t.Fatal(err)
	}
	if tasks := decode[[]models.Task](t, h.mustRun("tasks", "list")); len(tasks) != 0 {
		t.Fatalf("expected empty list, got %+v", tasks)
	}
	if _, _, err := h.run("", "comments", "show", "1"); err == nil {
		t.Fatal("comments should be deleted with their task")
	}
}

func TestTasks_RmYesSkipsPrompt(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "A")

	out, stderr, err := h.run("", "tasks", "rm", "1", "--yes")
	if err != nil {
		t.Fatal(err)
	}
	if stderr != "" {
		t.Fatalf("unexpected prompt %q", stderr)
	}
	if res := decode[map[string]any](t, out); res["deleted"] != true {
		t.Fatalf("unexpected output %s", out)
	}
}

func TestTasks_InvalidID(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "tasks", "show", "abc")
	if err == nil || !strings.Contains(err.Error(), `invalid task id "abc"`) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestComments_Lifecycle(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "A")
	t.Setenv("TASKDECK_AUTHOR", "Config Author")

	first := decode[models.Comment](t, h.mustRun("comments", "add", "1", "--content", "first"))
	if first.Author != "Config Author" || first.TaskID != 1 {
		t.Fatalf("unexpected comment %+v", first)
	}
	h.mustRun("comments", "add", "1", "--content", "second", "--author", "Bob")

	comments := decode[[]models.Comment](t, h.mustRun("comments", "list", "1"))
	if len(comments) != 2 || comments[0].Content != "second" || comments[1].Content != "first" {
		t.Fatalf("expected newest first, got %+v", comments)
	}

	edited := decode[models.Comment](t, h.mustRun("comments", "update", "1", "--content", "first, edited"))
	if edited.Content != "first, edited" || edited.Author != "Config Author" {
		t.Fatalf("unexpected comment %+v", edited)
	}

	h.mustRun("comments", "rm", "1", "--yes")
	comments = decode[[]models.Comment](t, h.mustRun("comments", "list", "1"))
	if len(comments) != 1 || comments[0].Author != "Bob" {
		t.Fatalf("unexpected comments %+v", comments)
	}

	if task := decode[models.Task](t, h.mustRun("tasks", "show", "1")); task.CommentsCount != 1 {
		t.Fatalf("comments_count=%d", task.CommentsCount)
	}
}

func TestComments_Validation(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "A")

	_, _, err := h.run("", "comments", "add", "1", "--author", "Ann")
	if err == nil || err.Error() != "Please enter comment content" {
		t.Fatalf("expected content validation, got %v", err)
	}
	_, _, err = h.run("", "comments", "add", "1", "--content", "hi")
	if err == nil || err.Error() != "Please enter your name" {
		t.Fatalf("expected author validation, got %v", err)
	}
}

func TestComments_UnknownTask(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "comments", "list", "7")
	if err == nil || !strings.HasPrefix(err.Error(), "Failed to load comments") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPrettyOutput(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "A")

	out := h.mustRun("--pretty", "tasks", "show", "1")
	if !strings.Contains(out, "\n  \"title\": \"A\"") {
		t.Fatalf("expected indented JSON, got %s", out)
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	if out != "taskdeck 1.2.3 (commit: abc, built: today)\n" {
		t.Fatalf("unexpected version %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "taskdeck.yaml")

	out := h.mustRun("--config", path, "config", "init")
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err != nil {
		t.Fatalf("written config does not load: %v", err)
	}

	if _, _, err := h.run("", "--config", path, "config", "init"); err == nil {
		t.Fatal("expected an error when the file exists")
	}
	h.mustRun("--config", path, "config", "init", "--force")
}

func TestMissingExplicitConfig(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "tasks", "list")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"y", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirmPrompt(strings.NewReader(tt.input), &out)("Delete?")
		if got != tt.want {
			t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
		}
		if !strings.HasPrefix(out.String(), "Delete? [y/N] ") {
			t.Errorf("unexpected prompt %q", out.String())
		}
	}
}

func TestSetFields(t *testing.T) {
	sess := session.NewTask(nil, nil)
	if err := setFields(sess, session.FieldTitle, "A", session.FieldCompleted, "true"); err != nil {
		t.Fatal(err)
	}
	if d := sess.Draft(); d.Title != "A" || !d.Completed {
		t.Fatalf("unexpected draft %+v", d)
	}

	err := setFields(sess, "priority", "high")
	if !errors.Is(err, session.ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
	if err := setFields(sess, session.FieldCompleted, "maybe"); err == nil || !strings.Contains(err.Error(), "setting completed") {
		t.Fatalf("expected a parse error, got %v", err)
	}
	if err := setFields(sess, session.FieldTitle); err == nil {
		t.Fatal("expected an error for a missing value")
	}
}
