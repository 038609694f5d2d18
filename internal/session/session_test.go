package session

import (
	"context"
	"errors"
	"testing"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/store"
)

type fakeTasks struct {
	creates []models.TaskDraft
	updates []models.TaskPatch
	ids     []int64
	fail    bool
}

func (f *fakeTasks) Create(ctx context.Context, d models.TaskDraft) (models.Task, store.Outcome) {
	f.creates = append(f.creates, d)
	if f.fail {
		return models.Task{}, store.Outcome{Status: store.StatusFailed, Message: "Failed to create task. Please try again."}
	}
	return models.Task{ID: 1, Title: d.Title}, store.Outcome{Status: store.StatusOK}
}

func (f *fakeTasks) Update(ctx context.Context, id int64, p models.TaskPatch) (models.Task, store.Outcome) {
	f.ids = append(f.ids, id)
	f.updates = append(f.updates, p)
	if f.fail {
		return models.Task{}, store.Outcome{Status: store.StatusFailed}
	}
	return models.Task{ID: id}, store.Outcome{Status: store.StatusOK}
}

func TestTask_EmptyTitleNeverReachesRemote(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeTasks{}
			s := NewTask(remote, nil)
			if err := s.Set(FieldTitle, tt.title); err != nil {
				t.Fatalf("set: %v", err)
			}
			_, err := s.Submit(context.Background())
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != FieldTitle || verr.Message != "Please enter a task title" {
				t.Fatalf("unexpected %+v", verr)
			}
			if len(remote.creates) != 0 {
				t.Fatalf("remote was called")
			}
			if s.Submitting() {
				t.Fatalf("validation failure must not leave the session submitting")
			}
		})
	}
}

func TestTask_CreateSendsDraft(t *testing.T) {
	remote := &fakeTasks{}
	s := NewTask(remote, nil)
	if s.Mode() != ModeCreate {
		t.Fatalf("mode=%v", s.Mode())
	}
	s.Set(FieldTitle, "Write docs")
	s.Set(FieldDescription, "for the API")

	out, err := s.Submit(context.Background())
	if err != nil || !out.OK() {
		t.Fatalf("submit: %v %+v", err, out)
	}
	want := models.TaskDraft{Title: "Write docs", Description: "for the API"}
	if len(remote.creates) != 1 || remote.creates[0] != want {
		t.Fatalf("creates=%+v", remote.creates)
	}
}

func TestTask_EditSendsEveryField(t *testing.T) {
	remote := &fakeTasks{}
	task := models.Task{ID: 9, Title: "Old", Description: "d", Completed: true}
	s := NewTask(remote, &task)
	if s.Mode() != ModeEdit || s.ID() != 9 {
		t.Fatalf("mode=%v id=%d", s.Mode(), s.ID())
	}
	if err := s.Set(FieldTitle, "New"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(FieldCompleted, "false"); err != nil {
		t.Fatal(err)
	}
	// the session works on a copy
	if task.Title != "Old" {
		t.Fatalf("original task mutated")
	}

	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(remote.ids) != 1 || remote.ids[0] != 9 {
		t.Fatalf("ids=%v", remote.ids)
	}
	p := remote.updates[0]
	if p.Title == nil || *p.Title != "New" || p.Description == nil || *p.Description != "d" || p.Completed == nil || *p.Completed {
		t.Fatalf("unexpected patch %+v", p)
	}
}

func TestTask_FailureKeepsDraft(t *testing.T) {
	remote := &fakeTasks{fail: true}
	s := NewTask(remote, nil)
	s.Set(FieldTitle, "Retry me")

	out, err := s.Submit(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != store.StatusFailed {
		t.Fatalf("expected failure, got %+v", out)
	}
	if s.Draft().Title != "Retry me" || s.Submitting() {
		t.Fatalf("draft=%+v submitting=%v", s.Draft(), s.Submitting())
	}

	remote.fail = false
	if out, _ := s.Submit(context.Background()); !out.OK() {
		t.Fatalf("retry: %+v", out)
	}
	if len(remote.creates) != 2 {
		t.Fatalf("expected two attempts, got %d", len(remote.creates))
	}
}

func TestSession_SecondSubmitIsNoop(t *testing.T) {
	remote := &fakeTasks{}
	s := NewTask(remote, nil)
	s.Set(FieldTitle, "once")

	commit, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !s.Submitting() {
		t.Fatalf("expected submitting")
	}
	if _, err := s.Submit(context.Background()); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	if err := s.Set(FieldTitle, "twice"); !errors.Is(err, ErrSubmitting) {
		t.Fatalf("expected edits to be disabled, got %v", err)
	}
	if len(remote.creates) != 0 {
		t.Fatalf("no request expected before commit")
	}

	commit()
	commit()
	if len(remote.creates) != 1 {
		t.Fatalf("expected exactly one request, got %d", len(remote.creates))
	}
	if s.Submitting() {
		t.Fatalf("expected submitting cleared")
	}
}

func TestTask_SetRejectsBadInput(t *testing.T) {
	s := NewTask(&fakeTasks{}, nil)
	if err := s.Set("priority", "high"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if err := s.Set(FieldCompleted, "maybe"); err == nil {
		t.Fatalf("expected parse error")
	}
}

type fakeComments struct {
	creates []models.CommentDraft
	updates []models.CommentPatch
}

func (f *fakeComments) Create(ctx context.Context, d models.CommentDraft) (models.Comment, store.Outcome) {
	f.creates = append(f.creates, d)
	return models.Comment{ID: 1}, store.Outcome{Status: store.StatusOK}
}

func (f *fakeComments) Update(ctx context.Context, id int64, p models.CommentPatch) (models.Comment, store.Outcome) {
	f.updates = append(f.updates, p)
	return models.Comment{ID: id}, store.Outcome{Status: store.StatusOK}
}

func TestComment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		author  string
		content string
		field   string
		message string
	}{
		{"both empty reports content first", "", "", FieldContent, "Please enter comment content"},
		{"missing author", "  ", "hello", FieldAuthor, "Please enter your name"},
		{"missing content", "Ann", " ", FieldContent, "Please enter comment content"},
		{"valid", "Ann", "hello", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeComments{}
			s := NewComment(remote, nil)
			s.Set(FieldAuthor, tt.author)
			s.Set(FieldContent, tt.content)

			_, err := s.Submit(context.Background())
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if len(remote.creates) != 1 {
					t.Fatalf("expected create")
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field || verr.Message != tt.message {
				t.Fatalf("got %v", err)
			}
			if len(remote.creates) != 0 {
				t.Fatalf("remote was called")
			}
		})
	}
}

func TestComment_Edit(t *testing.T) {
	remote := &fakeComments{}
	c := models.Comment{ID: 4, TaskID: 1, Author: "Ann", Content: "first"}
	s := NewComment(remote, &c)
	s.Set(FieldContent, "second")
	if _, err := s.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	p := remote.updates[0]
	if *p.Author != "Ann" || *p.Content != "second" {
		t.Fatalf("unexpected patch %+v", p)
	}
	if err := s.Set("completed", "true"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
