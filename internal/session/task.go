package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/store"
)

// Task field names accepted by Set
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCompleted   = "completed"
)

// TaskWriter is satisfied by *store.TaskStore
type TaskWriter interface {
	Create(ctx context.Context, draft models.TaskDraft) (models.Task, store.Outcome)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, store.Outcome)
}

// Task is a task form session
type Task = Session[models.TaskDraft]

// NewTask starts a create session when task is nil and an edit session of a
// copy of task otherwise
func NewTask(tasks TaskWriter, task *models.Task) *Task {
	s := &Task{
		setField: setTaskField,
		validate: validateTask,
	}
	if task == nil {
		s.mode = ModeCreate
		s.commit = func(ctx context.Context, d models.TaskDraft) store.Outcome {
			_, out := tasks.Create(ctx, d)
			return out
		}
		return s
	}

	id := task.ID
	s.mode = ModeEdit
	s.id = id
	s.draft = task.Draft()
	s.commit = func(ctx context.Context, d models.TaskDraft) store.Outcome {
		_, out := tasks.Update(ctx, id, d.Patch())
		return out
	}
	return s
}

func setTaskField(d *models.TaskDraft, name, value string) error {
	switch name {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldCompleted:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("completed: %w", err)
		}
		d.Completed = b
	default:
		return unknownField(name)
	}
	return nil
}

func validateTask(d models.TaskDraft) *ValidationError {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: FieldTitle, Message: "Please enter a task title"}
	}
	return nil
}
