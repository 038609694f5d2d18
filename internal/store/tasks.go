package store

import (
	"context"
	"log"

	"github.com/tgienger/taskdeck/internal/models"
)

// TaskAPI is the part of the API client used by TaskStore
type TaskAPI interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// TaskMessages are the banner texts of the task list
var TaskMessages = Messages{
	Noun:          "task",
	Load:          "Failed to load tasks. Please try again.",
	Refresh:       "Failed to refresh task. Please try again.",
	Create:        "Failed to create task. Please try again.",
	Update:        "Failed to update task. Please try again.",
	Delete:        "Failed to delete task. Please try again.",
	ConfirmDelete: "Are you sure you want to delete this task? This will also delete all comments.",
}

// TaskStore is the session's task list
type TaskStore struct {
	*List[models.Task, models.TaskDraft, models.TaskPatch]
}

// NewTaskStore creates an empty task list backed by api
func NewTaskStore(api TaskAPI, logger *log.Logger) *TaskStore {
	return &TaskStore{
		List: NewList[models.Task, models.TaskDraft, models.TaskPatch](taskRemote{api: api}, taskID, TaskMessages, logger),
	}
}

// ToggleComplete sets the completed flag through a regular update; the stored
// value is whatever the server returns
func (s *TaskStore) ToggleComplete(ctx context.Context, id int64, completed bool) (models.Task, Outcome) {
	return s.Update(ctx, id, models.TaskPatch{Completed: &completed})
}

func taskID(t models.Task) int64 { return t.ID }

type taskRemote struct {
	api TaskAPI
}

func (r taskRemote) List(ctx context.Context) ([]models.Task, error) {
	return r.api.ListTasks(ctx)
}

func (r taskRemote) Get(ctx context.Context, id int64) (models.Task, error) {
	return r.api.GetTask(ctx, id)
}

func (r taskRemote) Create(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	return r.api.CreateTask(ctx, draft)
}

func (r taskRemote) Update(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	return r.api.UpdateTask(ctx, id, patch)
}

func (r taskRemote) Delete(ctx context.Context, id int64) error {
	return r.api.DeleteTask(ctx, id)
}
