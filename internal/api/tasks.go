package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/taskdeck/internal/models"
)

// ListTasks returns every task
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// GetTask returns one task
func (c *Client) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, "get task", http.MethodGet, taskPath(id), nil, &task)
	return task, err
}

// CreateTask creates a task and returns the server's copy
func (c *Client) CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, "create task", http.MethodPost, "/tasks", draft, &task)
	return task, err
}

// UpdateTask applies a partial update and returns the server's copy
func (c *Client) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, "update task", http.MethodPut, taskPath(id), patch, &task)
	return task, err
}

// DeleteTask deletes a task; the server also deletes its comments
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id int64) string {
	return fmt.Sprintf("/tasks/%d", id)
}
