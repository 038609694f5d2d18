package db

import (
	"context"

	"github.com/tgienger/taskdeck/internal/models"
)

const taskColumns = `
	SELECT t.id, t.title, t.description, t.completed, t.created_at, t.updated_at,
		(SELECT COUNT(*) FROM comments c WHERE c.task_id = t.id)
	FROM tasks t`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var t models.Task
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt.Time, &t.UpdatedAt.Time, &t.CommentsCount)
	return t, err
}

// CreateTask creates a new task
func (db *DB) CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	now := db.now()
	result, err := db.ExecContext(ctx, `
		INSERT INTO tasks (title, description, completed, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, draft.Title, draft.Description, draft.Completed, now, now)
	if err != nil {
		return models.Task{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Task{}, err
	}

	return db.GetTask(ctx, id)
}

// GetTask retrieves a task by ID with its comment count
func (db *DB) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, taskColumns+" WHERE t.id = ?", id))
	if err != nil {
		return models.Task{}, notFound(err)
	}
	return t, nil
}

// ListTasks returns all tasks in id order
func (db *DB) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, taskColumns+" ORDER BY t.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies the non-nil fields of patch and bumps updated_at
func (db *DB) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error) {
	current, err := db.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Completed != nil {
		current.Completed = *patch.Completed
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`, current.Title, current.Description, current.Completed, db.now(), id); err != nil {
		return models.Task{}, err
	}
	return db.GetTask(ctx, id)
}

// DeleteTask deletes a task and, through the foreign key, its comments
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
