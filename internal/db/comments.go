package db

import (
	"context"

	"github.com/tgienger/taskdeck/internal/models"
)

const commentColumns = `SELECT id, task_id, author, content, created_at, updated_at FROM comments`

func scanComment(s scanner) (models.Comment, error) {
	var c models.Comment
	err := s.Scan(&c.ID, &c.TaskID, &c.Author, &c.Content, &c.CreatedAt.Time, &c.UpdatedAt.Time)
	return c, err
}

// CreateComment creates a new comment on a task
func (db *DB) CreateComment(ctx context.Context, taskID int64, draft models.CommentDraft) (models.Comment, error) {
	if _, err := db.GetTask(ctx, taskID); err != nil {
		return models.Comment{}, err
	}

	now := db.now()
	result, err := db.ExecContext(ctx, `
		INSERT INTO comments (task_id, author, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
	`, taskID, draft.Author, draft.Content, now, now)
	if err != nil {
		return models.Comment{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.Comment{}, err
	}

	return db.GetComment(ctx, id)
}

// GetComment retrieves a comment by ID
func (db *DB) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	c, err := scanComment(db.QueryRowContext(ctx, commentColumns+" WHERE id = ?", id))
	if err != nil {
		return models.Comment{}, notFound(err)
	}
	return c, nil
}

// ListComments retrieves the comments of a task, newest first
func (db *DB) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	if _, err := db.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, commentColumns+`
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment applies the non-nil fields of patch and bumps updated_at
func (db *DB) UpdateComment(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, error) {
	current, err := db.GetComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if patch.Author != nil {
		current.Author = *patch.Author
	}
	if patch.Content != nil {
		current.Content = *patch.Content
	}

	if _, err := db.ExecContext(ctx, `
		UPDATE comments SET author = ?, content = ?, updated_at = ? WHERE id = ?
	`, current.Author, current.Content, db.now(), id); err != nil {
		return models.Comment{}, err
	}
	return db.GetComment(ctx, id)
}

// DeleteComment deletes a comment
func (db *DB) DeleteComment(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
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
