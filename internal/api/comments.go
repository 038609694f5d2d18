package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/taskdeck/internal/models"
)

// ListComments returns the comments of a task, newest first
func (c *Client) ListComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := c.do(ctx, "list comments", http.MethodGet, taskPath(taskID)+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// GetComment returns one comment
func (c *Client) GetComment(ctx context.Context, id int64) (models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, "get comment", http.MethodGet, commentPath(id), nil, &comment)
	return comment, err
}

// CreateComment posts a comment on a task
func (c *Client) CreateComment(ctx context.Context, taskID int64, draft models.CommentDraft) (models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, "create comment", http.MethodPost, taskPath(taskID)+"/comments", draft, &comment)
	return comment, err
}

// UpdateComment applies a partial update to a comment
func (c *Client) UpdateComment(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, error) {
	var comment models.Comment
	err := c.do(ctx, "update comment", http.MethodPut, commentPath(id), patch, &comment)
	return comment, err
}

// DeleteComment deletes a comment
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, "delete comment", http.MethodDelete, commentPath(id), nil, nil)
}

func commentPath(id int64) string {
	return fmt.Sprintf("/comments/%d", id)
}
