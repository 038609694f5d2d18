package store

import (
	"context"
	"log"

	"github.com/tgienger/taskdeck/internal/models"
)

// CommentAPI is the part of the API client used by CommentStore
type CommentAPI interface {
	ListComments(ctx context.Context, taskID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, id int64) (models.Comment, error)
	CreateComment(ctx context.Context, taskID int64, draft models.CommentDraft) (models.Comment, error)
	UpdateComment(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// CommentMessages are the banner texts of a comment section
var CommentMessages = Messages{
	Noun:          "comment",
	Load:          "Failed to load comments",
	Refresh:       "Failed to refresh comment",
	Create:        "Failed to create comment",
	Update:        "Failed to update comment",
	Delete:        "Failed to delete comment",
	ConfirmDelete: "Are you sure you want to delete this comment?",
}

// CommentStore holds the comments of one task
type CommentStore struct {
	*List[models.Comment, models.CommentDraft, models.CommentPatch]
	taskID int64
}

// NewCommentStore creates an empty comment list scoped to taskID
func NewCommentStore(api CommentAPI, taskID int64, logger *log.Logger) *CommentStore {
	return &CommentStore{
		List:   NewList[models.Comment, models.CommentDraft, models.CommentPatch](commentRemote{api: api, taskID: taskID}, commentID, CommentMessages, logger),
		taskID: taskID,
	}
}

// TaskID returns the owning task
func (s *CommentStore) TaskID() int64 { return s.taskID }

func commentID(c models.Comment) int64 { return c.ID }

type commentRemote struct {
	api    CommentAPI
	taskID int64
}

func (r commentRemote) List(ctx context.Context) ([]models.Comment, error) {
	return r.api.ListComments(ctx, r.taskID)
}

func (r commentRemote) Get(ctx context.Context, id int64) (models.Comment, error) {
	return r.api.GetComment(ctx, id)
}

func (r commentRemote) Create(ctx context.Context, draft models.CommentDraft) (models.Comment, error) {
	return r.api.CreateComment(ctx, r.taskID, draft)
}

func (r commentRemote) Update(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, error) {
	return r.api.UpdateComment(ctx, id, patch)
}

func (r commentRemote) Delete(ctx context.Context, id int64) error {
	return r.api.DeleteComment(ctx, id)
}
