package session

import (
	"context"
	"strings"

	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/store"
)

// Comment field names accepted by Set
const (
	FieldAuthor  = "author"
	FieldContent = "content"
)

// CommentWriter is satisfied by *store.CommentStore
type CommentWriter interface {
	Create(ctx context.Context, draft models.CommentDraft) (models.Comment, store.Outcome)
	Update(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, store.Outcome)
}

// Comment is a comment form session
type Comment = Session[models.CommentDraft]

// NewComment starts a create session when comment is nil and an edit session
// of a copy of comment otherwise
func NewComment(comments CommentWriter, comment *models.Comment) *Comment {
	s := &Comment{
		setField: setCommentField,
		validate: validateComment,
	}
	if comment == nil {
		s.mode = ModeCreate
		s.commit = func(ctx context.Context, d models.CommentDraft) store.Outcome {
			_, out := comments.Create(ctx, d)
			return out
		}
		return s
	}

	id := comment.ID
	s.mode = ModeEdit
	s.id = id
	s.draft = comment.Draft()
	s.commit = func(ctx context.Context, d models.CommentDraft) store.Outcome {
		_, out := comments.Update(ctx, id, d.Patch())
		return out
	}
	return s
}

func setCommentField(d *models.CommentDraft, name, value string) error {
	switch name {
	case FieldAuthor:
		d.Author = value
	case FieldContent:
		d.Content = value
	default:
		return unknownField(name)
	}
	return nil
}

// content is checked before author, matching the order of the form
func validateComment(d models.CommentDraft) *ValidationError {
	if strings.TrimSpace(d.Content) == "" {
		return &ValidationError{Field: FieldContent, Message: "Please enter comment content"}
	}
	if strings.TrimSpace(d.Author) == "" {
		return &ValidationError{Field: FieldAuthor, Message: "Please enter your name"}
	}
	return nil
}
