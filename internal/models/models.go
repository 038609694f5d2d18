package models

// Task represents a single task as reported by the server
type Task struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Completed     bool      `json:"completed"`
	CreatedAt     Timestamp `json:"created_at"`
	UpdatedAt     Timestamp `json:"updated_at"`
	CommentsCount int       `json:"comments_count"`
}

// Updated reports whether the task was modified after it was created
func (t Task) Updated() bool {
	return !t.UpdatedAt.Equal(t.CreatedAt.Time)
}

// Draft returns the editable fields of the task
func (t Task) Draft() TaskDraft {
	return TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// Comment represents a comment on a task
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Edited reports whether the comment was modified after it was posted
func (c Comment) Edited() bool {
	return !c.UpdatedAt.Equal(c.CreatedAt.Time)
}

// Draft returns the editable fields of the comment
func (c Comment) Draft() CommentDraft {
	return CommentDraft{
		Author:  c.Author,
		Content: c.Content,
	}
}

// TaskDraft is the body sent when creating a task
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Patch converts the draft into an update that overwrites every editable field
func (d TaskDraft) Patch() TaskPatch {
	title, desc, completed := d.Title, d.Description, d.Completed
	return TaskPatch{Title: &title, Description: &desc, Completed: &completed}
}

// TaskPatch is a partial task update; nil fields are left untouched
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Empty reports whether the patch carries no fields
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// CommentDraft is the body sent when creating a comment
type CommentDraft struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

// Patch converts the draft into an update that overwrites every editable field
func (d CommentDraft) Patch() CommentPatch {
	author, content := d.Author, d.Content
	return CommentPatch{Author: &author, Content: &content}
}

// CommentPatch is a partial comment update
type CommentPatch struct {
	Author  *string `json:"author,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Empty reports whether the patch carries no fields
func (p CommentPatch) Empty() bool {
	return p.Author == nil && p.Content == nil
}
