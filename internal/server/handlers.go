package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/taskdeck/internal/db"
	"github.com/tgienger/taskdeck/internal/models"
)

const (
	maxBodySize = 1 << 20 // 1MB

	msgNotFound        = "Resource not found"
	msgInternal        = "Internal server error"
	msgNoData          = "No data provided"
	msgTitleRequired   = "Title is required"
	msgCommentRequired = "Content and author are required"
)

// Task handlers

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.repo.ListTasks(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := s.repo.GetTask(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var draft models.TaskDraft
	if !decodeBody(c, &draft) || draft.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgTitleRequired})
		return
	}
	task, err := s.repo.CreateTask(c.Request.Context(), draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.TaskPatch
	if !decodeBody(c, &patch) || patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoData})
		return
	}
	task, err := s.repo.UpdateTask(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.repo.DeleteTask(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Comment handlers

func (s *Server) handleListComments(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	comments, err := s.repo.ListComments(c.Request.Context(), taskID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) handleGetComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	comment, err := s.repo.GetComment(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) handleCreateComment(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	// an unknown task is reported before the body is looked at
	if _, err := s.repo.GetTask(c.Request.Context(), taskID); err != nil {
		s.fail(c, err)
		return
	}
	var draft models.CommentDraft
	if !decodeBody(c, &draft) || draft.Content == "" || draft.Author == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgCommentRequired})
		return
	}
	comment, err := s.repo.CreateComment(c.Request.Context(), taskID, draft)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) handleUpdateComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch models.CommentPatch
	if !decodeBody(c, &patch) || patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgNoData})
		return
	}
	comment, err := s.repo.UpdateComment(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.repo.DeleteComment(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// pathID parses the :id parameter; a non-numeric id is an unknown resource
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return 0, false
	}
	return id, true
}

// decodeBody binds the JSON body into v and reports false for an empty,
// oversized or malformed body. A null body binds to the zero value, which the
// callers reject as missing data.
func decodeBody(c *gin.Context, v any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
	return c.ShouldBindJSON(v) == nil
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
		return
	}
	s.logger.Printf("Error handling %s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, c.GetString(RequestIDHeader), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
