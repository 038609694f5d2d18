// Package server is the REST service behind the task client. It owns durable
// state, assigns ids and timestamps, and cascades task deletes to comments.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tgienger/taskdeck/internal/models"
)

// RequestIDHeader carries the id of one request end to end
const RequestIDHeader = "X-Request-Id"

// Repository is the persistence used by the handlers; *db.DB implements it
type Repository interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	ListComments(ctx context.Context, taskID int64) ([]models.Comment, error)
	GetComment(ctx context.Context, id int64) (models.Comment, error)
	CreateComment(ctx context.Context, taskID int64, draft models.CommentDraft) (models.Comment, error)
	UpdateComment(ctx context.Context, id int64, patch models.CommentPatch) (models.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// Server is the task service
type Server struct {
	repo   Repository
	router *gin.Engine
	logger *log.Logger
}

// NewServer creates the router and registers the API routes
func NewServer(repo Repository, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	router := gin.New()
	router.Use(gin.Logger(), requestID())

	s := &Server{
		repo:   repo,
		router: router,
		logger: logger,
	}
	router.Use(gin.CustomRecovery(s.recover))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	})

	// API routes
	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)

		api.GET("/tasks/:id/comments", s.handleListComments)
		api.POST("/tasks/:id/comments", s.handleCreateComment)
		api.GET("/comments/:id", s.handleGetComment)
		api.PUT("/comments/:id", s.handleUpdateComment)
		api.DELETE("/comments/:id", s.handleDeleteComment)
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting task service on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// requestID echoes the caller's request id or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.Printf("panic serving %s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, c.GetString(RequestIDHeader), recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
