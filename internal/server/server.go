package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"todoapi/internal/models"
)

// Repository is the data access the handlers depend on. *sqlite.Store implements it.
type Repository interface {
	CreateTodo(ctx context.Context, title string, description *string) (models.Todo, error)
	ListTodos(ctx context.Context) ([]models.Todo, error)
	GetTodo(ctx context.Context, id int64) (models.Todo, bool, error)
	UpdateTodo(ctx context.Context, id int64, title string, description *string, completed bool) (models.Todo, bool, error)
	DeleteTodo(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}

// Server provides the HTTP handlers for the todo API.
type Server struct {
	engine *gin.Engine
	store  Repository
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
// Access log lines go to accessLog, discarded when it is nil.
func New(store Repository, logger *slog.Logger, accessLog io.Writer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if accessLog == nil {
		accessLog = io.Discard
	}

	useJSONFieldNames()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID())
	router.Use(gin.LoggerWithWriter(accessLog, "/healthz"))

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
	}
	router.Use(gin.CustomRecovery(srv.recoverPanic))

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	todos := s.engine.Group("/todos")
	{
		todos.POST("", s.handleCreateTodo)
		todos.GET("", s.handleListTodos)
		todos.GET("/:id", s.handleGetTodo)
		todos.PUT("/:id", s.handleUpdateTodo)
		todos.DELETE("/:id", s.handleDeleteTodo)
	}

	s.engine.NoRoute(func(c *gin.Context) {
		s.respondError(c, errNotFound("Endpoint not found"))
	})
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64, answering 400 when it is not one.
func (s *Server) parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.respondError(c, errBadRequest(fmt.Sprintf("Invalid todo id: %s", raw), err))
		return 0, false
	}
	return id, true
}

// respondError logs the error and writes the uniform error payload.
func (s *Server) respondError(c *gin.Context, apiErr *APIError) {
	attrs := []any{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("request_id", c.GetString(requestIDKey)),
		slog.Int("status", apiErr.Status()),
	}
	if apiErr.Status() >= http.StatusInternalServerError {
		s.logger.Error("request failed", append(attrs, slog.String("error", apiErr.Error()))...)
	} else {
		s.logger.Debug("request rejected", append(attrs, slog.String("error", apiErr.Error()))...)
	}
	c.AbortWithStatusJSON(apiErr.Status(), apiErr.Response())
}

// respondSuccess writes payload as JSON, or only the status when payload is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.respondError(c, errInternal("Internal server error", fmt.Errorf("panic: %v", recovered)))
}
