package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// createTodoRequest is the body of POST /todos. A missing title fails binding,
// an empty one fails validation.
type createTodoRequest struct {
	Title       *string `json:"title" binding:"required"`
	Description *string `json:"description"`
}

// updateTodoRequest is the body of PUT /todos/:id; all fields are replaced.
type updateTodoRequest struct {
	Title       *string `json:"title" binding:"required"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed" binding:"required"`
}

// validateTitle rejects titles that are empty once surrounding whitespace is removed.
func validateTitle(title string) *APIError {
	if strings.TrimSpace(title) == "" {
		return errValidation("Title must not be empty")
	}
	return nil
}

// handleCreateTodo inserts a new todo.
func (s *Server) handleCreateTodo(c *gin.Context) {
	var req createTodoRequest
	if apiErr := bindJSON(c, &req); apiErr != nil {
		s.respondError(c, apiErr)
		return
	}
	if apiErr := validateTitle(*req.Title); apiErr != nil {
		s.respondError(c, apiErr)
		return
	}

	todo, err := s.store.CreateTodo(c.Request.Context(), *req.Title, req.Description)
	if err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	respondSuccess(c, http.StatusCreated, todo)
}

// handleListTodos returns every todo ordered by id.
func (s *Server) handleListTodos(c *gin.Context) {
	todos, err := s.store.ListTodos(c.Request.Context())
	if err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	respondSuccess(c, http.StatusOK, todos)
}

// handleGetTodo returns a single todo.
func (s *Server) handleGetTodo(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	todo, found, err := s.store.GetTodo(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	if !found {
		s.respondError(c, todoNotFound(id))
		return
	}
	respondSuccess(c, http.StatusOK, todo)
}

// handleUpdateTodo replaces title, description and completed of a todo.
func (s *Server) handleUpdateTodo(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req updateTodoRequest
	if apiErr := bindJSON(c, &req); apiErr != nil {
		s.respondError(c, apiErr)
		return
	}
	if apiErr := validateTitle(*req.Title); apiErr != nil {
		s.respondError(c, apiErr)
		return
	}

	todo, found, err := s.store.UpdateTodo(c.Request.Context(), id, *req.Title, req.Description, *req.Completed)
	if err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	if !found {
		s.respondError(c, todoNotFound(id))
		return
	}
	respondSuccess(c, http.StatusOK, todo)
}

// handleDeleteTodo removes a todo completely.
func (s *Server) handleDeleteTodo(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteTodo(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, errDatabase(err))
		return
	}
	if !deleted {
		s.respondError(c, todoNotFound(id))
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}
