package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/form"
	"github.com/Makepad-fr/tada/internal/store"
)

type todoInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) listTodos(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.ListAll())
}

func (s *Server) getTodo(c *gin.Context) {
	id, ok := s.todoID(c)
	if !ok {
		return
	}
	t, err := s.store.Get(id)
	if err != nil {
		s.handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) createTodo(c *gin.Context) {
	var in todoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.store.Create(in.Title, in.Description)
	if err != nil {
		s.handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTodo(c *gin.Context) {
	id, ok := s.todoID(c)
	if !ok {
		return
	}
	var in todoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.store.Update(id, in.Title, in.Description)
	if err != nil {
		s.handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) toggleTodo(c *gin.Context) {
	id, ok := s.todoID(c)
	if !ok {
		return
	}
	t, err := s.store.ToggleComplete(id)
	if err != nil {
		s.handleTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) deleteTodo(c *gin.Context) {
	id, ok := s.todoID(c)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.handleTodoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) validateTitle(c *gin.Context) {
	var in struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := form.ValidateTitle(in.Title)
	c.JSON(http.StatusOK, gin.H{"valid": err == nil, "reason": form.Reason(err)})
}

// todoID parses the :id param. A malformed id cannot name a record, so it
// is reported as not found.
func (s *Server) todoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.metrics.notFound(c)
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, form.ErrEmptyTitle):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": form.Reason(err)})
	case errors.Is(err, store.ErrNotFound):
		s.metrics.notFound(c)
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
	default:
		s.log.Error("todo request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process todo request"})
	}
}
