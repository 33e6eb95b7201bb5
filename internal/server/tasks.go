package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/pulse/internal/models"
	"github.com/balkashynov/pulse/internal/tasks"
)

type taskRequest struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Priority          *string    `json:"priority"`
	Status            *string    `json:"status"`
	Tags              []string   `json:"tags"`
	Due               *time.Time `json:"due"`
	EstimatedDuration *int       `json:"estimated_duration"`
	Subtasks          []string   `json:"subtasks"`
}

// handleListTasks lists tasks, optionally filtered by query parameters.
func (s *Server) handleListTasks(c *gin.Context) {
	f := tasks.Filter{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Tag:      c.Query("tag"),
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid completed filter %q", raw))
			return
		}
		f.Completed = &completed
	}

	list, err := s.app.Tasks.List(c.Request.Context(), f)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": list})
}

// handleCreateTask creates a task from a JSON body.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.app.Tasks.Create(c.Request.Context(), tasks.CreateRequest{
		Title:             getString(req.Title),
		Description:       getString(req.Description),
		Priority:          models.Priority(getString(req.Priority)),
		Tags:              req.Tags,
		Due:               req.Due,
		EstimatedDuration: req.EstimatedDuration,
		Subtasks:          req.Subtasks,
	})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleGetTask returns one task.
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.app.Tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies a partial update.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	patch := tasks.Patch{
		Title:             req.Title,
		Description:       req.Description,
		Tags:              req.Tags,
		Due:               req.Due,
		EstimatedDuration: req.EstimatedDuration,
	}
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.Status != nil {
		st := models.Status(*req.Status)
		patch.Status = &st
	}

	task, err := s.app.Tasks.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.app.Tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleToggleTask flips completion, subject to dependency gating.
func (s *Server) handleToggleTask(c *gin.Context) {
	task, err := s.app.Tasks.ToggleCompletion(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleBlockedTasks lists tasks gated on the given task.
func (s *Server) handleBlockedTasks(c *gin.Context) {
	blocked, err := s.app.Tasks.BlockedTasks(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": blocked})
}

type dependencyRequest struct {
	DependsOn string `json:"depends_on" binding:"required"`
	Type      string `json:"type"`
}

// handleAddDependency adds an edge from the task to a prerequisite.
func (s *Server) handleAddDependency(c *gin.Context) {
	var req dependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	typ := models.DependencyType(req.Type)
	if typ == "" {
		typ = models.DependencyBlocks
	}

	dep, err := s.app.Tasks.AddDependency(c.Request.Context(), c.Param("id"), req.DependsOn, typ)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"dependency": dep})
}

// handleRemoveDependency deletes one edge.
func (s *Server) handleRemoveDependency(c *gin.Context) {
	if err := s.app.Tasks.RemoveDependency(c.Request.Context(), c.Param("id"), c.Param("depID")); err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

type subtaskRequest struct {
	Title string `json:"title" binding:"required"`
}

// handleAddSubtask appends a subtask.
func (s *Server) handleAddSubtask(c *gin.Context) {
	var req subtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	sub, err := s.app.Tasks.AddSubtask(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"subtask": sub})
}

// handleToggleSubtask flips a subtask.
func (s *Server) handleToggleSubtask(c *gin.Context) {
	sub, err := s.app.Tasks.ToggleSubtask(c.Request.Context(), c.Param("id"), c.Param("subID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"subtask": sub})
}

// handleListTemplates returns stored templates.
func (s *Server) handleListTemplates(c *gin.Context) {
	templates, err := s.app.Tasks.Templates(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"templates": templates})
}

// handleUseTemplate creates a task from a template id or name.
func (s *Server) handleUseTemplate(c *gin.Context) {
	task, err := s.app.Tasks.CreateFromTemplate(c.Request.Context(), c.Param("ref"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}
