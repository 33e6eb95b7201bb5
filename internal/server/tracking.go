package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/pulse/internal/tasks"
)

type startRequest struct {
	Notes string `json:"notes"`
}

// handleStart opens a session for the task.
func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	entry, err := s.app.Ledger.Start(c.Request.Context(), c.Param("taskID"), req.Notes)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"entry": entry})
}

// handleStop closes the task's active session.
func (s *Server) handleStop(c *gin.Context) {
	entry, err := s.app.Ledger.Stop(c.Request.Context(), c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"entry": entry})
}

// handlePause closes the task's active session as resumable.
func (s *Server) handlePause(c *gin.Context) {
	entry, err := s.app.Ledger.Pause(c.Request.Context(), c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"entry": entry})
}

// handleResume opens a new session after a pause.
func (s *Server) handleResume(c *gin.Context) {
	entry, err := s.app.Ledger.Resume(c.Request.Context(), c.Param("taskID"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"entry": entry})
}

// handleActiveSession reports the active session, if any.
func (s *Server) handleActiveSession(c *gin.Context) {
	ctx := c.Request.Context()
	entry, ok := s.app.Ledger.Active(ctx)
	if !ok {
		respondSuccess(c, http.StatusOK, gin.H{"active": false})
		return
	}
	elapsed, _ := s.app.Ledger.Elapsed(ctx)
	respondSuccess(c, http.StatusOK, gin.H{
		"active":          true,
		"entry":           entry,
		"elapsed_seconds": int(elapsed.Seconds()),
	})
}

// handleTaskTime returns tracked minutes and entries for a task.
func (s *Server) handleTaskTime(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if !s.app.Tasks.Exists(ctx, id) {
		s.respondStoreError(c, fmt.Errorf("%w: %s", tasks.ErrTaskNotFound, id))
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"total_minutes": s.app.Ledger.TotalTime(ctx, id),
		"entries":       s.app.Ledger.Entries(ctx, id),
	})
}
