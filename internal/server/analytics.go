package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/pulse/internal/habits"
	"github.com/balkashynov/pulse/internal/models"
)

type habitRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Target   int    `json:"target"`
}

// handleListHabits returns every habit.
func (s *Server) handleListHabits(c *gin.Context) {
	list, err := s.app.Habits.List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"habits": list})
}

// handleCreateHabit adds a habit.
func (s *Server) handleCreateHabit(c *gin.Context) {
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	h, err := s.app.Habits.Create(c.Request.Context(), req.Name, req.Category, req.Target)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"habit": h})
}

// handleToggleHabit flips today's completion.
func (s *Server) handleToggleHabit(c *gin.Context) {
	h, err := s.app.Habits.ToggleToday(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"habit": h})
}

// handleHabitRate returns the completion rate for ?period=day|week|month.
func (s *Server) handleHabitRate(c *gin.Context) {
	period := habits.Period(c.DefaultQuery("period", string(habits.PeriodDay)))
	rate, err := s.app.Habits.CompletionRate(c.Request.Context(), period)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"period": period, "rate": rate})
}

type checkinRequest struct {
	Date       string  `json:"date"`
	Mood       int     `json:"mood"`
	Energy     int     `json:"energy"`
	SleepHours float64 `json:"sleep_hours"`
	Overwrite  bool    `json:"overwrite"`
}

// handleListCheckins returns recorded checkins.
func (s *Server) handleListCheckins(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"checkins": s.app.Habits.Checkins(c.Request.Context())})
}

// handleAddCheckin records a wellness checkin.
func (s *Server) handleAddCheckin(c *gin.Context) {
	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	checkin, err := s.app.Habits.AddCheckin(c.Request.Context(), models.WellnessCheckin{
		Date:       req.Date,
		Mood:       req.Mood,
		Energy:     req.Energy,
		SleepHours: req.SleepHours,
	}, req.Overwrite)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"checkin": checkin})
}

// handleListPoints returns recorded productivity points, newest first.
func (s *Server) handleListPoints(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"points": s.app.Points.Points(c.Request.Context())})
}

type runRequest struct {
	Date string `json:"date"`
}

// handleRunProductivity aggregates and records one day.
func (s *Server) handleRunProductivity(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}

	day := s.app.Now()
	if req.Date != "" {
		parsed, err := models.ParseDay(req.Date, s.app.Now().Location())
		if err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
		day = parsed
	}

	point, err := s.app.Aggregator.Run(c.Request.Context(), day)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"point": point})
}

// handleCorrelation correlates habits with productivity over ?days=N.
func (s *Server) handleCorrelation(c *gin.Context) {
	days := s.app.Config.Correlation.WindowDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid days %q", raw))
			return
		}
		days = n
	}

	summary, err := s.app.Correlation.Correlate(c.Request.Context(), days)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"correlation": summary})
}
