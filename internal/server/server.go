package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/pulse/internal/app"
	"github.com/balkashynov/pulse/internal/habits"
	"github.com/balkashynov/pulse/internal/productivity"
	"github.com/balkashynov/pulse/internal/tasks"
	"github.com/balkashynov/pulse/internal/tracking"
)

// Server exposes the stores over a JSON API so several clients can share
// one database.
type Server struct {
	engine *gin.Engine
	app    *app.App
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(a *app.App) *Server {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	srv := &Server{
		engine: router,
		app:    a,
		logger: logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		taskRoutes := api.Group("/tasks")
		{
			taskRoutes.GET("", s.handleListTasks)
			taskRoutes.POST("", s.handleCreateTask)
			taskRoutes.GET(":id", s.handleGetTask)
			taskRoutes.PUT(":id", s.handleUpdateTask)
			taskRoutes.DELETE(":id", s.handleDeleteTask)
			taskRoutes.POST(":id/toggle", s.handleToggleTask)
			taskRoutes.GET(":id/blocked", s.handleBlockedTasks)
			taskRoutes.POST(":id/dependencies", s.handleAddDependency)
			taskRoutes.DELETE(":id/dependencies/:depID", s.handleRemoveDependency)
			taskRoutes.POST(":id/subtasks", s.handleAddSubtask)
			taskRoutes.POST(":id/subtasks/:subID/toggle", s.handleToggleSubtask)
			taskRoutes.GET(":id/time", s.handleTaskTime)
		}

		api.GET("/templates", s.handleListTemplates)
		api.POST("/templates/:ref/use", s.handleUseTemplate)

		timeRoutes := api.Group("/time")
		{
			timeRoutes.GET("/active", s.handleActiveSession)
			timeRoutes.POST("/:taskID/start", s.handleStart)
			timeRoutes.POST("/:taskID/stop", s.handleStop)
			timeRoutes.POST("/:taskID/pause", s.handlePause)
			timeRoutes.POST("/:taskID/resume", s.handleResume)
		}

		habitRoutes := api.Group("/habits")
		{
			habitRoutes.GET("", s.handleListHabits)
			habitRoutes.POST("", s.handleCreateHabit)
			habitRoutes.POST(":id/toggle", s.handleToggleHabit)
			habitRoutes.GET("/rate", s.handleHabitRate)
		}

		api.GET("/checkins", s.handleListCheckins)
		api.POST("/checkins", s.handleAddCheckin)

		api.GET("/productivity", s.handleListPoints)
		api.POST("/productivity/run", s.handleRunProductivity)
		api.GET("/correlation", s.handleCorrelation)
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs each request through slog once it completes.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)))
	}
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, tasks.ErrSubtaskNotFound),
		errors.Is(err, tasks.ErrDependencyNotFound),
		errors.Is(err, tasks.ErrTemplateNotFound),
		errors.Is(err, habits.ErrHabitNotFound):
		return http.StatusNotFound
	case errors.Is(err, tasks.ErrDependencyUnmet),
		errors.Is(err, tasks.ErrDependencyCycle),
		errors.Is(err, tracking.ErrSessionAlreadyActive),
		errors.Is(err, tracking.ErrNoActiveSession),
		errors.Is(err, tracking.ErrNoPausedSession),
		errors.Is(err, productivity.ErrPointExists):
		return http.StatusConflict
	case errors.Is(err, tasks.ErrInvalidDependency),
		errors.Is(err, tasks.ErrEmptyTitle),
		errors.Is(err, tasks.ErrInvalidPriority),
		errors.Is(err, tasks.ErrInvalidStatus),
		errors.Is(err, habits.ErrInvalidCheckin),
		errors.Is(err, habits.ErrInvalidPeriod),
		errors.Is(err, habits.ErrEmptyName):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError logs server-side failures and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}

	body := gin.H{"error": err.Error()}
	var unmet *tasks.DependencyUnmetError
	if errors.As(err, &unmet) {
		body["missing"] = unmet.Missing
	}
	c.JSON(status, body)
}

// respondStoreError picks the status from the error itself.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
