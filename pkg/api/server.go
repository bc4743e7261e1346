// Package api is the HTTP surface: chat turns, schedule generation,
// calendar sync, and conflict resolution, served with gin.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beq-project/beq/pkg/calendar"
	"github.com/beq-project/beq/pkg/conversation"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/planner"
)

// userHeader carries the verified caller identity. Authentication itself
// happens upstream (gateway/OAuth); this service trusts the header.
const userHeader = "X-User-ID"

// Server wires the HTTP handlers to the domain services.
type Server struct {
	turns    conversation.Processor
	planner  planner.Planner
	calendar calendar.Provider
	sync     *calendar.SyncService
	clock    models.Clock
	logger   *slog.Logger

	horizonDays int

	httpServer *http.Server
}

// NewServer creates the API server. Calendar and sync may be nil when no
// calendar is connected; the calendar endpoints then answer 502.
func NewServer(turns conversation.Processor, plnr planner.Planner, cal calendar.Provider, syncSvc *calendar.SyncService, clock models.Clock, horizonDays int, logger *slog.Logger) *Server {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	return &Server{
		turns:       turns,
		planner:     plnr,
		calendar:    cal,
		sync:        syncSvc,
		clock:       clock,
		logger:      logger.With("component", "api"),
		horizonDays: horizonDays,
	}
}

// Handler builds the gin engine with all routes. Exposed separately from
// Start so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.healthHandler)

	v1 := engine.Group("/api/v1")
	v1.Use(s.requireUser())
	{
		v1.POST("/chat", s.chatHandler)
		v1.GET("/schedule", s.getScheduleHandler)
		v1.POST("/schedule/generate", s.generateScheduleHandler)
		v1.POST("/calendar/sync", s.syncCalendarHandler)
		v1.POST("/conflicts/resolve", s.resolveConflictsHandler)
	}
	return engine
}

// Start serves HTTP on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requireUser rejects requests without a caller identity. Handlers read the
// verified id from the context, never from request bodies.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("missing "+userHeader+" header"))
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func callerID(c *gin.Context) string {
	return c.GetString("user_id")
}
