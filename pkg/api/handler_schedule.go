package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/planner"
)

// getScheduleHandler handles GET /api/v1/schedule: calendar events within
// an optional ?start/?end window (RFC 3339), defaulting to the next horizon.
func (s *Server) getScheduleHandler(c *gin.Context) {
	if s.calendar == nil {
		c.JSON(http.StatusBadGateway, errorBody("no calendar provider is configured"))
		return
	}

	now := s.clock.Now()
	from, to := now, now.AddDate(0, 0, s.horizonDays)
	var err error
	if from, err = queryTime(c, "start", from); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid start: "+err.Error()))
		return
	}
	if to, err = queryTime(c, "end", to); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid end: "+err.Error()))
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, errorBody("end must be after start"))
		return
	}

	events, err := s.calendar.ListEvents(c.Request.Context(), c.Query("calendar_id"), from, to)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorBody("calendar unavailable: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start":  from,
		"end":    to,
		"count":  len(events),
		"events": events,
	})
}

// generateScheduleHandler handles POST /api/v1/schedule/generate.
func (s *Server) generateScheduleHandler(c *gin.Context) {
	var req GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	for _, task := range req.Tasks {
		if err := task.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, errorBody("task "+task.ID+": "+err.Error()))
			return
		}
	}

	prefs := models.DefaultPreferences()
	if req.Preferences != nil {
		prefs = *req.Preferences
	}
	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.horizonDays
	}

	result, err := s.planner.Plan(c.Request.Context(), planner.Request{
		UserID:      callerID(c),
		Tasks:       req.Tasks,
		Events:      req.Events,
		Preferences: prefs,
		Constraints: req.Constraints,
		HorizonDays: horizon,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryTime(c *gin.Context, key string, fallback time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback, err
	}
	return t.UTC(), nil
}
