package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beq-project/beq/pkg/conflict"
)

// syncCalendarHandler handles POST /api/v1/calendar/sync.
func (s *Server) syncCalendarHandler(c *gin.Context) {
	if s.sync == nil {
		c.JSON(http.StatusBadGateway, errorBody("no calendar provider is configured"))
		return
	}

	var req SyncCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	now := s.clock.Now()
	from, to := now, now.AddDate(0, 0, s.horizonDays)
	if req.Start != nil {
		from = *req.Start
	}
	if req.End != nil {
		to = *req.End
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, errorBody("end must be after start"))
		return
	}

	summary, err := s.sync.Sync(c.Request.Context(), callerID(c), req.CalendarID, from, to, nil, req.AutoResolve)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorBody("calendar sync failed: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// resolveConflictsHandler handles POST /api/v1/conflicts/resolve. Conflicts
// are re-derived from the supplied events; their ids are deterministic, so
// the ids the caller saw from a previous detection still match.
func (s *Server) resolveConflictsHandler(c *gin.Context) {
	var req ResolveConflictsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	report := conflict.Detect(req.Events, nil)
	byID := make(map[string]*conflict.Conflict, len(report.Conflicts))
	for i := range report.Conflicts {
		byID[report.Conflicts[i].ID] = &report.Conflicts[i]
	}

	resolutions := make([]conflict.Resolution, 0, len(req.Resolutions))
	for _, r := range req.Resolutions {
		found, ok := byID[r.ConflictID]
		if !ok {
			c.JSON(http.StatusNotFound, errorBody("conflict "+r.ConflictID+" not found in the supplied events"))
			return
		}
		resolution, err := conflict.Resolve(found, r.Strategy, r.UserDecision)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("resolving "+r.ConflictID+": "+err.Error()))
			return
		}
		resolutions = append(resolutions, *resolution)
	}

	c.JSON(http.StatusOK, gin.H{
		"conflicts":   report.Conflicts,
		"resolutions": resolutions,
	})
}
