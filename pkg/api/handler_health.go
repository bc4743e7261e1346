package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthHandler handles GET /healthz. It reports only this service's own
// wiring; external dependencies are excluded so an upstream outage does not
// get this process restarted.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"calendar_connected": s.calendar != nil,
	})
}
