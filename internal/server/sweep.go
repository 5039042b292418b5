package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerSweep runs one expiration sweep on demand. The scheduler runs
// the same operation on a cadence; this endpoint exists for operations
// tooling and returns the aggregate report.
func (s *Server) TriggerSweep(c *gin.Context) {
	report, err := s.sweeperSvc.Sweep(c.Request.Context(), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
