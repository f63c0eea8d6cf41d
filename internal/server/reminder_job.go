package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunPaymentReminders triggers one escalation run. The external scheduler
// calls this daily; repeated triggers are safe because the run is idempotent.
func (s *Server) RunPaymentReminders(c *gin.Context) {
	summary, err := s.reminderSvc.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": summary.Stats.Errors == 0,
		"stats":   summary.Stats,
		"details": summary.Details,
	})
}
