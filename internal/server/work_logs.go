package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	"github.com/gin-gonic/gin"
)

type createWorkLogRequest struct {
	OrgID        string    `json:"org_id"`
	ProviderID   string    `json:"provider_id"`
	MinutesSpent int64     `json:"minutes_spent"`
	Category     string    `json:"category"`
	PerformedAt  time.Time `json:"performed_at"`
	PerformedBy  string    `json:"performed_by"`
	IsBillable   bool      `json:"is_billable"`
}

func (s *Server) CreateWorkLog(c *gin.Context) {
	var req createWorkLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(req.OrgID))
	if err != nil || orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "invalid_id", "invalid id"))
		return
	}
	providerID, err := snowflake.ParseString(strings.TrimSpace(req.ProviderID))
	if err != nil || providerID == 0 {
		AbortWithError(c, newValidationError("provider_id", "invalid_id", "invalid id"))
		return
	}
	performedBy, err := snowflake.ParseString(strings.TrimSpace(req.PerformedBy))
	if err != nil || performedBy == 0 {
		AbortWithError(c, newValidationError("performed_by", "invalid_id", "invalid id"))
		return
	}

	result, err := s.consumptionSvc.LogWork(c.Request.Context(), domain.LogWorkRequest{
		OrgID:       orgID,
		ProviderID:  providerID,
		Minutes:     req.MinutesSpent,
		Category:    req.Category,
		PerformedAt: req.PerformedAt,
		PerformedBy: performedBy,
		IsBillable:  req.IsBillable,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_log":    result.WorkLog,
		"allocations": result.Allocations,
	})
}

type reverseWorkLogRequest struct {
	ActorUserID string `json:"actor_user_id"`
}

func (s *Server) ReverseWorkLog(c *gin.Context) {
	workLogID := strings.TrimSpace(c.Param("id"))
	if workLogID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req reverseWorkLogRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.consumptionSvc.Reverse(c.Request.Context(), workLogID, actorFrom(req.ActorUserID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reversal": result})
}
