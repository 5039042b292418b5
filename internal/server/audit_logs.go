package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// ListAuditEvents serves the activity feed, newest first, cursor
// paginated.
func (s *Server) ListAuditEvents(c *gin.Context) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(c.Query("org_id")))
	if err != nil || orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "invalid_id", "invalid id"))
		return
	}

	req := domain.ListRequest{
		OrgID:      orgID,
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		Action:     strings.TrimSpace(c.Query("action")),
	}
	req.PageToken = strings.TrimSpace(c.Query("page_token"))
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			AbortWithError(c, newValidationError("page_size", "invalid_value", "invalid page size"))
			return
		}
		req.PageSize = size
	}

	if raw := strings.TrimSpace(c.Query("start_at")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_value", "invalid timestamp"))
			return
		}
		req.StartAt = &at
	}
	if raw := strings.TrimSpace(c.Query("end_at")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_value", "invalid timestamp"))
			return
		}
		req.EndAt = &at
	}

	resp, err := s.auditSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
