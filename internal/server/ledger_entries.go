package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	"github.com/gin-gonic/gin"
)

// ListLedgerEntries serves the raw ledger for an organization, newest
// first, optionally narrowed to one provider, reason or time window.
func (s *Server) ListLedgerEntries(c *gin.Context) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(c.Query("org_id")))
	if err != nil || orgID == 0 {
		AbortWithError(c, newValidationError("org_id", "invalid_id", "invalid id"))
		return
	}

	filter := domain.ListFilter{
		OrgID:      orgID,
		ReasonCode: domain.ReasonCode(strings.TrimSpace(c.Query("reason"))),
	}
	if raw := strings.TrimSpace(c.Query("provider_id")); raw != "" {
		providerID, err := snowflake.ParseString(raw)
		if err != nil || providerID == 0 {
			AbortWithError(c, newValidationError("provider_id", "invalid_id", "invalid id"))
			return
		}
		filter.ProviderID = &providerID
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_value", "invalid limit"))
			return
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(c.Query("start_at")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("start_at", "invalid_value", "invalid timestamp"))
			return
		}
		filter.StartAt = &at
	}
	if raw := strings.TrimSpace(c.Query("end_at")); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, newValidationError("end_at", "invalid_value", "invalid timestamp"))
			return
		}
		filter.EndAt = &at
	}

	entries, err := s.ledgerSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
