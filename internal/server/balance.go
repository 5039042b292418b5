package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/balance/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetBalance(c *gin.Context) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || orgID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	horizonDays := 0
	if raw := strings.TrimSpace(c.Query("horizon_days")); raw != "" {
		horizonDays, err = strconv.Atoi(raw)
		if err != nil || horizonDays <= 0 {
			AbortWithError(c, newValidationError("horizon_days", "invalid_value", "invalid horizon"))
			return
		}
	}

	balances, err := s.balanceSvc.GetBalance(c.Request.Context(), domain.GetBalanceRequest{
		OrgID:       orgID,
		HorizonDays: horizonDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
