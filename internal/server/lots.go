package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	consumptiondomain "github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetLot(c *gin.Context) {
	lotID := strings.TrimSpace(c.Param("id"))
	if lotID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	lot, err := s.lotSvc.GetByID(c.Request.Context(), lotID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lot": lot})
}

type adjustLotRequest struct {
	DeltaMinutes int64  `json:"delta_minutes"`
	ActorUserID  string `json:"actor_user_id"`
}

func (s *Server) AdjustLot(c *gin.Context) {
	lotID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || lotID == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req adjustLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lot, err := s.lotSvc.AdjustLot(c.Request.Context(), lotdomain.AdjustRequest{
		LotID:        lotID,
		DeltaMinutes: req.DeltaMinutes,
		Actor:        actorFrom(req.ActorUserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lot": lot})
}

type adjustmentRequest struct {
	OrgID        string     `json:"org_id"`
	ProviderID   string     `json:"provider_id"`
	DeltaMinutes int64      `json:"delta_minutes"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ActorUserID  string     `json:"actor_user_id"`
}

// CreateAdjustment is the organization-scoped correction path: a
// positive delta mints an order-less adjustment lot, a negative delta
// draws down lots FIFO like a spend.
func (s *Server) CreateAdjustment(c *gin.Context) {
	var req adjustmentRequest
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
	actor := actorFrom(req.ActorUserID)

	if req.DeltaMinutes > 0 {
		if req.ExpiresAt == nil {
			AbortWithError(c, newValidationError("expires_at", "required", "expires_at is required for credit grants"))
			return
		}
		lot, err := s.lotSvc.GrantAdjustmentLot(c.Request.Context(), lotdomain.MintRequest{
			OrgID:      orgID,
			ProviderID: providerID,
			Minutes:    req.DeltaMinutes,
			ExpiresAt:  *req.ExpiresAt,
			Actor:      actor,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lot": lot})
		return
	}

	result, err := s.consumptionSvc.ApplyOrganizationDebit(c.Request.Context(), consumptiondomain.ConsumeRequest{
		OrgID:      orgID,
		ProviderID: providerID,
		Minutes:    -req.DeltaMinutes,
		Actor:      actor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debit": result})
}

func actorFrom(raw string) ledgerdomain.Actor {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return ledgerdomain.SystemActor()
	}
	return ledgerdomain.UserActor(id)
}
