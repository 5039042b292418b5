package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/craftwork-labs/minutemarket/internal/provider/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateProvider(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	provider, err := s.providerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider": provider})
}

func (s *Server) GetProvider(c *gin.Context) {
	providerID := strings.TrimSpace(c.Param("id"))
	if providerID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	provider, err := s.providerSvc.GetByID(c.Request.Context(), providerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider": provider})
}

func (s *Server) ListProviders(c *gin.Context) {
	providers, err := s.providerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

func (s *Server) ListProviderBundles(c *gin.Context) {
	providerID := strings.TrimSpace(c.Param("id"))
	if providerID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	bundles, err := s.bundleSvc.ListByProvider(c.Request.Context(), providerID, activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bundles": bundles})
}
