package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/craftwork-labs/minutemarket/internal/organization/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateOrg(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"org": org})
}

func (s *Server) GetOrg(c *gin.Context) {
	orgID := strings.TrimSpace(c.Param("id"))
	if orgID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}
	if _, err := snowflake.ParseString(orgID); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"org": org})
}

func (s *Server) ListOrgs(c *gin.Context) {
	orgs, err := s.organizationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orgs": orgs})
}
