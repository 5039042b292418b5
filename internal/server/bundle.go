package server

import (
	"net/http"
	"strings"

	"github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateBundle(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bundle, err := s.bundleSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bundle": bundle})
}

func (s *Server) GetBundle(c *gin.Context) {
	bundleID := strings.TrimSpace(c.Param("id"))
	if bundleID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	bundle, err := s.bundleSvc.GetByID(c.Request.Context(), bundleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bundle": bundle})
}

func (s *Server) ReplaceBundle(c *gin.Context) {
	bundleID := strings.TrimSpace(c.Param("id"))
	if bundleID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bundle, err := s.bundleSvc.Replace(c.Request.Context(), bundleID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bundle": bundle})
}

func (s *Server) DeactivateBundle(c *gin.Context) {
	bundleID := strings.TrimSpace(c.Param("id"))
	if bundleID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.bundleSvc.Deactivate(c.Request.Context(), bundleID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}
