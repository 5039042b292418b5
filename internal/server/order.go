package server

import (
	"net/http"
	"strings"

	"github.com/craftwork-labs/minutemarket/internal/order/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) CreateCheckout(c *gin.Context) {
	var req domain.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.CreateCheckout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) GetOrder(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	order, err := s.orderSvc.GetByID(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) CancelOrder(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	order, err := s.orderSvc.Cancel(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) RefundOrder(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("id"))
	if orderID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	order, err := s.orderSvc.MarkRefunded(c.Request.Context(), orderID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (s *Server) ListOrgOrders(c *gin.Context) {
	orgID := strings.TrimSpace(c.Param("id"))
	if orgID == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	orders, err := s.orderSvc.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
