package server

import (
	"net/http"

	"github.com/craftwork-labs/minutemarket/internal/payment/domain"
	"github.com/gin-gonic/gin"
)

// PaymentWebhook accepts payment-succeeded facts from the payment
// collaborator. Redeliveries are expected and absorbed.
func (s *Server) PaymentWebhook(c *gin.Context) {
	var conf domain.Confirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.Confirm(c.Request.Context(), conf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": result.Order,
		"lot":   result.Lot,
	})
}
