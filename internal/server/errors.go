package server

import (
	"errors"
	"net/http"

	auditdomain "github.com/craftwork-labs/minutemarket/internal/audit/domain"
	balancedomain "github.com/craftwork-labs/minutemarket/internal/balance/domain"
	bundledomain "github.com/craftwork-labs/minutemarket/internal/bundle/domain"
	consumptiondomain "github.com/craftwork-labs/minutemarket/internal/consumption/domain"
	lotdomain "github.com/craftwork-labs/minutemarket/internal/creditlot/domain"
	ledgerdomain "github.com/craftwork-labs/minutemarket/internal/ledger/domain"
	orderdomain "github.com/craftwork-labs/minutemarket/internal/order/domain"
	orgdomain "github.com/craftwork-labs/minutemarket/internal/organization/domain"
	paymentdomain "github.com/craftwork-labs/minutemarket/internal/payment/domain"
	providerdomain "github.com/craftwork-labs/minutemarket/internal/provider/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isBusinessRuleError(err):
		// InsufficientCredit means the organization must top up; the
		// others are support-facing rule rejections
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "business_rule_violation",
			Message: err.Error(),
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, orgdomain.ErrSlugConflict),
		errors.Is(err, providerdomain.ErrSlugConflict),
		errors.Is(err, lotdomain.ErrDuplicateOrder):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orgdomain.ErrInvalidName),
		errors.Is(err, orgdomain.ErrInvalidID),
		errors.Is(err, providerdomain.ErrInvalidName),
		errors.Is(err, providerdomain.ErrInvalidID),
		errors.Is(err, bundledomain.ErrInvalidProvider),
		errors.Is(err, bundledomain.ErrInvalidName),
		errors.Is(err, bundledomain.ErrInvalidHours),
		errors.Is(err, bundledomain.ErrInvalidBillingType),
		errors.Is(err, bundledomain.ErrInvalidPrice),
		errors.Is(err, bundledomain.ErrInvalidCurrency),
		errors.Is(err, bundledomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidOrganization),
		errors.Is(err, orderdomain.ErrInvalidBundle),
		errors.Is(err, orderdomain.ErrInvalidSession),
		errors.Is(err, orderdomain.ErrInvalidOrder),
		errors.Is(err, lotdomain.ErrInvalidOrganization),
		errors.Is(err, lotdomain.ErrInvalidProvider),
		errors.Is(err, lotdomain.ErrInvalidExpiry),
		errors.Is(err, lotdomain.ErrInvalidQuantity),
		errors.Is(err, lotdomain.ErrInvalidID),
		errors.Is(err, consumptiondomain.ErrInvalidOrganization),
		errors.Is(err, consumptiondomain.ErrInvalidProvider),
		errors.Is(err, consumptiondomain.ErrInvalidQuantity),
		errors.Is(err, consumptiondomain.ErrInvalidCategory),
		errors.Is(err, consumptiondomain.ErrInvalidWorkLog),
		errors.Is(err, balancedomain.ErrInvalidOrganization),
		errors.Is(err, auditdomain.ErrInvalidOrganization),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, ledgerdomain.ErrInvalidDelta),
		errors.Is(err, paymentdomain.ErrInvalidConfirmation):
		return true
	default:
		return false
	}
}

func isBusinessRuleError(err error) bool {
	switch {
	case errors.Is(err, consumptiondomain.ErrInsufficientCredit),
		errors.Is(err, consumptiondomain.ErrAlreadyReversed),
		errors.Is(err, consumptiondomain.ErrNothingToReverse),
		errors.Is(err, lotdomain.ErrInsufficientLotBalance),
		errors.Is(err, lotdomain.ErrLotAlreadyExpired),
		errors.Is(err, bundledomain.ErrInactive),
		errors.Is(err, orderdomain.ErrNotPending),
		errors.Is(err, orderdomain.ErrNotPaid):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, providerdomain.ErrNotFound),
		errors.Is(err, bundledomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, lotdomain.ErrNotFound),
		errors.Is(err, consumptiondomain.ErrWorkLogNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
