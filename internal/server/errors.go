package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/laiahq/platform/internal/auth/domain"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	orgdomain "github.com/laiahq/platform/internal/organization/domain"
	refunddomain "github.com/laiahq/platform/internal/refund/domain"
	reservationdomain "github.com/laiahq/platform/internal/reservation/domain"
	"gorm.io/gorm"
)

type errorResponse struct {
	Error string `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

// ErrorHandlingMiddleware turns the last gin error into the structured JSON
// body, unless the handler already wrote a response.
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

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal server error"

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, "unauthorized"

	case errors.Is(err, ErrForbidden),
		errors.Is(err, orgdomain.ErrForbidden),
		errors.Is(err, refunddomain.ErrForbidden):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orgdomain.ErrInvalidName),
		errors.Is(err, orgdomain.ErrInvalidPlan),
		errors.Is(err, orgdomain.ErrInvalidEmail),
		errors.Is(err, invoicedomain.ErrInvalidItems),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, refunddomain.ErrInvalidTarget),
		errors.Is(err, refunddomain.ErrInvalidAmount),
		errors.Is(err, refunddomain.ErrInvalidReason),
		errors.Is(err, refunddomain.ErrAmountExceedsPaid):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrNotFound),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, reservationdomain.ErrNotFound),
		errors.Is(err, refunddomain.ErrTargetNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "not found"

	case errors.Is(err, orgdomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrNotRefundable),
		errors.Is(err, refunddomain.ErrTargetNotPaid),
		errors.Is(err, refunddomain.ErrMissingChargeRef),
		errors.Is(err, refunddomain.ErrMissingConnected):
		return http.StatusConflict, err.Error()

	case errors.Is(err, refunddomain.ErrProcessorFailure):
		return http.StatusInternalServerError, err.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
