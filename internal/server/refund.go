package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	refunddomain "github.com/laiahq/platform/internal/refund/domain"
)

type createRefundRequest struct {
	InvoiceID     string `json:"invoiceId"`
	ReservationID string `json:"reservationId"`

	// Amount is in euro cents.
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// CreateRefund executes one refund for the active organization. A processor
// failure still returns the persisted FAILED record inside the error body so
// the caller keeps an audit trail.
func (s *Server) CreateRefund(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	orgID, ok := currentOrgID(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	target, err := parseRefundTarget(req.InvoiceID, req.ReservationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	created, err := s.refundSvc.Create(c.Request.Context(), refunddomain.Actor{UserID: userID}, refunddomain.CreateRequest{
		OrgID:       orgID,
		Target:      target,
		AmountCents: req.Amount,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, refunddomain.ErrProcessorFailure) && created != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  refunddomain.ErrProcessorFailure.Error(),
				"refund": created,
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) ListRefunds(c *gin.Context) {
	orgID, ok := currentOrgID(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.refundSvc.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseRefundTarget(invoiceID, reservationID string) (refunddomain.Target, error) {
	var invID, resID *snowflake.ID

	if raw := strings.TrimSpace(invoiceID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return refunddomain.Target{}, refunddomain.ErrInvalidTarget
		}
		invID = &id
	}
	if raw := strings.TrimSpace(reservationID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return refunddomain.Target{}, refunddomain.ErrInvalidTarget
		}
		resID = &id
	}

	return refunddomain.ParseTarget(invID, resID)
}
