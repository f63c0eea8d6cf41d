package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	orgdomain "github.com/laiahq/platform/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name         string `json:"name"`
	Plan         string `json:"plan"`
	OwnerName    string `json:"ownerName"`
	OwnerEmail   string `json:"ownerEmail"`
	BillingEmail string `json:"billingEmail"`
}

// CreateOrganization onboards a new institute for the authenticated user.
func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	org, err := s.organizationSvc.Onboard(c.Request.Context(), userID, orgdomain.OnboardRequest{
		Name:         req.Name,
		Plan:         orgdomain.Plan(req.Plan),
		OwnerName:    req.OwnerName,
		OwnerEmail:   req.OwnerEmail,
		BillingEmail: req.BillingEmail,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}
