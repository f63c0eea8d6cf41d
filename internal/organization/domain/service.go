package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER" // Read-only / Limited
)

type Service interface {
	// Onboard creates the organization in TRIAL with its trial-end date,
	// the owner membership, the first (already paid) subscription invoice
	// and the durable welcome follow-up notification.
	Onboard(ctx context.Context, userID snowflake.ID, req OnboardRequest) (*Organization, error)

	GetByID(ctx context.Context, id snowflake.ID) (*Organization, error)

	// Suspend moves the organization to SUSPENDED. It is only ever called
	// from the reminder escalation job's final branch.
	Suspend(ctx context.Context, orgID snowflake.ID) error

	// MemberRole returns the caller's role within the organization, or
	// ErrForbidden when the user is not a member.
	MemberRole(ctx context.Context, orgID, userID snowflake.ID) (string, error)
}

type OnboardRequest struct {
	Name         string
	Plan         Plan
	OwnerName    string
	OwnerEmail   string
	BillingEmail string
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidPlan       = errors.New("invalid_plan")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrNotFound          = errors.New("organization_not_found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)

// CanTransition reports whether the one-directional lifecycle allows moving
// from one status to the next. Reactivation-by-payment is handled outside
// this core and is deliberately not representable here.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusTrial:
		return to == StatusActive || to == StatusSuspended || to == StatusCancelled
	case StatusActive:
		return to == StatusSuspended || to == StatusCancelled
	case StatusSuspended:
		return to == StatusCancelled
	default:
		return false
	}
}
