package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	activitylogdomain "github.com/laiahq/platform/internal/activitylog/domain"
	"github.com/laiahq/platform/internal/clock"
	invoicedomain "github.com/laiahq/platform/internal/invoice/domain"
	"github.com/laiahq/platform/internal/invoice/format"
	"github.com/laiahq/platform/internal/observability/metrics"
	orgdomain "github.com/laiahq/platform/internal/organization/domain"
	"github.com/laiahq/platform/internal/providers/email"
	"github.com/laiahq/platform/internal/providers/payment"
	"github.com/laiahq/platform/internal/refund/domain"
	reservationdomain "github.com/laiahq/platform/internal/reservation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Repo            domain.Repository
	OrgSvc          orgdomain.Service
	InvoiceSvc      invoicedomain.Service
	ReservationRepo reservationdomain.Repository
	ActivitySvc     activitylogdomain.Service
	Processor       payment.Processor
	Email           email.Provider
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            domain.Repository
	orgSvc          orgdomain.Service
	invoiceSvc      invoicedomain.Service
	reservationRepo reservationdomain.Repository
	activitySvc     activitylogdomain.Service
	processor       payment.Processor
	email           email.Provider
}

func NewService(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("refund.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		orgSvc:          p.OrgSvc,
		invoiceSvc:      p.InvoiceSvc,
		reservationRepo: p.ReservationRepo,
		activitySvc:     p.ActivitySvc,
		processor:       p.Processor,
		email:           p.Email,
	}
}

// resolvedTarget is the paid document a refund executes against, loaded once
// during validation.
type resolvedTarget struct {
	kind        domain.TargetKind
	amountCents int64
	chargeRef   string
	invoice     *invoicedomain.Invoice
	reservation *reservationdomain.Reservation
}

// Create runs the ordered validation chain, then dispatches to the processor
// path selected by the target kind. Validation failures return immediately
// with no side effects; only a processor failure persists state (the FAILED
// record) before erroring.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req domain.CreateRequest) (*domain.CreatedRefund, error) {
	org, err := s.orgSvc.GetByID(ctx, req.OrgID)
	if err != nil {
		return nil, err
	}

	role, err := s.orgSvc.MemberRole(ctx, req.OrgID, actor.UserID)
	if err != nil {
		return nil, domain.ErrForbidden
	}
	if role != orgdomain.RoleOwner && role != orgdomain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if req.Target.ID == 0 || (req.Target.Kind != domain.TargetInvoice && req.Target.Kind != domain.TargetReservation) {
		return nil, domain.ErrInvalidTarget
	}
	if req.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, domain.ErrInvalidReason
	}

	target, err := s.resolveTarget(ctx, req.OrgID, req.Target)
	if err != nil {
		return nil, err
	}
	if target.kind == domain.TargetReservation && org.ConnectedAccountID == "" {
		return nil, domain.ErrMissingConnected
	}
	if req.AmountCents > target.amountCents {
		return nil, domain.ErrAmountExceedsPaid
	}

	now := s.clock.Now()
	refund := &domain.Refund{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		AmountCents: req.AmountCents,
		Reason:      strings.TrimSpace(req.Reason),
		Notes:       strings.TrimSpace(req.Notes),
		Status:      domain.RefundStatusPending,
		RequestedBy: actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	path := metrics.RefundPathDirect
	if target.kind == domain.TargetInvoice {
		refund.InvoiceID = &target.invoice.ID
	} else {
		refund.ReservationID = &target.reservation.ID
		path = metrics.RefundPathConnected
	}

	// Processor first, persistence second: a failed processor call must
	// still leave a durable FAILED record, and the target status is never
	// updated without a successful charge reversal.
	var result *payment.RefundResult
	var procErr error
	if target.kind == domain.TargetInvoice {
		result, procErr = s.processor.RefundCharge(ctx, target.chargeRef, req.AmountCents)
	} else {
		result, procErr = s.processor.RefundConnectedCharge(ctx, org.ConnectedAccountID, target.chargeRef, req.AmountCents)
	}

	if procErr != nil {
		return s.persistFailed(ctx, org, refund, target, path, procErr)
	}

	processedAt := s.clock.Now()
	refund.Status = domain.RefundStatusCompleted
	refund.ExternalRef = &result.ID
	refund.ProcessedAt = &processedAt
	refund.ApprovedBy = &actor.UserID
	refund.UpdatedAt = processedAt
	if err := s.repo.Insert(ctx, s.db, refund); err != nil {
		return nil, err
	}

	if err := s.flipTarget(ctx, target); err != nil {
		// The money already moved; surface the inconsistency loudly but
		// keep the COMPLETED record as the source of truth.
		s.log.Error("refund target status update failed",
			zap.String("refund_id", refund.ID.String()),
			zap.Error(err),
		)
	}

	s.sendConfirmation(ctx, org, refund, target)

	if err := s.activity(ctx, refund, activitylogdomain.ActionRefundCompleted); err != nil {
		s.log.Warn("activity log write failed", zap.Error(err))
	}
	metrics.Billing().IncRefund(path, string(domain.RefundStatusCompleted))

	return s.created(refund, target), nil
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID) (*domain.ListResult, error) {
	refunds, err := s.repo.ListByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	stats := domain.Stats{
		Total:    int64(len(refunds)),
		ByStatus: map[domain.RefundStatus]int64{},
	}
	for i := range refunds {
		stats.ByStatus[refunds[i].Status]++
		stats.TotalAmountCents += refunds[i].AmountCents
		if refunds[i].Status == domain.RefundStatusCompleted {
			stats.CompletedAmountCents += refunds[i].AmountCents
		}
	}

	return &domain.ListResult{Refunds: refunds, Stats: stats}, nil
}

func (s *Service) resolveTarget(ctx context.Context, orgID snowflake.ID, t domain.Target) (*resolvedTarget, error) {
	switch t.Kind {
	case domain.TargetInvoice:
		inv, err := s.invoiceSvc.GetByID(ctx, orgID, t.ID)
		if err != nil {
			if errors.Is(err, invoicedomain.ErrNotFound) {
				return nil, domain.ErrTargetNotFound
			}
			return nil, err
		}
		if inv.Status != invoicedomain.InvoiceStatusPaid {
			return nil, domain.ErrTargetNotPaid
		}
		if inv.ChargeRef == nil || *inv.ChargeRef == "" {
			return nil, domain.ErrMissingChargeRef
		}
		return &resolvedTarget{
			kind:        domain.TargetInvoice,
			amountCents: inv.AmountCents,
			chargeRef:   *inv.ChargeRef,
			invoice:     inv,
		}, nil

	case domain.TargetReservation:
		res, err := s.reservationRepo.FindByID(ctx, s.db, orgID, t.ID)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, domain.ErrTargetNotFound
		}
		if res.PaymentStatus != reservationdomain.PaymentPaid {
			return nil, domain.ErrTargetNotPaid
		}
		if res.ChargeRef == nil || *res.ChargeRef == "" {
			return nil, domain.ErrMissingChargeRef
		}
		return &resolvedTarget{
			kind:        domain.TargetReservation,
			amountCents: res.AmountCents,
			chargeRef:   *res.ChargeRef,
			reservation: res,
		}, nil

	default:
		return nil, domain.ErrInvalidTarget
	}
}

// persistFailed records the attempt after a processor error. The target is
// left untouched.
func (s *Service) persistFailed(ctx context.Context, org *orgdomain.Organization, refund *domain.Refund, target *resolvedTarget, path string, procErr error) (*domain.CreatedRefund, error) {
	now := s.clock.Now()
	refund.Status = domain.RefundStatusFailed
	refund.ExternalRef = nil
	refund.ProcessedAt = &now
	refund.UpdatedAt = now
	if refund.Notes != "" {
		refund.Notes += "\n"
	}
	refund.Notes += "processor error: " + procErr.Error()

	if err := s.repo.Insert(ctx, s.db, refund); err != nil {
		s.log.Error("failed refund record not persisted",
			zap.String("org_id", org.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.activity(ctx, refund, activitylogdomain.ActionRefundFailed); err != nil {
		s.log.Warn("activity log write failed", zap.Error(err))
	}
	metrics.Billing().IncRefund(path, string(domain.RefundStatusFailed))

	return s.created(refund, target), fmt.Errorf("%w: %v", domain.ErrProcessorFailure, procErr)
}

func (s *Service) flipTarget(ctx context.Context, target *resolvedTarget) error {
	if target.kind == domain.TargetInvoice {
		return s.invoiceSvc.MarkRefunded(ctx, target.invoice.OrgID, target.invoice.ID)
	}
	changed, err := s.reservationRepo.MarkRefunded(ctx, s.db, target.reservation.ID)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("reservation %s no longer refundable", target.reservation.ID)
	}
	return nil
}

// sendConfirmation notifies the organization owner for invoice refunds or
// the end customer for reservation refunds. Failures are logged and
// swallowed.
func (s *Service) sendConfirmation(ctx context.Context, org *orgdomain.Organization, refund *domain.Refund, target *resolvedTarget) {
	data := map[string]any{
		"amount": format.Euros(refund.AmountCents),
		"reason": refund.Reason,
	}
	var to string
	if target.kind == domain.TargetInvoice {
		to = org.BillingEmail
		if to == "" {
			to = org.OwnerEmail
		}
		data["recipient_name"] = org.OwnerName
		data["invoice_number"] = target.invoice.InvoiceNumber
	} else {
		to = target.reservation.CustomerEmail
		data["recipient_name"] = target.reservation.CustomerName
		data["reservation_date"] = target.reservation.StartsAt.Format("02/01/2006 à 15h04")
	}

	if err := s.email.SendTemplate(ctx, []string{to}, "refund_confirmation", data); err != nil {
		s.log.Warn("refund confirmation failed",
			zap.String("refund_id", refund.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) activity(ctx context.Context, refund *domain.Refund, action string) error {
	meta := map[string]any{
		"amount_cents": refund.AmountCents,
		"reason":       refund.Reason,
	}
	if refund.ExternalRef != nil {
		meta["external_ref"] = *refund.ExternalRef
	}
	return s.activitySvc.Record(ctx, refund.OrgID, activitylogdomain.EntityRefund, refund.ID.String(), action, meta)
}

func (s *Service) created(refund *domain.Refund, target *resolvedTarget) *domain.CreatedRefund {
	out := &domain.CreatedRefund{Refund: refund}
	if target.kind == domain.TargetInvoice {
		out.Invoice = target.invoice
	} else {
		out.Reservation = target.reservation
	}
	return out
}
