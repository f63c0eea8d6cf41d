package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingconfigdomain "github.com/laiahq/platform/internal/billingconfig/domain"
	"github.com/laiahq/platform/internal/clock"
	"github.com/laiahq/platform/internal/config"
	"github.com/laiahq/platform/internal/docstore"
	"github.com/laiahq/platform/internal/invoice/domain"
	invoiceformat "github.com/laiahq/platform/internal/invoice/format"
	"github.com/laiahq/platform/internal/observability/metrics"
	"github.com/laiahq/platform/internal/providers/pdf"
	pkgdb "github.com/laiahq/platform/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberAllocRetries bounds the unique-constraint retry loop for concurrent
// invoice number allocation.
const numberAllocRetries = 3

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ProfileSvc billingconfigdomain.Service
	PDF        pdf.Provider
	Docs       docstore.Store
	BillingCfg *config.BillingPolicyHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	profileSvc billingconfigdomain.Service
	pdf        pdf.Provider
	docs       docstore.Store
	billingCfg *config.BillingPolicyHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		profileSvc: p.ProfileSvc,
		pdf:        p.PDF,
		docs:       p.Docs,
		billingCfg: p.BillingCfg,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if req.OrgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidItems
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 || item.UnitAmountCents < 0 {
			return nil, domain.ErrInvalidItems
		}
	}

	status := req.Status
	if status == "" {
		status = domain.InvoiceStatusPending
	}

	issuedAt := req.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = s.clock.Now()
	}
	issuedAt = issuedAt.UTC()

	profile := s.profileSvc.Resolve(ctx, req.OrgID)
	policy := s.billingCfg.Get()

	subtotal, vat := totals(req.Items, policy.VATRatePercent)
	if subtotal <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	dueAt := issuedAt.AddDate(0, 0, profile.PaymentTermDays)
	var paidAt *time.Time
	if status == domain.InvoiceStatusPaid {
		paidAt = &issuedAt
	}

	invoice, err := s.insertWithNumber(ctx, req, profile.BillingProfile, policy, status, issuedAt, dueAt, paidAt, subtotal, vat)
	if err != nil {
		return nil, err
	}
	metrics.Billing().IncInvoiceIssued()

	// Document generation is best-effort: the ledger row is the source of
	// truth and a rendering outage must not fail onboarding or billing.
	if path, renderErr := s.renderDocument(ctx, invoice, req, profile.BillingProfile, policy); renderErr != nil {
		s.log.Error("invoice document rendering failed",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(renderErr),
		)
	} else {
		if err := s.repo.SetDocumentPath(ctx, s.db, invoice.ID, path); err != nil {
			s.log.Error("recording invoice document path failed",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Error(err),
			)
		} else {
			invoice.DocumentPath = &path
		}
	}

	return invoice, nil
}

// insertWithNumber allocates the next sequence for the profile's prefix and
// current calendar year and inserts the invoice. The unique index on
// invoice_number serializes concurrent allocations: a loser recounts and
// retries with the next value.
func (s *Service) insertWithNumber(
	ctx context.Context,
	req domain.CreateInvoiceRequest,
	profile billingconfigdomain.BillingProfile,
	policy config.BillingPolicy,
	status domain.InvoiceStatus,
	issuedAt, dueAt time.Time,
	paidAt *time.Time,
	subtotal, vat int64,
) (*domain.Invoice, error) {
	year := issuedAt.Year()

	for attempt := 0; attempt < numberAllocRetries; attempt++ {
		var invoice *domain.Invoice
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			count, err := s.repo.CountForYear(ctx, tx, profile.InvoicePrefix, year)
			if err != nil {
				return err
			}

			number, err := invoiceformat.InvoiceNumber(profile.InvoicePrefix, year, count+1)
			if err != nil {
				return err
			}

			now := s.clock.Now()
			invoice = &domain.Invoice{
				ID:            s.genID.Generate(),
				OrgID:         req.OrgID,
				InvoiceNumber: number,
				Status:        status,
				SubtotalCents: subtotal,
				VATCents:      vat,
				AmountCents:   subtotal + vat,
				IssuedAt:      issuedAt,
				DueAt:         dueAt,
				PaidAt:        paidAt,
				ChargeRef:     req.ChargeRef,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			for _, item := range req.Items {
				invoice.Items = append(invoice.Items, domain.InvoiceItem{
					ID:              s.genID.Generate(),
					OrgID:           req.OrgID,
					InvoiceID:       invoice.ID,
					Description:     strings.TrimSpace(item.Description),
					Quantity:        item.Quantity,
					UnitAmountCents: item.UnitAmountCents,
					VATRatePercent:  policy.VATRatePercent,
					AmountCents:     item.Quantity * item.UnitAmountCents,
					CreatedAt:       now,
				})
			}
			return s.repo.Insert(ctx, tx, invoice)
		})
		if err == nil {
			return invoice, nil
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		s.log.Warn("invoice number collision, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("year", year),
		)
	}
	return nil, domain.ErrNumberExhausted
}

func (s *Service) renderDocument(
	ctx context.Context,
	invoice *domain.Invoice,
	req domain.CreateInvoiceRequest,
	profile billingconfigdomain.BillingProfile,
	policy config.BillingPolicy,
) (string, error) {
	data := pdf.InvoiceData{
		IssuerName:    profile.LegalName,
		IssuerAddress: issuerAddress(profile),
		IssuerTaxID:   profile.TaxID,
		BillToName:    req.BillToName,
		BillToAddress: req.BillToAddress,
		BillToEmail:   req.BillToEmail,
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     invoice.IssuedAt.Format("02/01/2006"),
		DueDate:       invoice.DueAt.Format("02/01/2006"),
		Subtotal:      invoiceformat.Euros(invoice.SubtotalCents),
		VATLabel:      vatLabel(policy.VATRatePercent),
		VAT:           invoiceformat.Euros(invoice.VATCents),
		Total:         invoiceformat.Euros(invoice.AmountCents),
		LegalFooter:   profile.LegalFooter,
	}
	for _, item := range invoice.Items {
		data.Items = append(data.Items, pdf.InvoiceLine{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   invoiceformat.Euros(item.UnitAmountCents),
			VATRate:     vatLabel(item.VATRatePercent),
			LineTotal:   invoiceformat.Euros(item.AmountCents),
		})
	}

	doc, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return "", err
	}
	return s.docs.SaveInvoice(ctx, invoice.InvoiceNumber, doc)
}

func (s *Service) GetByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Invoice, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	invoice, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) ListByOrg(ctx context.Context, orgID snowflake.ID) ([]domain.Invoice, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.ListByOrg(ctx, s.db, orgID)
}

func (s *Service) MarkRefunded(ctx context.Context, orgID, id snowflake.ID) error {
	invoice, err := s.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	changed, err := s.repo.UpdateStatus(ctx, s.db, invoice.ID, domain.InvoiceStatusPaid, domain.InvoiceStatusRefunded)
	if err != nil {
		return err
	}
	if !changed {
		return domain.ErrNotRefundable
	}
	return nil
}

// totals computes the invoice money amounts. VAT is applied to the summed
// subtotal and rounded once, not per line, so line rounding can never drift
// the invoice total.
func totals(items []domain.CreateInvoiceItem, vatRatePercent float64) (subtotal int64, vat int64) {
	for _, item := range items {
		subtotal += item.Quantity * item.UnitAmountCents
	}
	vat = int64(math.Round(float64(subtotal) * vatRatePercent / 100))
	return subtotal, vat
}

func issuerAddress(profile billingconfigdomain.BillingProfile) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{profile.AddressLine1, profile.AddressLine2, strings.TrimSpace(profile.PostalCode + " " + profile.City), profile.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, "\n")
}

func vatLabel(ratePercent float64) string {
	rate := strconv.FormatFloat(ratePercent, 'f', -1, 64)
	return "TVA " + strings.Replace(rate, ".", ",", 1) + "%"
}
