package pdf

import (
	"bytes"
	"context"
	"io"
)

// InvoiceData is the fully resolved content of one invoice document. Amounts
// are preformatted strings: layout code does no money arithmetic.
type InvoiceData struct {
	// Issuer block, sourced from the billing profile.
	IssuerName    string
	IssuerAddress string
	IssuerTaxID   string

	// Recipient block.
	BillToName    string
	BillToAddress string
	BillToEmail   string

	InvoiceNumber string
	IssueDate     string
	DueDate       string

	Items []InvoiceLine

	Subtotal string
	VATLabel string
	VAT      string
	Total    string

	LegalFooter string
}

// InvoiceLine is one row of the itemized table.
type InvoiceLine struct {
	Description string
	Qty         int64
	UnitPrice   string
	VATRate     string
	LineTotal   string
}

// Provider renders invoice documents to a binary artifact.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error) {
	return bytes.NewReader(nil), nil
}
