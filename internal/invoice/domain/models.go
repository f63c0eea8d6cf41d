// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "PENDING"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusFailed   InvoiceStatus = "FAILED"
	InvoiceStatusRefunded InvoiceStatus = "REFUNDED"
)

// Invoice represents a subscription invoice. InvoiceNumber is immutable once
// assigned and globally unique.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID  `gorm:"not null;index" json:"org_id"`
	InvoiceNumber string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_number" json:"invoice_number"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'PENDING'" json:"status"`

	// Amounts in euro cents. AmountCents is the VAT-inclusive total.
	SubtotalCents int64 `gorm:"not null" json:"subtotal_cents"`
	VATCents      int64 `gorm:"not null" json:"vat_cents"`
	AmountCents   int64 `gorm:"not null" json:"amount_cents"`

	IssuedAt time.Time `gorm:"not null;index" json:"issued_at"`
	DueAt    time.Time `gorm:"not null;index" json:"due_at"`
	PaidAt   *time.Time `gorm:"" json:"paid_at"`

	// ChargeRef is the payment-processor charge reference, nil until paid.
	ChargeRef *string `gorm:"type:text;column:charge_ref" json:"charge_ref"`

	// DocumentPath is the retrievable path of the rendered PDF.
	DocumentPath *string `gorm:"type:text" json:"document_path"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem represents a line on an invoice.
type InvoiceItem struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"not null;index" json:"org_id"`
	InvoiceID       snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description     string       `gorm:"type:text;not null" json:"description"`
	Quantity        int64        `gorm:"not null" json:"quantity"`
	UnitAmountCents int64        `gorm:"not null" json:"unit_amount_cents"`
	VATRatePercent  float64      `gorm:"not null" json:"vat_rate_percent"`
	AmountCents     int64        `gorm:"not null" json:"amount_cents"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
