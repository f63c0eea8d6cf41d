// Package domain contains persistence models for billing profiles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingProfile holds the per-organization identity printed on invoices.
type BillingProfile struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"not null;uniqueIndex:ux_billing_profiles_org" json:"org_id"`
	LegalName       string       `gorm:"type:text;not null" json:"legal_name"`
	AddressLine1    string       `gorm:"type:text" json:"address_line1"`
	AddressLine2    string       `gorm:"type:text" json:"address_line2"`
	PostalCode      string       `gorm:"type:text" json:"postal_code"`
	City            string       `gorm:"type:text" json:"city"`
	Country         string       `gorm:"type:text" json:"country"`
	TaxID           string       `gorm:"type:text" json:"tax_id"`
	InvoicePrefix   string       `gorm:"type:text;not null" json:"invoice_prefix"`
	LegalFooter     string       `gorm:"type:text" json:"legal_footer"`
	PaymentTermDays int          `gorm:"not null" json:"payment_term_days"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (BillingProfile) TableName() string { return "billing_profiles" }
