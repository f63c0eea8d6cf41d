package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	CountForYear(ctx context.Context, db *gorm.DB, prefix string, year int) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]Invoice, error)

	// ListOverdue returns invoices in the given statuses whose due date has
	// passed, ordered by issue date.
	ListOverdue(ctx context.Context, db *gorm.DB, statuses []InvoiceStatus, before time.Time) ([]Invoice, error)

	// UpdateStatus applies a guarded status transition; reports whether a
	// row actually changed.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to InvoiceStatus) (bool, error)

	SetDocumentPath(ctx context.Context, db *gorm.DB, id snowflake.ID, path string) error
}
