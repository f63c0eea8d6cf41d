package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/invoice/domain"
	invoiceformat "github.com/laiahq/platform/internal/invoice/format"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) CountForYear(ctx context.Context, db *gorm.DB, prefix string, year int) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("invoice_number LIKE ?", invoiceformat.YearPattern(prefix, year)).
		Count(&count).Error
	return count, err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) ListByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("issued_at desc, id desc").
		Find(&invoices).Error
	return invoices, err
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, statuses []domain.InvoiceStatus, before time.Time) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Where("status IN ? AND due_at < ?", statuses, before).
		Order("issued_at asc, id asc").
		Find(&invoices).Error
	return invoices, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.InvoiceStatus) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetDocumentPath(ctx context.Context, db *gorm.DB, id snowflake.ID, path string) error {
	return db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("document_path", path).Error
}
