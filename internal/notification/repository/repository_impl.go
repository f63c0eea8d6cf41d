package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Scheduled) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) ListDue(ctx context.Context, db *gorm.DB, before time.Time, limit int) ([]domain.Scheduled, error) {
	var items []domain.Scheduled
	stmt := db.WithContext(ctx).
		Where("sent_at IS NULL AND send_at <= ?", before).
		Order("send_at asc, id asc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	err := stmt.Find(&items).Error
	return items, err
}

func (r *repo) MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Scheduled{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
