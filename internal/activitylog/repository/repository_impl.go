package repository

import (
	"context"
	"errors"

	"github.com/laiahq/platform/internal/activitylog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindLatest(ctx context.Context, db *gorm.DB, entityType, entityID string, actions []string) (*domain.Entry, error) {
	var entry domain.Entry
	stmt := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)
	if len(actions) > 0 {
		stmt = stmt.Where("action IN ?", actions)
	}
	err := stmt.Order("created_at desc, id desc").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
