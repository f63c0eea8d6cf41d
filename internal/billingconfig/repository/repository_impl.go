package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/billingconfig/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.BillingProfile, error) {
	var profile domain.BillingProfile
	err := db.WithContext(ctx).Where("org_id = ?", orgID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.BillingProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}
