package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/reservation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *repo) MarkRefunded(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("id = ? AND payment_status = ?", id, domain.PaymentPaid).
		Updates(map[string]any{
			"status":         domain.StatusRefunded,
			"payment_status": domain.PaymentRefunded,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
