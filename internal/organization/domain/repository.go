package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status) (bool, error)
	AddMember(ctx context.Context, db *gorm.DB, member *Member) error
	MemberRole(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (string, error)
}
