package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service records and queries activity entries. There is deliberately no
// update or delete operation: the log is the idempotency ledger for the
// escalation job and must stay append-only.
type Service interface {
	Record(ctx context.Context, orgID snowflake.ID, entityType, entityID, action string, metadata map[string]any) error
	LatestByEntity(ctx context.Context, entityType, entityID string, actions ...string) (*Entry, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindLatest(ctx context.Context, db *gorm.DB, entityType, entityID string, actions []string) (*Entry, error)
}

var (
	ErrInvalidEntity = errors.New("invalid_entity")
	ErrInvalidAction = errors.New("invalid_action")
)
