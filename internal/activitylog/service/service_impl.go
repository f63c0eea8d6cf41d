package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/laiahq/platform/internal/activitylog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("activitylog.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, orgID snowflake.ID, entityType, entityID, action string, metadata map[string]any) error {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return domain.ErrInvalidEntity
	}
	if strings.TrimSpace(action) == "" {
		return domain.ErrInvalidAction
	}

	entry := &domain.Entry{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	return s.repo.Insert(ctx, s.db, entry)
}

func (s *Service) LatestByEntity(ctx context.Context, entityType, entityID string, actions ...string) (*domain.Entry, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" || entityID == "" {
		return nil, domain.ErrInvalidEntity
	}
	return s.repo.FindLatest(ctx, s.db, entityType, entityID, actions)
}
