package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/laiahq/platform/internal/auth/domain"
	authrepo "github.com/laiahq/platform/internal/auth/repository"
	"github.com/laiahq/platform/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}))

	fakeClock := clock.NewFakeClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	svc := NewService(Params{DB: db, Clock: fakeClock, Repo: authrepo.Provide()})
	return svc, db, fakeClock
}

func seedSession(t *testing.T, db *gorm.DB, rawToken string, expiresAt time.Time) *domain.Session {
	t.Helper()
	sum := sha256.Sum256([]byte(rawToken))
	session := &domain.Session{
		ID:        snowflake.ID(1),
		UserID:    snowflake.ID(42),
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-30 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func TestAuthenticate(t *testing.T) {
	svc, db, fakeClock := newTestService(t)
	seedSession(t, db, "tok_live", fakeClock.Now().Add(time.Hour))

	session, err := svc.Authenticate(context.Background(), "tok_live")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), session.UserID)

	_, err = svc.Authenticate(context.Background(), "tok_wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = svc.Authenticate(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestAuthenticate_ExpiredAndRevoked(t *testing.T) {
	svc, db, fakeClock := newTestService(t)
	seedSession(t, db, "tok_live", fakeClock.Now().Add(time.Hour))

	fakeClock.Advance(2 * time.Hour)
	_, err := svc.Authenticate(context.Background(), "tok_live")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	now := fakeClock.Now()
	require.NoError(t, db.Model(&domain.Session{}).
		Where("id = ?", snowflake.ID(1)).
		Update("revoked_at", &now).Error)
	_, err = svc.Authenticate(context.Background(), "tok_live")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}
