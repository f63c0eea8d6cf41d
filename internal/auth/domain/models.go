// Package domain holds the minimal authentication surface the billing API
// needs: resolving a session cookie to a user. Account management and login
// flows live outside this engine.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	DisplayName string       `gorm:"type:text" json:"display_name"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session is a server-side session row looked up by the SHA-256 hash of the
// cookie token. The raw token never touches the database.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex:ux_sessions_token_hash" json:"-"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time   `gorm:"" json:"revoked_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

type Service interface {
	// Authenticate resolves a raw cookie token into its live session.
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
}

type Repository interface {
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
}

var (
	ErrInvalidSession = errors.New("invalid_session")
	ErrSessionExpired = errors.New("session_expired")
)
