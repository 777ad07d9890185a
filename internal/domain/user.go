package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is the server-held proof of a successful login.
type Session struct {
	ID        string    `json:"-" gorm:"primary_key"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	Username  string    `json:"username" gorm:"not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Session) TableName() string { return "user_sessions" }

// Expired reports whether the session is past its fixed lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
