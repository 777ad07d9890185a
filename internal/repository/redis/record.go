package redis

import (
	"fmt"
	"time"

	"github.com/dom/account-market/internal/domain"
	"github.com/google/uuid"
)

// record is the stored JSON form of a session. The session id is the key.
type record struct {
	UserID    string `json:"uid"`
	Username  string `json:"usr"`
	ExpiresAt int64  `json:"exp"`
	CreatedAt int64  `json:"iat"`
}

func (r record) toSession(id string) (*domain.Session, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("decode session user id: %w", err)
	}
	return &domain.Session{
		ID:        id,
		UserID:    userID,
		Username:  r.Username,
		ExpiresAt: time.Unix(0, r.ExpiresAt),
		CreatedAt: time.Unix(0, r.CreatedAt),
	}, nil
}
