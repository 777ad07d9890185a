package postgres

import (
	"context"
	"time"

	"github.com/dom/account-market/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return wrapErr("create session", r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr("get session", err)
	}
	return &session, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return wrapErr("delete session", r.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error)
}

func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Session{}, "expires_at <= ?", time.Now())
	if result.Error != nil {
		return 0, wrapErr("delete expired sessions", result.Error)
	}
	return result.RowsAffected, nil
}
