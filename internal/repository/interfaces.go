package repository

import (
	"context"

	"github.com/dom/account-market/internal/domain"
	"github.com/google/uuid"
)

type ListingRepository interface {
	// List returns every listing, newest first.
	List(ctx context.Context) ([]*domain.Listing, error)
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	// Delete reports whether a listing with id existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// Delete is idempotent: deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Pingers is reachable only when every member is, checked in order.
type Pingers []Pinger

func (p Pingers) Ping(ctx context.Context) error {
	for _, pinger := range p {
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

type Repositories struct {
	Listing ListingRepository
	User    UserRepository
	Session SessionRepository
	Store   Pinger
}
