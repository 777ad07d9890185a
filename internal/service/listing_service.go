package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	EventListingCreated = "listing.created"
	EventListingDeleted = "listing.deleted"
)

// EventPublisher receives listing changes after they are stored.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

type ListingService struct {
	listingRepo  repository.ListingRepository
	deletePolicy string
	publisher    EventPublisher
	log          *zap.Logger
	now          func() time.Time
}

func NewListingService(listingRepo repository.ListingRepository, cfg *config.Config, log *zap.Logger) *ListingService {
	return &ListingService{
		listingRepo:  listingRepo,
		deletePolicy: cfg.ListingDeletePolicy,
		publisher:    noopPublisher{},
		log:          log.With(zap.String("component", "listings")),
		now:          time.Now,
	}
}

// SetPublisher attaches the live feed. Passing nil detaches it.
func (s *ListingService) SetPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.publisher = p
}

func (s *ListingService) List(ctx context.Context) ([]*domain.Listing, error) {
	return s.listingRepo.List(ctx)
}

// Create stores fields as a new listing. The creation time is always the
// server's; actor is nil on unguarded deployments.
func (s *ListingService) Create(ctx context.Context, fields map[string]interface{}, actor *domain.Session) (*domain.Listing, error) {
	if fields == nil {
		return nil, domain.ErrInvalidListing
	}

	listing := &domain.Listing{
		ID:        uuid.New(),
		Fields:    datatypes.JSONMap(domain.SanitizeListingFields(fields)),
		CreatedAt: s.now(),
	}
	if actor != nil {
		ownerID := actor.UserID
		listing.OwnerID = &ownerID
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.log.Info("listing created", zap.String("listing_id", listing.ID.String()))
	s.publisher.Publish(EventListingCreated, listing.Document())
	return listing, nil
}

func (s *ListingService) Delete(ctx context.Context, rawID string, actor *domain.Session) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, rawID)
	}

	if s.deletePolicy == config.DeletePolicyOwner {
		if err := s.checkOwner(ctx, id, actor); err != nil {
			return err
		}
	}

	found, err := s.listingRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrNotFound
	}

	s.log.Info("listing deleted", zap.String("listing_id", id.String()))
	s.publisher.Publish(EventListingDeleted, map[string]string{"id": id.String()})
	return nil
}

// checkOwner allows the delete when the listing has no owner or belongs to
// actor.
func (s *ListingService) checkOwner(ctx context.Context, id uuid.UUID, actor *domain.Session) error {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if listing.OwnerID == nil {
		return nil
	}
	if actor == nil || *listing.OwnerID != actor.UserID {
		return domain.ErrForbidden
	}
	return nil
}
