package postgres

import (
	"context"

	"github.com/dom/account-market/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *listingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) List(ctx context.Context) ([]*domain.Listing, error) {
	listings := make([]*domain.Listing, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&listings).Error
	if err != nil {
		return nil, wrapErr("list listings", err)
	}
	return listings, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	if listing.Fields == nil {
		listing.Fields = datatypes.JSONMap{}
	}
	return wrapErr("create listing", r.db.WithContext(ctx).Create(listing).Error)
}

func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr("get listing", err)
	}
	return &listing, nil
}

func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Listing{}, "id = ?", id)
	if result.Error != nil {
		return false, wrapErr("delete listing", result.Error)
	}
	return result.RowsAffected > 0, nil
}
