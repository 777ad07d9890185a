package service

import (
	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth    *AuthService
	Listing *ListingService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log *zap.Logger) *Services {
	return &Services{
		Auth:    NewAuthService(repos.User, repos.Session, cfg, log),
		Listing: NewListingService(repos.Listing, cfg, log),
	}
}
