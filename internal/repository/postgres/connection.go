package postgres

import (
	"context"
	"fmt"

	"github.com/dom/account-market/internal/domain"
	"github.com/dom/account-market/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Listing{},
		&domain.User{},
		&domain.Session{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Listing: NewListingRepository(db),
		User:    NewUserRepository(db),
		Session: NewSessionRepository(db),
		Store:   NewHealthChecker(db),
	}
}

type healthChecker struct {
	db *gorm.DB
}

func NewHealthChecker(db *gorm.DB) *healthChecker {
	return &healthChecker{db: db}
}

func (h *healthChecker) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return wrapErr("ping", err)
	}
	return wrapErr("ping", sqlDB.PingContext(ctx))
}
