// Command seeduser creates a login account directly in the database. There is
// no registration route, so this is how the first seller gets in.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dom/account-market/internal/config"
	"github.com/dom/account-market/internal/logger"
	"github.com/dom/account-market/internal/repository/postgres"
	"github.com/dom/account-market/internal/service"
	"go.uber.org/zap"
)

func main() {
	username := flag.String("username", "test", "Username to create")
	password := flag.String("password", "", "Password for the new user (required)")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.Parse()

	if *password == "" || *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "usage: seeduser -username NAME -password PASS [-database-url URL]")
		os.Exit(2)
	}

	log, err := logger.New("info", "development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := postgres.NewConnection(*databaseURL, logger.GormLevel("silent"))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	repos := postgres.NewRepositories(db)
	authService := service.NewAuthService(repos.User, repos.Session, &config.Config{}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := authService.CreateUser(ctx, *username, *password)
	if err != nil {
		log.Fatal("failed to create user", zap.String("username", *username), zap.Error(err))
	}

	fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
}
