package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/retaildesk/retaildesk-backend/internal/users"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
	"github.com/retaildesk/retaildesk-backend/pkg/db"
	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
	"github.com/retaildesk/retaildesk-backend/pkg/enums"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/security"
)

// seed-admin provisions the initial admin account. It is idempotent: an
// existing account with the configured email is left untouched.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed-admin"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("RETAILDESK_ADMIN_EMAIL")))
	password := os.Getenv("RETAILDESK_ADMIN_PASSWORD")
	name := os.Getenv("RETAILDESK_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	if email == "" || password == "" {
		logg.Error(context.Background(), "RETAILDESK_ADMIN_EMAIL and RETAILDESK_ADMIN_PASSWORD are required", nil)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	repo := users.NewRepository(dbClient.DB())
	ctx := logg.WithField(context.Background(), "email", email)

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		logg.Error(ctx, "failed to look up admin account", err)
		os.Exit(1)
	}
	if existing != nil {
		logg.Info(ctx, "admin account already exists, nothing to do")
		return
	}

	hash, err := security.HashPassword(password, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash admin password", err)
		os.Exit(1)
	}

	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleAdmin,
	}
	if err := repo.Create(ctx, admin); err != nil {
		logg.Error(ctx, "failed to create admin account", err)
		os.Exit(1)
	}

	ctx = logg.WithField(ctx, "user_id", admin.ID)
	logg.Info(ctx, "admin account created")
}
