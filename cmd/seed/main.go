package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"museumbooking/internal/config"
	"museumbooking/internal/database"
	"museumbooking/internal/domain"
	"museumbooking/internal/modules/auth"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// seed creates the administrator account, or resets its password when it already exists.
func main() {
	email := flag.String("email", envOr("ADMIN_EMAIL", "admin@example.com"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (or ADMIN_PASSWORD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat)

	if len(*password) < 8 {
		logrus.Fatal("admin password must be at least 8 characters (use -password or ADMIN_PASSWORD)")
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("db connect failed")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("auto-migrate failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logrus.WithError(err).Fatal("hash password failed")
	}

	users := repository.NewStore(db).Users
	log := logrus.WithField("email", repository.NormalizeEmail(*email))

	existing, err := users.GetByEmail(ctx, *email)
	switch {
	case err == nil:
		if err := users.UpdatePassword(ctx, existing.ID, hash); err != nil {
			log.WithError(err).Fatal("update admin password failed")
		}
		if !existing.IsAdmin {
			if err := users.SetAdmin(ctx, existing.ID, true); err != nil {
				log.WithError(err).Fatal("promote admin failed")
			}
		}
		log.Info("admin password updated")
	case errors.Is(err, domain.ErrNotFound):
		admin := &domain.User{
			Name:         "Admin",
			Surname:      "User",
			Email:        *email,
			Phone:        "0000000000",
			PasswordHash: hash,
			IsAdmin:      true,
		}
		if err := users.Create(ctx, admin); err != nil {
			log.WithError(err).Fatal("create admin failed")
		}
		log.WithField("user_id", admin.ID).Info("admin user created")
	default:
		log.WithError(err).Fatal("lookup admin failed")
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
