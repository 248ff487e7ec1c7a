package main

import (
	"context"
	"flag"
	"time"

	"museumbooking/internal/config"
	"museumbooking/internal/database"
	"museumbooking/internal/modules/auth"
	"museumbooking/internal/pkg/clock"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

func main() {
	retention := flag.Duration("revoked-retention", 30*24*time.Hour, "keep revoked refresh tokens this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat)

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("db connect failed")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("auto-migrate failed")
	}

	clk := clock.Real{}
	tokens := auth.NewTokenService(repository.NewStore(db), cfg.Auth.RefreshTokenPepper, cfg.Auth.RefreshTTL, clk)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := tokens.PurgeExpired(ctx, clk.Now().Add(-*retention))
	if err != nil {
		logrus.WithError(err).Fatal("cleanup refresh_tokens failed")
	}
	logrus.WithField("refresh_tokens", n).Info("auth cleanup completed")
}
