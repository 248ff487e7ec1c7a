package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"museumbooking/internal/config"
	"museumbooking/internal/database"
	"museumbooking/internal/pkg/logger"
	"museumbooking/internal/repository"
	"museumbooking/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Init(cfg.App.LogLevel, cfg.App.LogFormat)
	if cfg.App.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logrus.WithError(err).Fatal("auto-migrate failed")
	}

	opts, err := server.OptionsFromConfig(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("invalid facility configuration")
	}
	opts.DB = db
	srv := server.New(opts)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: srv.Engine,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithField("addr", cfg.HTTP.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logrus.Info("shutting down")
		srv.Hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("server stopped with error")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logrus.Info("server stopped")
}
