// Package server wires repositories, services and handlers into one gin engine.
package server

import (
	"time"

	"museumbooking/internal/config"
	"museumbooking/internal/middleware"
	"museumbooking/internal/modules/admin"
	"museumbooking/internal/modules/auth"
	"museumbooking/internal/modules/booking"
	"museumbooking/internal/modules/realtime"
	"museumbooking/internal/modules/updaterequest"
	"museumbooking/internal/pkg/clock"
	jwtsvc "museumbooking/internal/pkg/jwt"
	"museumbooking/internal/repository"
	"museumbooking/internal/schedule"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Options struct {
	DB                 *gorm.DB
	Policy             *schedule.Policy
	Clock              clock.Clock
	JWTSecret          string
	JWTAccessTTL       time.Duration
	RefreshTTL         time.Duration
	RefreshTokenPepper string
	CORSAllowedOrigins []string
}

// OptionsFromConfig fills everything except DB and Clock.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := cfg.Facility.Policy()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Policy:             policy,
		JWTSecret:          cfg.Auth.JWTSecret,
		JWTAccessTTL:       cfg.Auth.JWTAccessTTL,
		RefreshTTL:         cfg.Auth.RefreshTTL,
		RefreshTokenPepper: cfg.Auth.RefreshTokenPepper,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
	}, nil
}

type Server struct {
	Engine *gin.Engine
	Hub    *realtime.Hub
	Tokens *auth.TokenService
}

func New(opts Options) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	store := repository.NewStore(opts.DB)
	jwt := jwtsvc.New(opts.JWTSecret, opts.JWTAccessTTL)
	hub := realtime.NewHub()

	tokens := auth.NewTokenService(store, opts.RefreshTokenPepper, opts.RefreshTTL, clk)
	authHandler := auth.NewHandler(auth.NewService(store.Users, tokens, jwt, clk))

	bookingService := booking.NewService(store, opts.Policy, clk)
	bookingHandler := booking.NewHandler(bookingService)

	updateRequestService := updaterequest.NewService(store, opts.Policy, bookingService, realtime.NewNotifier(hub), clk)
	updateRequestHandler := updaterequest.NewHandler(updateRequestService)

	realtimeHandler := realtime.NewHandler(hub, opts.CORSAllowedOrigins)
	adminHandler := admin.NewHandler(admin.NewService(store, tokens, clk))

	r := gin.New()
	r.Use(
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwt))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			updateRequestHandler.RegisterRoutes(protected)
			realtimeHandler.RegisterRoutes(protected)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(middleware.AdminOnly())
		{
			adminHandler.RegisterRoutes(adminGroup)
			bookingHandler.RegisterAdminRoutes(adminGroup)
			updateRequestHandler.RegisterAdminRoutes(adminGroup)
		}
	}

	return &Server{Engine: r, Hub: hub, Tokens: tokens}
}
