package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/frontdesk-api/internal/bootstrap"
	"github.com/jwalitptl/frontdesk-api/internal/config"
	authHandler "github.com/jwalitptl/frontdesk-api/internal/handler/auth"
	"github.com/jwalitptl/frontdesk-api/internal/handler/document"
	"github.com/jwalitptl/frontdesk-api/internal/handler/health"
	"github.com/jwalitptl/frontdesk-api/internal/handler/prometheus"
	receiptHandler "github.com/jwalitptl/frontdesk-api/internal/handler/receipt"
	recordHandler "github.com/jwalitptl/frontdesk-api/internal/handler/record"
	"github.com/jwalitptl/frontdesk-api/internal/middleware"
	"github.com/jwalitptl/frontdesk-api/internal/repository/postgres"
	"github.com/jwalitptl/frontdesk-api/internal/router"
	authService "github.com/jwalitptl/frontdesk-api/internal/service/auth"
	receiptService "github.com/jwalitptl/frontdesk-api/internal/service/receipt"
	recordService "github.com/jwalitptl/frontdesk-api/internal/service/record"
	"github.com/jwalitptl/frontdesk-api/pkg/auth"
	"github.com/jwalitptl/frontdesk-api/pkg/metrics"
	"github.com/jwalitptl/frontdesk-api/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := bootstrap.NewLogger(cfg)
	m := metrics.New("frontdesk")

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		logger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	base := postgres.NewBaseRepository(db, m)
	recordRepo := postgres.NewRecordRepository(base)
	userRepo := postgres.NewUserRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Receipt pipeline
	renderer, err := bootstrap.NewRenderer(cfg)
	if err != nil {
		logger.Fatal(err, "failed to load receipt templates")
	}
	converter, err := bootstrap.NewConverter(cfg)
	if err != nil {
		logger.Fatal(err, "failed to initialise snapshot converter")
	}
	deliveryStack, err := bootstrap.NewDelivery(cfg, outboxRepo, logger, m)
	if err != nil {
		logger.Fatal(err, "failed to initialise delivery")
	}

	// Initialize services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, jwtSvc, security.NewBcryptHasher(0), logger)
	recordSvc := recordService.NewService(recordRepo, logger)
	receiptSvc := receiptService.NewService(recordSvc, renderer, converter, deliveryStack.Dispatcher, logger, m)

	promHandler, err := prometheus.New("frontdesk", m)
	if err != nil {
		logger.Fatal(err, "failed to register metrics")
	}

	mode := gin.ReleaseMode
	if cfg.IsDev() {
		mode = gin.DebugMode
	}
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins

	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		authHandler.NewHandler(authSvc),
		recordHandler.NewHandler(recordSvc),
		receiptHandler.NewHandler(receiptSvc),
		document.NewHandler(deliveryStack.Store),
		health.NewHandler(db),
		promHandler,
		router.RouterConfig{
			Mode:        mode,
			RateLimit:   rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:   cfg.Server.RateLimitBurst,
			Timeout:     time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			MaxBodySize: cfg.Server.MaxBodyBytes,
			CORSConfig:  corsConfig,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server forced to shutdown")
	}

	logger.Info("server exited properly")
}
