package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/config"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/chart"
	"github.com/hms/hms/internal/domain/clinical"
	"github.com/hms/hms/internal/domain/dashboard"
	"github.com/hms/hms/internal/domain/diagnostics"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/httpx"
	"github.com/hms/hms/internal/platform/middleware"
)

// services holds one instance of every domain service.
type services struct {
	identity    *identity.Service
	clinical    *clinical.Service
	diagnostics *diagnostics.Service
	billing     *billing.Service
	chart       *chart.Service
	dashboard   *dashboard.Service
}

func newIdentityService(cfg *config.Config, pool *pgxpool.Pool) *identity.Service {
	return identity.NewService(
		identity.NewUserRepo(pool),
		identity.NewPatientRepo(pool),
		auth.NewPasswordHasher(cfg.BcryptCost),
		auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
	)
}

func newServices(cfg *config.Config, pool *pgxpool.Pool, files diagnostics.FileStore, logger zerolog.Logger) *services {
	identitySvc := newIdentityService(cfg, pool)
	clinicalSvc := clinical.NewService(clinical.NewTreatmentRepo(pool), identitySvc)
	diagnosticsSvc := diagnostics.NewService(diagnostics.NewLabReportRepo(pool), identitySvc, files, logger)
	billingSvc := billing.NewService(billing.NewBillRepo(pool), identitySvc)
	return &services{
		identity:    identitySvc,
		clinical:    clinicalSvc,
		diagnostics: diagnosticsSvc,
		billing:     billingSvc,
		chart:       chart.NewService(identitySvc, clinicalSvc, diagnosticsSvc, billingSvc),
		dashboard:   dashboard.NewService(dashboard.NewStatsRepoPG(pool)),
	}
}

// newEcho builds the HTTP server. The returned stop function releases the
// rate limiter.
func newEcho(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, svc *services) (*echo.Echo, func()) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = httpx.JSONSerializer{}
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(middleware.ParseSize(cfg.BodyLimit, 1<<20), cfg.UploadMaxBytes))
	e.Use(middleware.RateLimit(limiter))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, isFileDownload))
	e.Use(auth.Middleware(tokens, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))

	// Health
	e.GET("/health", db.LivenessHandler())
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}

	api := e.Group("/api")
	identity.NewHandler(svc.identity, cfg.IsProduction()).RegisterRoutes(api)
	clinical.NewHandler(svc.clinical).RegisterRoutes(api)
	diagnostics.NewHandler(svc.diagnostics).RegisterRoutes(api)
	billing.NewHandler(svc.billing).RegisterRoutes(api)
	chart.NewHandler(svc.chart).RegisterRoutes(api)
	dashboard.NewHandler(svc.dashboard).RegisterRoutes(api)

	if cfg.StaticDir != "" {
		e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
			Root:  cfg.StaticDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/health")
			},
		}))
	}

	return e, limiter.Stop
}

func isFileDownload(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), "/file")
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg.Env)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Storage
	files, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialise file storage: %w", err)
	}
	logger.Info().Strs("backends", files.Backends()).Msg("file storage ready")

	e, stop := newEcho(cfg, logger, pool, newServices(cfg, pool, files, logger))
	defer stop()

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
