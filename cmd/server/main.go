// Command server runs the bag verification backend: REST API, bootstrap
// snapshot cache, photo store, and the daily expiry alert sweep.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tmercier/go-bagcheck-backend/internal/config"
	"github.com/tmercier/go-bagcheck-backend/internal/forms"
	httpapi "github.com/tmercier/go-bagcheck-backend/internal/http"
	"github.com/tmercier/go-bagcheck-backend/internal/mailer"
	"github.com/tmercier/go-bagcheck-backend/internal/observability"
	"github.com/tmercier/go-bagcheck-backend/internal/photos"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
	"github.com/tmercier/go-bagcheck-backend/internal/scheduler"
	"github.com/tmercier/go-bagcheck-backend/internal/services"
	"github.com/tmercier/go-bagcheck-backend/internal/snapshot"
	"github.com/tmercier/go-bagcheck-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title           Bagcheck API
// @version         1.0
// @description     Verification and expiry tracking for emergency medical kits.
// @BasePath        /api/v1
// @schemes         http https
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.MustLoad()

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			log.Error().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	// First-boot seeding and one-off data normalization, all idempotent.
	if err := forms.Seed(ctx, db); err != nil {
		return err
	}
	if err := forms.RunCleanupOnce(ctx, db); err != nil {
		return err
	}
	if err := forms.InitializeDisplayOrder(ctx, db); err != nil {
		return err
	}

	store, err := photos.New(cfg.PhotoDir)
	if err != nil {
		return err
	}
	cache := snapshot.NewCache(db, store, cfg.SnapshotTTL)

	var sender mailer.Sender
	if cfg.SMTP.Host != "" {
		smtp, err := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			return err
		}
		sender = smtp
	} else {
		log.Warn().Msg("SMTP_HOST empty, alert mail disabled")
		sender = mailer.LogSender{}
	}

	alertSvc := &services.AlertService{DB: db, Sender: sender}
	deps := httpapi.Deps{
		Snapshot: cache,
		Check:    &services.CheckService{DB: db, Cache: cache},
		Admin:    &services.AdminService{DB: db, Photos: store, Cache: cache},
		Photos:   &services.PhotoService{DB: db, Store: store, Cache: cache},
		Mileage:  &services.MileageService{DB: db, Cache: cache},
		Alerts:   alertSvc,
	}

	sched, err := scheduler.New(alertSvc, cfg.AlertHour)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	httpapi.RegisterRoutes(engine, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_path", cfg.APIBasePath).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
