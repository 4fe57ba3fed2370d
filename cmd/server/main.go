package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/joho/godotenv"

	"resqnowserver/internal/auth"
	"resqnowserver/internal/config"
	"resqnowserver/internal/httpapi"
	"resqnowserver/internal/identity"
	"resqnowserver/internal/notifications"
	"resqnowserver/internal/observability/metrics"
	"resqnowserver/internal/places"
	"resqnowserver/internal/service"
	"resqnowserver/internal/storage"
	"resqnowserver/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)
	metrics.MustRegister()

	ctx := context.Background()

	var (
		identityClient *identity.Client
		fcmSender      *notifications.FCMSender
		imageStore     *storage.ImageStore
		verifier       *auth.TokenVerifier
	)
	if cfg.ProjectID != "" {
		verifier, err = auth.NewTokenVerifier(cfg.ProjectID)
		if err != nil {
			logger.Error("token verifier init failed", "err", err)
			os.Exit(1)
		}
	}
	if cfg.ProjectID != "" && cfg.CredentialsPath != "" {
		identityClient, err = identity.NewClient(ctx, cfg.ProjectID, cfg.CredentialsPath)
		if err != nil {
			logger.Error("identity client init failed", "err", err)
			os.Exit(1)
		}
		fcmSender, err = notifications.NewFCMSender(ctx, cfg.ProjectID, cfg.CredentialsPath)
		if err != nil {
			logger.Error("fcm sender init failed", "err", err)
			os.Exit(1)
		}
		imageStore, err = storage.NewImageStore(ctx, cfg.StorageBucket, cfg.CredentialsPath)
		if err != nil {
			logger.Error("image store init failed", "err", err)
			os.Exit(1)
		}
	}

	var placesClient *places.Client
	if cfg.PlacesAPIKey != "" {
		placesClient, err = places.NewClient(cfg.PlacesAPIKey)
		if err != nil {
			logger.Error("places client init failed", "err", err)
			os.Exit(1)
		}
	}

	var (
		accessSvc    *service.AccessService
		lifecycleSvc *service.LifecycleService
		syncSvc      *service.SyncService
		publishSvc   *service.PublishService
		dbPing       func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		users := postgres.NewUsersStore(pgPool)
		blocked := postgres.NewBlockedEmailsStore(pgPool)
		userData := postgres.NewUserDataStore(pgPool)
		notificationsStore := postgres.NewNotificationsStore(pgPool)

		accessSvc = &service.AccessService{Users: users}
		if identityClient != nil {
			lifecycleSvc = &service.LifecycleService{
				Users:    users,
				Blocked:  blocked,
				UserData: userData,
				Identity: identityClient,
				Logger:   logger,
			}
		}
		syncSvc = &service.SyncService{Users: users, Blocked: blocked, Logger: logger}
		if fcmSender != nil {
			publishSvc = &service.PublishService{
				Users:         users,
				Notifications: notificationsStore,
				Fanout: &service.FanoutService{
					Users:         users,
					Notifications: notificationsStore,
					Sender:        fcmSender,
					Logger:        logger,
				},
				Logger: logger,
			}
		}
		dbPing = pgPool.Ping
	}

	opts := httpapi.RouterOpts{
		Logger:    logger,
		IsProd:    cfg.IsProd(),
		DBPing:    dbPing,
		Access:    accessSvc,
		Lifecycle: lifecycleSvc,
		Sync:      syncSvc,
		Publish:   publishSvc,
	}
	// Interface-typed options stay nil unless the concrete client exists;
	// the router downgrades absent surfaces to 501.
	if verifier != nil {
		opts.Verifier = verifier
	}
	if identityClient != nil {
		opts.Identity = identityClient
	}
	if placesClient != nil {
		opts.Places = placesClient
	}
	if imageStore != nil {
		opts.Images = imageStore
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
