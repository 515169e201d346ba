package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plank-dev/plank/db"
	"github.com/plank-dev/plank/internal/auth"
	"github.com/plank-dev/plank/internal/config"
	"github.com/plank-dev/plank/internal/events"
	"github.com/plank-dev/plank/internal/handlers"
	"github.com/plank-dev/plank/internal/router"
	"github.com/plank-dev/plank/internal/services"
	"github.com/plank-dev/plank/internal/storage"
	"github.com/plank-dev/plank/internal/types"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := db.ConnectDatabase(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		db.Close(gdb)
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return gdb, nil
}

func migrate() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	gdb, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	logger.Info("database schema is up to date", "driver", cfg.DB.Driver)

	return nil
}

func serve(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.App.GinMode)

	gdb, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := events.NewHub()

	var (
		publisher  events.Publisher = events.Local{Hub: hub}
		subscriber *events.Redis
	)

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}

		subscriber = events.NewRedis(client, cfg.Redis.Channel, hub)
		publisher = subscriber
		logger.Info("fanning out events through redis", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	var avatars storage.AvatarStore

	if cfg.Storage.Enabled() {
		store, err := storage.NewMinioStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		avatars = store
		logger.Info("avatar uploads enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	}

	svc := services.New(gdb, services.Options{
		Events:   publisher,
		Notifier: services.NewNotifier(cfg.Notify.Timeout),
	})

	h := &handlers.Handler{
		Services: svc,
		Issuer:   issuer,
		Hub:      hub,
		Avatars:  avatars,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, sqlDB, 0)
		},
		CookieDomain:   cfg.Auth.CookieDomain,
		AllowedOrigins: types.BuildAllowedOrigins(cfg.App.ClientURL, cfg.App.AllowedOrigins),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if subscriber != nil {
		g.Go(func() error {
			return subscriber.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
