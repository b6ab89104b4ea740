package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kysclient/IMBA/internal/applications"
	"github.com/kysclient/IMBA/internal/auth"
	"github.com/kysclient/IMBA/internal/community"
	"github.com/kysclient/IMBA/internal/config"
	"github.com/kysclient/IMBA/internal/gallery"
	"github.com/kysclient/IMBA/internal/http_server/router"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/rabbitmq"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage/postgres"
	"github.com/kysclient/IMBA/internal/storage/redis"
	"github.com/kysclient/IMBA/internal/uploads"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting IMBA server", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	var usedTokens auth.UsedTokenMarker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("failed to connect redis", sl.Err(err))
			os.Exit(1)
		}
		defer rdb.Close()
		usedTokens = rdb
	} else {
		log.Warn("redis is not configured, reset links stay valid until they expire")
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	sessions, err := session.New(cfg.Session.Secret, cfg.IsProd(), cfg.Session.TTL, cfg.Session.ResetTTL)
	if err != nil {
		log.Error("failed to init sessions", sl.Err(err))
		os.Exit(1)
	}

	files, uploadsRoot, err := setupUploads(ctx, cfg)
	if err != nil {
		log.Error("failed to init upload storage", sl.Err(err))
		os.Exit(1)
	}

	authService := auth.New(log, storage, storage, sessions, msgBroker, usedTokens, cfg.BaseURL)

	seeded, err := authService.SeedAdmin(ctx, cfg.AdminSeed.Email, cfg.AdminSeed.Phone, cfg.AdminSeed.Password)
	if err != nil {
		log.Error("failed to seed administrator", sl.Err(err))
		os.Exit(1)
	}
	if seeded {
		log.Info("administrator account created", slog.String("email", cfg.AdminSeed.Email))
	}

	r := router.New(router.Deps{
		Log:            log,
		Validate:       validator.New(),
		Sessions:       sessions,
		Accounts:       authService,
		Applications:   applications.New(log, storage),
		Forum:          community.New(log, storage, storage),
		Gallery:        gallery.New(log, storage, files),
		Store:          storage,
		UploadsRoot:    uploadsRoot,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down HTTP server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	} else {
		log.Info("server stopped gracefully")
	}
}

// setupUploads picks the image store. The returned root is non-empty only for the
// local driver, whose files the server itself serves.
func setupUploads(ctx context.Context, cfg *config.Config) (uploads.Store, string, error) {
	if cfg.Uploads.Driver == "s3" {
		s3, err := uploads.NewS3(ctx, uploads.S3Options{
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Bucket:        cfg.S3.Bucket,
			PublicBaseURL: cfg.S3.PublicBaseURL,
			Limit:         cfg.Uploads.MaxBytes,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	}

	local, err := uploads.NewLocal(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	if err != nil {
		return nil, "", err
	}

	return local, local.Root(), nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
