package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kysclient/IMBA/internal/config"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/mailer"
	"github.com/kysclient/IMBA/internal/rabbitmq"
)

const (
	envLocal = "local"
	envDev   = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadMailSender()
	log := setupLogger(cfg.Env)

	log.Info("starting mail_sender", slog.String("env", cfg.Env))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mail_sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func run(ctx context.Context, cfg *config.MailSenderConfig, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	m := mailer.New(log, cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.From)

	log.Info("consumer started", slog.String("queue", cfg.QueueName))

	return r.StartReading(ctx, func(ctx context.Context, body []byte) error {
		if err := m.Handle(ctx, body); err != nil {
			log.Error("failed to handle message", sl.Err(err))
			return err
		}
		return nil
	})
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
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
