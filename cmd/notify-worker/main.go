// Command notify-worker drains the notification queue and delivers each
// message. Delivery is a structured log line; swapping in email or push is a
// matter of replacing the handler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/amqp"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/config"
	applog "github.com/spanexx/personal-finance-dashboard-sub003/internal/log"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Notification worker started", "queue", cfg.AMQPQueue)

	err = queue.ConsumeNotifications(ctx, func(msg *amqp.NotificationMessage) error {
		return deliver(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Notification worker stopped gracefully")
}

func deliver(ctx context.Context, msg *amqp.NotificationMessage) error {
	slog.InfoContext(ctx, "Delivering notification",
		"kind", msg.Kind,
		"user_id", msg.UserID,
		"entity_id", msg.EntityID,
		"title", msg.Title,
		"body", msg.Body,
		"percent", msg.Percent)
	return nil
}
