// Command scheduler runs the cron jobs that publish budget alerts and goal
// reminders to the notification queue.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/amqp"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/config"
	applog "github.com/spanexx/personal-finance-dashboard-sub003/internal/log"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	notifications := services.NewNotificationService(repo, queue)
	sched := services.NewScheduler(notifications)
	if err := sched.Register(cfg.BudgetAlertCron, cfg.GoalReminderCron); err != nil {
		logger.Error("Failed to register cron jobs", "error", err)
		os.Exit(1)
	}

	sched.Start()
	logger.Info("Scheduler started",
		"budget_alert_cron", cfg.BudgetAlertCron,
		"goal_reminder_cron", cfg.GoalReminderCron)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	sched.Stop()
	logger.Info("Scheduler stopped gracefully")
}
