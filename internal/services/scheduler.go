package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the notification jobs on cron expressions. Each tick gets a
// fresh context; a failing run is logged and the schedule keeps going.
type Scheduler struct {
	cron          *cron.Cron
	notifications *NotificationService
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(notifications *NotificationService) *Scheduler {
	logger := cronLogger{logger: slog.Default()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		notifications: notifications,
	}
}

// Register wires the two jobs to their cron expressions (standard five-field
// syntax).
func (s *Scheduler) Register(budgetAlertSpec, goalReminderSpec string) error {
	if _, err := s.cron.AddFunc(budgetAlertSpec, s.runBudgetAlerts); err != nil {
		return fmt.Errorf("schedule budget alerts (%q): %w", budgetAlertSpec, err)
	}
	if _, err := s.cron.AddFunc(goalReminderSpec, s.runGoalReminders); err != nil {
		return fmt.Errorf("schedule goal reminders (%q): %w", goalReminderSpec, err)
	}
	return nil
}

func (s *Scheduler) runBudgetAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.notifications.CheckBudgetAlerts(ctx, time.Now().UTC()); err != nil {
		slog.ErrorContext(ctx, "Budget alert run failed", "error", err)
	}
}

func (s *Scheduler) runGoalReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.notifications.SendGoalReminders(ctx, time.Now().UTC()); err != nil {
		slog.ErrorContext(ctx, "Goal reminder run failed", "error", err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Scheduler stopped")
}
