package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/amqp"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

const (
	// notifyConcurrency bounds the per-user workers of one scheduler run.
	notifyConcurrency = 4

	// goalReminderWindow is how far ahead of the target date a goal starts
	// getting reminders.
	goalReminderWindow = 7 * 24 * time.Hour

	// goalAlmostDonePct triggers a reminder regardless of the target date.
	goalAlmostDonePct = 90.0
)

// Publisher sends a notification towards the delivery worker.
type Publisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

// RunStats tallies one scheduler run. Per-user failures are counted, logged,
// and never abort the run.
type RunStats struct {
	Users    int
	Notified int
	Failed   int
}

// NotificationService produces budget alerts and goal reminders for every
// user and hands them to the publisher.
type NotificationService struct {
	storage   *storage.Repository
	publisher Publisher
}

func NewNotificationService(storage *storage.Repository, publisher Publisher) *NotificationService {
	return &NotificationService{storage: storage, publisher: publisher}
}

// CheckBudgetAlerts evaluates every user's budgets against spend in the
// current period and publishes an alert for each budget at or past its
// threshold.
func (s *NotificationService) CheckBudgetAlerts(ctx context.Context, now time.Time) (RunStats, error) {
	return s.fanOut(ctx, "budget alerts", func(ctx context.Context, userID string) (int, error) {
		return s.alertUserBudgets(ctx, userID, now)
	})
}

// SendGoalReminders publishes a reminder for every active goal that is close
// to its target date or nearly funded.
func (s *NotificationService) SendGoalReminders(ctx context.Context, now time.Time) (RunStats, error) {
	return s.fanOut(ctx, "goal reminders", func(ctx context.Context, userID string) (int, error) {
		return s.remindUserGoals(ctx, userID, now)
	})
}

// fanOut runs the per-user job across all users with bounded concurrency.
// Job errors are tallied, not propagated, so one user's failure never stops
// the others.
func (s *NotificationService) fanOut(ctx context.Context, jobName string, job func(ctx context.Context, userID string) (int, error)) (RunStats, error) {
	userIDs, err := s.storage.ListUserIDs(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list users: %w", err)
	}

	var notified, failed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			n, err := job(ctx, userID)
			if err != nil {
				failed.Add(1)
				slog.ErrorContext(ctx, "Scheduler job failed for user",
					"job", jobName,
					"user_id", userID,
					"error", err)
				return nil
			}
			notified.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunStats{}, err
	}

	stats := RunStats{
		Users:    len(userIDs),
		Notified: int(notified.Load()),
		Failed:   int(failed.Load()),
	}
	slog.InfoContext(ctx, "Scheduler job finished",
		"job", jobName,
		"users", stats.Users,
		"notified", stats.Notified,
		"failed", stats.Failed)
	return stats, nil
}

func (s *NotificationService) alertUserBudgets(ctx context.Context, userID string, now time.Time) (int, error) {
	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list budgets: %w", err)
	}

	sent := 0
	for _, b := range budgets {
		from, to := periodWindow(string(b.Period), now)
		spent, err := s.storage.SumForBudget(ctx, userID, b.CategoryID, from, to)
		if err != nil {
			return sent, fmt.Errorf("sum for budget %s: %w", b.ID, err)
		}

		percent := core.Money{Cents: spent}.PercentOf(b.Amount)
		threshold := float64(b.AlertThreshold)
		if threshold <= 0 {
			threshold = core.DefaultAlertThreshold
		}
		if percent < threshold {
			continue
		}

		title := "Budget alert"
		body := fmt.Sprintf("You have used %.2f%% of your %s budget (%s of %s)",
			percent, b.Period, core.Money{Cents: spent}.String(), b.Amount.String())
		msg := amqp.NewBudgetAlert(userID, b.ID, title, body, percent)
		if err := s.publisher.PublishNotification(ctx, msg); err != nil {
			return sent, fmt.Errorf("publish budget alert: %w", err)
		}
		sent++
	}
	return sent, nil
}

func (s *NotificationService) remindUserGoals(ctx context.Context, userID string, now time.Time) (int, error) {
	goals, err := s.storage.ListGoals(ctx, userID, core.GoalActive)
	if err != nil {
		return 0, fmt.Errorf("list goals: %w", err)
	}

	sent := 0
	for _, g := range goals {
		progress := g.Progress()
		dueSoon := g.TargetDate.Sub(now) <= goalReminderWindow
		almostDone := progress >= goalAlmostDonePct
		if !dueSoon && !almostDone {
			continue
		}

		title := "Goal reminder"
		var body string
		switch {
		case dueSoon && now.After(g.TargetDate):
			body = fmt.Sprintf("Goal %q passed its target date at %.2f%% funded", g.Name, progress)
		case dueSoon:
			body = fmt.Sprintf("Goal %q is due %s and is %.2f%% funded",
				g.Name, g.TargetDate.Format("2006-01-02"), progress)
		default:
			body = fmt.Sprintf("Goal %q is almost there: %.2f%% funded", g.Name, progress)
		}

		msg := amqp.NewGoalReminder(userID, g.ID, title, body, progress)
		if err := s.publisher.PublishNotification(ctx, msg); err != nil {
			return sent, fmt.Errorf("publish goal reminder: %w", err)
		}
		sent++
	}
	return sent, nil
}
