package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

// BudgetService manages budgets and savings goals. Reporting on them lives
// in ReportService; alerting in NotificationService.
type BudgetService struct {
	storage     *storage.Repository
	invalidator ReportInvalidator
}

func NewBudgetService(storage *storage.Repository, invalidator ReportInvalidator) *BudgetService {
	return &BudgetService{storage: storage, invalidator: invalidator}
}

func (s *BudgetService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}
}

// CreateBudget validates and stores a budget. A category budget must point
// at an existing expense category of the same user.
func (s *BudgetService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.AlertThreshold == 0 {
		b.AlertThreshold = core.DefaultAlertThreshold
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, core.Validationf("invalid budget: %v", err)
	}
	if b.CategoryID != "" {
		cat, err := s.storage.GetCategory(ctx, b.UserID, b.CategoryID)
		if err != nil {
			return core.Budget{}, fmt.Errorf("resolve category: %w", err)
		}
		if cat.Type != core.Expense {
			return core.Budget{}, core.Validationf("budgets apply to expense categories, %q is %s", cat.Name, cat.Type)
		}
	}

	b.ID = uuid.NewString()
	if err := s.storage.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	s.invalidate(b.UserID)

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID,
		"user_id", b.UserID,
		"category_id", b.CategoryID,
		"period", b.Period,
		"amount", b.Amount.String())
	return b, nil
}

func (s *BudgetService) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	return s.storage.GetBudget(ctx, userID, id)
}

func (s *BudgetService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.storage.ListBudgets(ctx, userID)
}

func (s *BudgetService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteBudget(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// CreateGoal validates and stores a savings goal, starting it active.
func (s *BudgetService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Status = core.GoalActive
	if err := g.Validate(); err != nil {
		return core.Goal{}, core.Validationf("invalid goal: %v", err)
	}
	g.ID = uuid.NewString()
	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created",
		"id", g.ID,
		"user_id", g.UserID,
		"name", g.Name,
		"target", g.Target.String())
	return g, nil
}

func (s *BudgetService) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID, status)
}

// AddGoalProgress adds a contribution to a goal. The storage layer flips the
// status to completed when the target is reached.
func (s *BudgetService) AddGoalProgress(ctx context.Context, userID, id string, amount core.Money) error {
	if err := amount.Validate(); err != nil {
		return core.Validationf("invalid contribution: %v", err)
	}
	return s.storage.UpdateGoalProgress(ctx, userID, id, amount.Cents)
}
