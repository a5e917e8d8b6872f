package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	var category any
	if b.CategoryID != "" {
		category = b.CategoryID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount_cents, period, start_date, alert_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, category, b.Amount.Cents, b.Period, b.StartDate, b.AlertThreshold,
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	var category sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &category, &b.Amount.Cents, &b.Period, &b.StartDate, &b.AlertThreshold)
	if err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = category.String
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, period, start_date, alert_threshold
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return core.Budget{}, core.NotFoundf("budget %s not found", id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, amount_cents, period, start_date, alert_threshold
		FROM budgets WHERE user_id = ? ORDER BY start_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("budget %s not found", id)
	}
	return nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, target_cents, current_cents, target_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Target.Cents, g.Current.Cents, g.TargetDate, g.Status,
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, userID string, status core.GoalStatus) ([]core.Goal, error) {
	query := `
		SELECT id, user_id, name, target_cents, current_cents, target_date, status
		FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY target_date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.Target.Cents,
			&g.Current.Cents, &g.TargetDate, &g.Status); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

// UpdateGoalProgress adds cents to the goal's current amount and flips the
// status to completed when the target is reached.
func (r *Repository) UpdateGoalProgress(ctx context.Context, userID, id string, deltaCents int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals
		SET current_cents = current_cents + ?,
		    status = CASE WHEN current_cents + ? >= target_cents THEN 'completed' ELSE status END
		WHERE id = ? AND user_id = ?`,
		deltaCents, deltaCents, id, userID)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("goal %s not found", id)
	}
	return nil
}
