package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	UserID     string
	Type       core.TransactionType
	CategoryID string
	From       time.Time
	To         time.Time
	MinCents   int64
	MaxCents   int64
	Search     string // matched against description and merchant
	Page       int    // 1-based
	Limit      int
}

// CategorySum is a per-category aggregate over a period.
type CategorySum struct {
	CategoryID string
	Name       string
	Cents      int64
	Count      int64
}

// MonthSum is a per-calendar-month aggregate.
type MonthSum struct {
	Year  int
	Month int
	Cents int64
}

const transactionColumns = "id, user_id, type, amount_cents, date, description, merchant, category_id, tags, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var category sql.NullString
	var tags string
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount.Cents, &t.Date,
		&t.Description, &t.Merchant, &category, &tags, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = category.String
	if tags != "" {
		t.Tags = strings.Split(tags, ",")
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	var category any
	if t.CategoryID != "" {
		category = t.CategoryID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, date, description, merchant, category_id, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Type, t.Amount.Cents, t.Date, t.Description, t.Merchant,
		category, strings.Join(t.Tags, ","), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ? AND deleted = 0",
		id, userID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.NotFoundf("transaction %s not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	var category any
	if t.CategoryID != "" {
		category = t.CategoryID
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount_cents = ?, date = ?, description = ?, merchant = ?, category_id = ?, tags = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted = 0`,
		t.Type, t.Amount.Cents, t.Date, t.Description, t.Merchant, category,
		strings.Join(t.Tags, ","), t.UpdatedAt, t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("transaction %s not found", t.ID)
	}
	return nil
}

// SoftDeleteTransaction flags the row; aggregates and lists skip it from then on.
func (r *Repository) SoftDeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET deleted = 1, updated_at = ? WHERE id = ? AND user_id = ? AND deleted = 0",
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("transaction %s not found", id)
	}
	return nil
}

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	where := []string{"user_id = ?", "deleted = 0"}
	args := []any{f.UserID}

	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	if f.MinCents > 0 {
		where = append(where, "amount_cents >= ?")
		args = append(args, f.MinCents)
	}
	if f.MaxCents > 0 {
		where = append(where, "amount_cents <= ?")
		args = append(args, f.MaxCents)
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR merchant LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern)
	}

	return strings.Join(where, " AND "), args
}

// ListTransactions returns one page sorted by date descending, plus the total
// match count for pagination.
func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, int64, error) {
	where, args := buildTransactionWhere(f)

	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := "SELECT " + transactionColumns + " FROM transactions WHERE " + where +
		" ORDER BY date DESC, created_at DESC"
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, (page-1)*f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

// BulkDeleteTransactions soft deletes the given ids one by one, continuing
// past individual failures. It returns how many rows were actually flagged.
func (r *Repository) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+2)
	args = append(args, time.Now().UTC(), userID)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET deleted = 1, updated_at = ? WHERE user_id = ? AND deleted = 0 AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete transactions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SumInRange totals non-deleted transactions of the given type in [from, to].
func (r *Repository) SumInRange(ctx context.Context, userID string, typ core.TransactionType, from, to time.Time) (int64, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount_cents) FROM transactions
		WHERE user_id = ? AND type = ? AND deleted = 0 AND date >= ? AND date <= ?`,
		userID, typ, from, to).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	return cents.Int64, nil
}

// SumByCategory groups non-deleted transactions by category over a period.
// Uncategorized rows come back with an empty id and name.
func (r *Repository) SumByCategory(ctx context.Context, userID string, typ core.TransactionType, from, to time.Time) ([]CategorySum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(t.category_id, ''), COALESCE(c.name, ''), SUM(t.amount_cents), COUNT(*)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ? AND t.type = ? AND t.deleted = 0 AND t.date >= ? AND t.date <= ?
		GROUP BY t.category_id
		ORDER BY SUM(t.amount_cents) DESC`,
		userID, typ, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []CategorySum
	for rows.Next() {
		var s CategorySum
		if err := rows.Scan(&s.CategoryID, &s.Name, &s.Cents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return out, nil
}

// SumByMonth groups non-deleted transactions by calendar month over a period.
func (r *Repository) SumByMonth(ctx context.Context, userID string, typ core.TransactionType, from, to time.Time) ([]MonthSum, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', date) AS INTEGER), CAST(strftime('%m', date) AS INTEGER), SUM(amount_cents)
		FROM transactions
		WHERE user_id = ? AND type = ? AND deleted = 0 AND date >= ? AND date <= ?
		GROUP BY strftime('%Y-%m', date)
		ORDER BY strftime('%Y-%m', date)`,
		userID, typ, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum by month: %w", err)
	}
	defer rows.Close()

	var out []MonthSum
	for rows.Next() {
		var s MonthSum
		if err := rows.Scan(&s.Year, &s.Month, &s.Cents); err != nil {
			return nil, fmt.Errorf("scan month sum: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month sums: %w", err)
	}
	return out, nil
}

// SumForBudget totals expense spend in [from, to] for one category, or for
// every category when categoryID is empty (overall budget).
func (r *Repository) SumForBudget(ctx context.Context, userID, categoryID string, from, to time.Time) (int64, error) {
	query := `
		SELECT SUM(amount_cents) FROM transactions
		WHERE user_id = ? AND type = 'expense' AND deleted = 0 AND date >= ? AND date <= ?`
	args := []any{userID, from, to}
	if categoryID != "" {
		query += " AND category_id = ?"
		args = append(args, categoryID)
	}

	var cents sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return 0, fmt.Errorf("sum for budget: %w", err)
	}
	return cents.Int64, nil
}
