package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

const categoryColumns = "id, user_id, name, type, parent_id, depth, color, icon, active"

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var parent sql.NullString
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &parent, &c.Depth, &c.Color, &c.Icon, &c.Active)
	if err != nil {
		return core.Category{}, err
	}
	c.ParentID = parent.String
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	var parent any
	if c.ParentID != "" {
		parent = c.ParentID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, parent_id, depth, color, icon, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Type, parent, c.Depth, c.Color, c.Icon, c.Active,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE id = ? AND user_id = ?", id, userID)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return core.Category{}, core.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetCategoryByName looks a category up by its unique (user, type, name) key.
func (r *Repository) GetCategoryByName(ctx context.Context, userID string, typ core.TransactionType, name string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? AND type = ? AND name = ?",
		userID, typ, name)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return core.Category{}, core.NotFoundf("category %q not found", name)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

// ListCategories returns the user's categories, optionally filtered by type
// and restricted to active ones, ordered by depth then name so parents come
// before their children.
func (r *Repository) ListCategories(ctx context.Context, userID string, typ core.TransactionType, activeOnly bool) ([]core.Category, error) {
	query := "SELECT " + categoryColumns + " FROM categories WHERE user_id = ?"
	args := []any{userID}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, typ)
	}
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY depth, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	var parent any
	if c.ParentID != "" {
		parent = c.ParentID
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, parent_id = ?, depth = ?, color = ?, icon = ?, active = ?
		WHERE id = ? AND user_id = ?`,
		c.Name, parent, c.Depth, c.Color, c.Icon, c.Active, c.ID, c.UserID,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("category %s not found", c.ID)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("category %s not found", id)
	}
	return nil
}

func (r *Repository) CountCategoryChildren(ctx context.Context, userID, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE parent_id = ? AND user_id = ?", id, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category children: %w", err)
	}
	return n, nil
}

func (r *Repository) CountCategoryTransactions(ctx context.Context, userID, id string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE category_id = ? AND user_id = ? AND deleted = 0",
		id, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}

// ReassignTransactions moves every transaction from one category to another.
// An empty target clears the assignment.
func (r *Repository) ReassignTransactions(ctx context.Context, userID, fromCategory, toCategory string) (int64, error) {
	var target any
	if toCategory != "" {
		target = toCategory
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET category_id = ? WHERE category_id = ? AND user_id = ?",
		target, fromCategory, userID)
	if err != nil {
		return 0, fmt.Errorf("reassign transactions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SetCategoryKeywords replaces the keyword list used for auto-categorization.
func (r *Repository) SetCategoryKeywords(ctx context.Context, categoryID string, keywords []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin keyword update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM category_keywords WHERE category_id = ?", categoryID); err != nil {
		return fmt.Errorf("clear keywords: %w", err)
	}
	for _, kw := range keywords {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO category_keywords (category_id, keyword) VALUES (?, ?)",
			categoryID, kw); err != nil {
			return fmt.Errorf("insert keyword %q: %w", kw, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit keyword update: %w", err)
	}
	return nil
}

// ListCategoryKeywords returns keyword -> category id for all of the user's
// active categories of the given type.
func (r *Repository) ListCategoryKeywords(ctx context.Context, userID string, typ core.TransactionType) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT k.keyword, k.category_id
		FROM category_keywords k
		JOIN categories c ON c.id = k.category_id
		WHERE c.user_id = ? AND c.type = ? AND c.active = 1`,
		userID, typ)
	if err != nil {
		return nil, fmt.Errorf("list category keywords: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var keyword, categoryID string
		if err := rows.Scan(&keyword, &categoryID); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out[keyword] = categoryID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keywords: %w", err)
	}
	return out, nil
}
