package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return core.User{}, core.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return core.User{}, core.NotFoundf("user with email %s not found", email)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUserIDs returns every user id, used by the scheduler jobs to fan out.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

// UpdatePasswordHash swaps the live hash and appends the old one to the
// history table in a single transaction.
func (r *Repository) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin password update: %w", err)
	}
	defer tx.Rollback()

	var oldHash string
	err = tx.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE id = ?", userID).Scan(&oldHash)
	if err == sql.ErrNoRows {
		return core.NotFoundf("user %s not found", userID)
	}
	if err != nil {
		return fmt.Errorf("read current hash: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
		newHash, now, userID); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_history (user_id, password_hash, created_at) VALUES (?, ?, ?)",
		userID, oldHash, now); err != nil {
		return fmt.Errorf("append password history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit password update: %w", err)
	}
	return nil
}

// ListPasswordHistory returns the most recent stored hashes, newest first.
func (r *Repository) ListPasswordHistory(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT password_hash FROM password_history
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list password history: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan password history: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate password history: %w", err)
	}
	return hashes, nil
}

// TrimPasswordHistory drops history rows beyond the newest keep entries.
func (r *Repository) TrimPasswordHistory(ctx context.Context, userID string, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM password_history
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM password_history
			WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		userID, userID, keep)
	if err != nil {
		return fmt.Errorf("trim password history: %w", err)
	}
	return nil
}

func (r *Repository) CreateResetToken(ctx context.Context, digest, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO reset_tokens (digest, user_id, expires_at) VALUES (?, ?, ?)",
		digest, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken marks the token used and returns its user. Unknown,
// expired, or already-used tokens report a security error.
func (r *Repository) ConsumeResetToken(ctx context.Context, digest string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin token consume: %w", err)
	}
	defer tx.Rollback()

	var userID string
	var expiresAt time.Time
	var usedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM reset_tokens WHERE digest = ?", digest).
		Scan(&userID, &expiresAt, &usedAt)
	if err == sql.ErrNoRows {
		return "", core.Securityf("reset token not recognized")
	}
	if err != nil {
		return "", fmt.Errorf("read reset token: %w", err)
	}
	if usedAt.Valid {
		return "", core.Securityf("reset token already used")
	}
	if now.After(expiresAt) {
		return "", core.Securityf("reset token expired")
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE reset_tokens SET used_at = ? WHERE digest = ?", now, digest); err != nil {
		return "", fmt.Errorf("mark reset token used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit token consume: %w", err)
	}
	return userID, nil
}
