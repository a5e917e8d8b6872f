package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
)

func (r *Repository) CreateUpload(ctx context.Context, u core.Upload) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads (id, user_id, original_name, stored_path, thumbnail_path, content_type, size, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserID, u.OriginalName, u.StoredPath, u.ThumbnailPath,
		u.ContentType, u.Size, u.Checksum, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

func (r *Repository) GetUpload(ctx context.Context, userID, id string) (core.Upload, error) {
	var u core.Upload
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, original_name, stored_path, thumbnail_path, content_type, size, checksum, created_at
		FROM uploads WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&u.ID, &u.UserID, &u.OriginalName, &u.StoredPath, &u.ThumbnailPath,
			&u.ContentType, &u.Size, &u.Checksum, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return core.Upload{}, core.NotFoundf("upload %s not found", id)
	}
	if err != nil {
		return core.Upload{}, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

func (r *Repository) ListUploads(ctx context.Context, userID string) ([]core.Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, original_name, stored_path, thumbnail_path, content_type, size, checksum, created_at
		FROM uploads WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []core.Upload
	for rows.Next() {
		var u core.Upload
		if err := rows.Scan(&u.ID, &u.UserID, &u.OriginalName, &u.StoredPath,
			&u.ThumbnailPath, &u.ContentType, &u.Size, &u.Checksum, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteUpload(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM uploads WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.NotFoundf("upload %s not found", id)
	}
	return nil
}
