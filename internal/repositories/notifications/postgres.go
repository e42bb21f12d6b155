package notifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// PostgresRepository stores download notifications addressed to file owners.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an unread notification. A zero DownloaderID is stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (owner_id, file_id, downloader_id, downloader_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	downloader := sql.NullInt64{Int64: n.DownloaderID, Valid: n.DownloaderID != 0}

	if err := r.db.QueryRowContext(ctx, query, n.OwnerID, n.FileID, downloader, n.DownloaderName).
		Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// List returns the newest notifications for ownerID with file names joined in.
func (r *PostgresRepository) List(ctx context.Context, ownerID int64, limit int) ([]*models.Notification, error) {
	query := `
		SELECT n.id, n.owner_id, n.file_id, COALESCE(f.file_name, ''),
		       n.downloader_id, n.downloader_name, n.created_at, n.is_read
		FROM notifications n
		LEFT JOIN files f ON f.id = n.file_id
		WHERE n.owner_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select notifications: %w", err)
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		var (
			item       models.Notification
			downloader sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FileID, &item.FileName,
			&downloader, &item.DownloaderName, &item.CreatedAt, &item.Read); err != nil {
			return nil, err
		}
		item.DownloaderID = downloader.Int64
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountUnread(ctx context.Context, ownerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE owner_id = $1 AND NOT is_read`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, ownerID int64) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE owner_id = $1 AND NOT is_read`
	if _, err := r.db.ExecContext(ctx, query, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAll removes every notification of ownerID and returns how many went.
func (r *PostgresRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
