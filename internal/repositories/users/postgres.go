package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert creates the aggregate row on first sight of a user. Later calls
// refresh the names but never overwrite a known name with a blank one.
func (r *PostgresRepository) Upsert(ctx context.Context, p models.UserProfile) error {
	query :=
		`INSERT INTO users (id, username, first_name, last_name)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		 ON CONFLICT (id) DO UPDATE SET
		   username = COALESCE(EXCLUDED.username, users.username),
		   first_name = COALESCE(EXCLUDED.first_name, users.first_name),
		   last_name = COALESCE(EXCLUDED.last_name, users.last_name)
		 `

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.UserName, p.FirstName, p.LastName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddUpload(ctx context.Context, userID int64, bytes int64) error {
	query :=
		`UPDATE users SET total_uploads = total_uploads + 1, uploaded_bytes = uploaded_bytes + $2
		 WHERE id = $1
		 `
	return r.bump(ctx, query, userID, bytes)
}

func (r *PostgresRepository) AddDownload(ctx context.Context, userID int64, bytes int64) error {
	query :=
		`UPDATE users SET total_downloads = total_downloads + 1, downloaded_bytes = downloaded_bytes + $2
		 WHERE id = $1
		 `
	return r.bump(ctx, query, userID, bytes)
}

func (r *PostgresRepository) bump(ctx context.Context, query string, userID, bytes int64) error {
	res, err := r.db.ExecContext(ctx, query, userID, bytes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	query :=
		`SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		        created_at, total_uploads, total_downloads, uploaded_bytes, downloaded_bytes
		 FROM users
		 WHERE id = $1
		 `

	u := &models.UserAggregate{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.UserName, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.TotalUploads, &u.TotalDownloads, &u.UploadedBytes, &u.DownloadedBytes)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
