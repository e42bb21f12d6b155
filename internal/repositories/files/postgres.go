package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// PostgresRepository implements file record storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new file record and fills in the generated id and
// creation time. Empty description and password are stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (int64, error) {
	query := `
		INSERT INTO files (file_ref, file_name, file_size, kind, owner_id, description, password, is_protected)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.FileRef, file.Name, file.Size, string(file.Kind), file.OwnerID,
		file.Description, file.Password, file.Password != "").
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	file.Protected = file.Password != ""
	return file.ID, nil
}

// GetByID returns the record with the owner's display name joined in.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := `
		SELECT f.id, f.file_ref, f.file_name, f.file_size, f.kind, f.owner_id,
		       COALESCE(u.username, u.first_name, ''),
		       f.created_at, f.download_count, f.downloaded_bytes,
		       COALESCE(f.description, ''), COALESCE(f.password, ''), f.is_protected
		FROM files f
		LEFT JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1
	`
	var (
		f    models.File
		kind string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.FileRef, &f.Name, &f.Size, &kind, &f.OwnerID,
		&f.OwnerName,
		&f.CreatedAt, &f.DownloadCount, &f.DownloadedBytes,
		&f.Description, &f.Password, &f.Protected)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	f.Kind = models.MediaKind(kind)
	return &f, nil
}

// GetPassword returns the stored password, or "" when the file is open.
func (r *PostgresRepository) GetPassword(ctx context.Context, id int64) (string, error) {
	query := `SELECT COALESCE(password, '') FROM files WHERE id = $1`

	var pw string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&pw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return pw, nil
}

// IncrementDownloads bumps the counters in place so concurrent downloads
// are never lost.
func (r *PostgresRepository) IncrementDownloads(ctx context.Context, id int64, bytes int64) error {
	query := `
		UPDATE files
		SET download_count = download_count + 1,
		    downloaded_bytes = downloaded_bytes + $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, bytes)
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

// ListByOwner returns at most limit records of ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.File, error) {
	query := `
		SELECT id, file_ref, file_name, file_size, kind, owner_id, created_at,
		       download_count, downloaded_bytes,
		       COALESCE(description, ''), COALESCE(password, ''), is_protected
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var (
			item models.File
			kind string
		)
		if err := rows.Scan(&item.ID, &item.FileRef, &item.Name, &item.Size, &kind, &item.OwnerID, &item.CreatedAt,
			&item.DownloadCount, &item.DownloadedBytes,
			&item.Description, &item.Password, &item.Protected); err != nil {
			return nil, err
		}
		item.Kind = models.MediaKind(kind)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Stats fills the file-derived part of the global statistics.
func (r *PostgresRepository) Stats(ctx context.Context) (*models.GlobalStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(download_count), 0),
		       COALESCE(SUM(file_size), 0),
		       COALESCE(SUM(downloaded_bytes), 0)
		FROM files
	`
	s := &models.GlobalStats{}
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.TotalFiles, &s.TotalDownloads, &s.UploadedBytes, &s.DownloadedBytes); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
