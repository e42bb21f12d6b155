package favorites

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// PostgresRepository stores (user, file) favorite edges.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add is idempotent: a second add of the same pair is a no-op.
func (r *PostgresRepository) Add(ctx context.Context, userID, fileID int64) (bool, error) {
	query := `
		INSERT INTO favorites (user_id, file_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, file_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, userID, fileID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

// List returns the newest favorites of userID joined with their files.
func (r *PostgresRepository) List(ctx context.Context, userID int64, limit int) ([]*models.FavoriteFile, error) {
	query := `
		SELECT fav.user_id, f.id, f.file_name, f.file_size, f.kind, fav.added_at
		FROM favorites fav
		JOIN files f ON f.id = fav.file_id
		WHERE fav.user_id = $1
		ORDER BY fav.added_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select favorites: %w", err)
	}
	defer rows.Close()

	var result []*models.FavoriteFile
	for rows.Next() {
		var (
			item models.FavoriteFile
			kind string
		)
		if err := rows.Scan(&item.UserID, &item.FileID, &item.Name, &item.Size, &kind, &item.AddedAt); err != nil {
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
