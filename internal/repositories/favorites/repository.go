package favorites

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	// Add reports false when the edge already existed.
	Add(ctx context.Context, userID, fileID int64) (bool, error)
	List(ctx context.Context, userID int64, limit int) ([]*models.FavoriteFile, error)
}
