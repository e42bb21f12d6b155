package files

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.File, error)
	GetPassword(ctx context.Context, id int64) (string, error)
	IncrementDownloads(ctx context.Context, id int64, bytes int64) error
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*models.File, error)
	Stats(ctx context.Context) (*models.GlobalStats, error)
}
