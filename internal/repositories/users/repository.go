package users

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, profile models.UserProfile) error
	AddUpload(ctx context.Context, userID int64, bytes int64) error
	AddDownload(ctx context.Context, userID int64, bytes int64) error
	Get(ctx context.Context, userID int64) (*models.UserAggregate, error)
	Count(ctx context.Context) (int64, error)
}
