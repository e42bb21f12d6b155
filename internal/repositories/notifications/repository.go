package notifications

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

type Repository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, ownerID int64, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, ownerID int64) (int64, error)
	MarkAllRead(ctx context.Context, ownerID int64) error
	DeleteAll(ctx context.Context, ownerID int64) (int64, error)
}
