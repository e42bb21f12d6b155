// Package services implements the record store contract on top of the
// repositories. Every multi-row mutation runs in one transaction.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/repomanager"
)

type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

// CreateFile persists a new record, creating or refreshing the owner's
// aggregate and counting the upload against it. Returns the new id.
func (s *RecordService) CreateFile(ctx context.Context, file *models.File, owner models.UserProfile) (int64, error) {
	file.OwnerID = owner.ID

	var id int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		if err := users.Upsert(ctx, owner); err != nil {
			return fmt.Errorf("error saving owner: %w", err)
		}

		var err error
		id, err = s.repomanager.Files(tx).Create(ctx, file)
		if err != nil {
			return fmt.Errorf("error creating file: %w", err)
		}

		if err := users.AddUpload(ctx, owner.ID, file.Size); err != nil {
			return fmt.Errorf("error updating owner totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetFile returns common.ErrorNotFound when id does not exist.
func (s *RecordService) GetFile(ctx context.Context, id int64) (*models.File, error) {
	return s.repomanager.Files(s.db).GetByID(ctx, id)
}

func (s *RecordService) GetPassword(ctx context.Context, id int64) (string, error) {
	return s.repomanager.Files(s.db).GetPassword(ctx, id)
}

// RegisterDownload counts one delivery of file. When the downloader is known
// their aggregate is updated too, and the owner gets a notification unless
// they downloaded their own file. All of it commits or none of it does.
func (s *RecordService) RegisterDownload(ctx context.Context, file *models.File, downloader *models.UserProfile) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).IncrementDownloads(ctx, file.ID, file.Size); err != nil {
			return fmt.Errorf("error incrementing downloads: %w", err)
		}

		if downloader == nil {
			return nil
		}

		users := s.repomanager.Users(tx)
		if err := users.Upsert(ctx, *downloader); err != nil {
			return fmt.Errorf("error saving downloader: %w", err)
		}
		if err := users.AddDownload(ctx, downloader.ID, file.Size); err != nil {
			return fmt.Errorf("error updating downloader totals: %w", err)
		}

		if downloader.ID == file.OwnerID {
			return nil
		}

		n := &models.Notification{
			OwnerID:        file.OwnerID,
			FileID:         file.ID,
			DownloaderID:   downloader.ID,
			DownloaderName: downloader.DisplayName(),
		}
		if err := s.repomanager.Notifications(tx).Create(ctx, n); err != nil {
			return fmt.Errorf("error creating notification: %w", err)
		}
		return nil
	})
}

// RecentFiles lists at most limit records owned by userID, newest first.
func (s *RecordService) RecentFiles(ctx context.Context, userID int64, limit int) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, userID, limit)
}

func (s *RecordService) GlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	stats, err := s.repomanager.Files(s.db).Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading file stats: %w", err)
	}
	stats.TotalUsers, err = s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	return stats, nil
}

// UserStats returns common.ErrorNotFound for a user who never uploaded or downloaded.
func (s *RecordService) UserStats(ctx context.Context, userID int64) (*models.UserAggregate, error) {
	return s.repomanager.Users(s.db).Get(ctx, userID)
}

// AddFavorite links fileID to userID. It reports false when the favorite
// already existed and common.ErrorNotFound when the file does not exist.
func (s *RecordService) AddFavorite(ctx context.Context, userID, fileID int64) (bool, error) {
	var added bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Files(tx).GetByID(ctx, fileID); err != nil {
			return err
		}
		var err error
		added, err = s.repomanager.Favorites(tx).Add(ctx, userID, fileID)
		return err
	})
	return added, err
}

func (s *RecordService) Favorites(ctx context.Context, userID int64, limit int) ([]*models.FavoriteFile, error) {
	return s.repomanager.Favorites(s.db).List(ctx, userID, limit)
}

func (s *RecordService) Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error) {
	return s.repomanager.Notifications(s.db).List(ctx, userID, limit)
}

func (s *RecordService) ClearNotifications(ctx context.Context, userID int64) (int64, error) {
	return s.repomanager.Notifications(s.db).DeleteAll(ctx, userID)
}

func (s *RecordService) UnreadNotifications(ctx context.Context, userID int64) (int64, error) {
	return s.repomanager.Notifications(s.db).CountUnread(ctx, userID)
}

func (s *RecordService) MarkNotificationsRead(ctx context.Context, userID int64) error {
	return s.repomanager.Notifications(s.db).MarkAllRead(ctx, userID)
}
