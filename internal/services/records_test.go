package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/favorites"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/files"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/notifications"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeFiles struct {
	files.Repository

	created   *models.File
	createID  int64
	createErr error

	getOut *models.File
	getErr error

	incremented []int64
	incBytes    int64
	incErr      error

	statsOut *models.GlobalStats
}

func (f *fakeFiles) Create(_ context.Context, file *models.File) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = file
	file.ID = f.createID
	return f.createID, nil
}

func (f *fakeFiles) GetByID(context.Context, int64) (*models.File, error) {
	return f.getOut, f.getErr
}

func (f *fakeFiles) IncrementDownloads(_ context.Context, id int64, bytes int64) error {
	if f.incErr != nil {
		return f.incErr
	}
	f.incremented = append(f.incremented, id)
	f.incBytes += bytes
	return nil
}

func (f *fakeFiles) Stats(context.Context) (*models.GlobalStats, error) {
	return f.statsOut, nil
}

type fakeUsers struct {
	users.Repository

	upserted  []models.UserProfile
	uploads   map[int64]int64
	downloads map[int64]int64
	addErr    error
	count     int64
}

func (f *fakeUsers) Upsert(_ context.Context, p models.UserProfile) error {
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeUsers) AddUpload(_ context.Context, id int64, bytes int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.uploads == nil {
		f.uploads = map[int64]int64{}
	}
	f.uploads[id] += bytes
	return nil
}

func (f *fakeUsers) AddDownload(_ context.Context, id int64, bytes int64) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.downloads == nil {
		f.downloads = map[int64]int64{}
	}
	f.downloads[id] += bytes
	return nil
}

func (f *fakeUsers) Count(context.Context) (int64, error) { return f.count, nil }

type fakeFavorites struct {
	favorites.Repository
	added []int64
}

func (f *fakeFavorites) Add(_ context.Context, _ int64, fileID int64) (bool, error) {
	for _, id := range f.added {
		if id == fileID {
			return false, nil
		}
	}
	f.added = append(f.added, fileID)
	return true, nil
}

type fakeNotifications struct {
	notifications.Repository
	created []*models.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.created = append(f.created, n)
	return nil
}

type fakeRepoManager struct {
	f   *fakeFiles
	u   *fakeUsers
	fav *fakeFavorites
	n   *fakeNotifications

	bound []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository {
	m.bound = append(m.bound, db)
	return m.f
}
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	m.bound = append(m.bound, db)
	return m.u
}
func (m *fakeRepoManager) Favorites(db dbx.DBTX) favorites.Repository {
	m.bound = append(m.bound, db)
	return m.fav
}
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notifications.Repository {
	m.bound = append(m.bound, db)
	return m.n
}

func newFakeManager() *fakeRepoManager {
	return &fakeRepoManager{
		f:   &fakeFiles{},
		u:   &fakeUsers{},
		fav: &fakeFavorites{},
		n:   &fakeNotifications{},
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

// --- tests ---

func TestCreateFile_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeManager()
	rm.f.createID = 42
	s := NewRecordService(db, rm)

	owner := models.UserProfile{ID: 7, UserName: "ann"}
	file := models.NewFile("ref", "a.pdf", 100, models.MediaDocument, 0, "", "secret1")

	id, err := s.CreateFile(context.Background(), file, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(7), rm.f.created.OwnerID)
	assert.Equal(t, []models.UserProfile{owner}, rm.u.upserted)
	assert.Equal(t, int64(100), rm.u.uploads[7])
	require.NoError(t, mock.ExpectationsWereMet())

	for _, b := range rm.bound {
		_, isTx := b.(*sql.Tx)
		assert.True(t, isTx, "repository bound outside the transaction")
	}
}

func TestCreateFile_RollbackOnError(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeManager()
	rm.u.addErr = errors.New("db down")
	s := NewRecordService(db, rm)

	_, err := s.CreateFile(context.Background(), models.NewFile("ref", "a", 1, models.MediaGeneric, 0, "", ""), models.UserProfile{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error updating owner totals")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDownload_NotifiesOwner(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeManager()
	s := NewRecordService(db, rm)

	file := &models.File{ID: 3, OwnerID: 7, Size: 50}
	downloader := &models.UserProfile{ID: 8, FirstName: "Bob"}

	require.NoError(t, s.RegisterDownload(context.Background(), file, downloader))
	assert.Equal(t, []int64{3}, rm.f.incremented)
	assert.Equal(t, int64(50), rm.f.incBytes)
	assert.Equal(t, int64(50), rm.u.downloads[8])
	require.Len(t, rm.n.created, 1)
	assert.Equal(t, &models.Notification{OwnerID: 7, FileID: 3, DownloaderID: 8, DownloaderName: "Bob"}, rm.n.created[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDownload_OwnerOrAnonymousNoNotification(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeManager()
	s := NewRecordService(db, rm)
	file := &models.File{ID: 3, OwnerID: 7, Size: 50}

	require.NoError(t, s.RegisterDownload(context.Background(), file, &models.UserProfile{ID: 7}))
	require.NoError(t, s.RegisterDownload(context.Background(), file, nil))

	assert.Equal(t, []int64{3, 3}, rm.f.incremented)
	assert.Empty(t, rm.n.created)
	assert.Equal(t, int64(50), rm.u.downloads[7])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDownload_MissingFileRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeManager()
	rm.f.incErr = common.ErrorNotFound
	s := NewRecordService(db, rm)

	err := s.RegisterDownload(context.Background(), &models.File{ID: 3, OwnerID: 7}, &models.UserProfile{ID: 8})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, rm.u.upserted)
	assert.Empty(t, rm.n.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlobalStats(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeManager()
	rm.f.statsOut = &models.GlobalStats{TotalFiles: 2, TotalDownloads: 5}
	rm.u.count = 3
	s := NewRecordService(db, rm)

	stats, err := s.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.GlobalStats{TotalUsers: 3, TotalFiles: 2, TotalDownloads: 5}, stats)
}

func TestAddFavorite(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeManager()
	rm.f.getOut = &models.File{ID: 9}
	s := NewRecordService(db, rm)

	added, err := s.AddFavorite(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddFavorite(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.False(t, added)

	rm.f.getOut, rm.f.getErr = nil, common.ErrorNotFound
	_, err = s.AddFavorite(context.Background(), 1, 10)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
