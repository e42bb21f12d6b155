package bot

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentText struct {
	chatID int64
	text   string
	opts   telegram.SendOptions
}

type sentMedia struct {
	chatID  int64
	kind    models.MediaKind
	fileRef string
	caption string
}

type fakeGateway struct {
	mu        sync.Mutex
	texts     []sentText
	media     []sentMedia
	answers   map[string]string
	edits     []string
	mediaErrs map[models.MediaKind]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{answers: map[string]string{}}
}

func (g *fakeGateway) SendText(_ context.Context, chatID int64, text string, opts ...telegram.SendOption) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var o telegram.SendOptions
	for _, opt := range opts {
		opt(&o)
	}
	g.texts = append(g.texts, sentText{chatID, text, o})
	return len(g.texts), nil
}

func (g *fakeGateway) SendMedia(_ context.Context, chatID int64, kind models.MediaKind, fileRef, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.mediaErrs[kind]; err != nil {
		return err
	}
	g.media = append(g.media, sentMedia{chatID, kind, fileRef, caption})
	return nil
}

func (g *fakeGateway) AnswerCallback(_ context.Context, id, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers[id] = text
	return nil
}

func (g *fakeGateway) EditText(_ context.Context, _ int64, _ int, text string, _ ...[]telegram.Button) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits = append(g.edits, text)
	return nil
}

func (g *fakeGateway) lastText() sentText {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		return sentText{}
	}
	return g.texts[len(g.texts)-1]
}

// fakeRecords is an in-memory record store.
type fakeRecords struct {
	mu            sync.Mutex
	files         map[int64]*models.File
	users         map[int64]*models.UserAggregate
	favorites     map[int64][]int64
	notifications map[int64][]*models.Notification
	nextID        int64

	panicOnStats bool
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		files:         map[int64]*models.File{},
		users:         map[int64]*models.UserAggregate{},
		favorites:     map[int64][]int64{},
		notifications: map[int64][]*models.Notification{},
	}
}

func (f *fakeRecords) user(p models.UserProfile) *models.UserAggregate {
	u, ok := f.users[p.ID]
	if !ok {
		u = &models.UserAggregate{UserProfile: p}
		f.users[p.ID] = u
	}
	return u
}

func (f *fakeRecords) CreateFile(_ context.Context, file *models.File, owner models.UserProfile) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *file
	cp.ID = f.nextID
	cp.OwnerID = owner.ID
	cp.OwnerName = owner.UserName
	f.files[cp.ID] = &cp
	u := f.user(owner)
	u.TotalUploads++
	u.UploadedBytes += file.Size
	return cp.ID, nil
}

func (f *fakeRecords) GetFile(_ context.Context, id int64) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *file
	return &cp, nil
}

func (f *fakeRecords) GetPassword(ctx context.Context, id int64) (string, error) {
	file, err := f.GetFile(ctx, id)
	if err != nil {
		return "", err
	}
	return file.Password, nil
}

func (f *fakeRecords) RegisterDownload(_ context.Context, file *models.File, downloader *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.files[file.ID]
	if !ok {
		return common.ErrorNotFound
	}
	stored.DownloadCount++
	stored.DownloadedBytes += stored.Size
	if downloader != nil {
		u := f.user(*downloader)
		u.TotalDownloads++
		u.DownloadedBytes += stored.Size
		if downloader.ID != stored.OwnerID {
			f.notifications[stored.OwnerID] = append([]*models.Notification{{
				OwnerID: stored.OwnerID, FileID: stored.ID, FileName: stored.Name,
				DownloaderID: downloader.ID, DownloaderName: downloader.DisplayName(),
			}}, f.notifications[stored.OwnerID]...)
		}
	}
	return nil
}

func (f *fakeRecords) RecentFiles(_ context.Context, userID int64, limit int) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.File
	for id := f.nextID; id > 0 && len(out) < limit; id-- {
		if file, ok := f.files[id]; ok && file.OwnerID == userID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeRecords) GlobalStats(context.Context) (*models.GlobalStats, error) {
	if f.panicOnStats {
		panic("stats exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.GlobalStats{TotalUsers: int64(len(f.users)), TotalFiles: int64(len(f.files))}
	for _, file := range f.files {
		s.TotalDownloads += file.DownloadCount
		s.UploadedBytes += file.Size
		s.DownloadedBytes += file.DownloadedBytes
	}
	return s, nil
}

func (f *fakeRecords) UserStats(_ context.Context, userID int64) (*models.UserAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRecords) AddFavorite(_ context.Context, userID, fileID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[fileID]; !ok {
		return false, common.ErrorNotFound
	}
	for _, id := range f.favorites[userID] {
		if id == fileID {
			return false, nil
		}
	}
	f.favorites[userID] = append(f.favorites[userID], fileID)
	return true, nil
}

func (f *fakeRecords) Favorites(_ context.Context, userID int64, limit int) ([]*models.FavoriteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.FavoriteFile
	for _, id := range f.favorites[userID] {
		if len(out) == limit {
			break
		}
		file := f.files[id]
		out = append(out, &models.FavoriteFile{UserID: userID, FileID: id, Name: file.Name, Size: file.Size, Kind: file.Kind})
	}
	return out, nil
}

func (f *fakeRecords) Notifications(_ context.Context, userID int64, limit int) ([]*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.notifications[userID]
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeRecords) ClearNotifications(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.notifications[userID]))
	delete(f.notifications, userID)
	return n, nil
}

func (f *fakeRecords) UnreadNotifications(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, x := range f.notifications[userID] {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeRecords) MarkNotificationsRead(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.notifications[userID] {
		x.Read = true
	}
	return nil
}

// --- update builders ---

var (
	alice = &tgbotapi.User{ID: 1, UserName: "alice", FirstName: "Alice"}
	bob   = &tgbotapi.User{ID: 2, UserName: "bob", FirstName: "Bob"}
)

func textUpdate(from *tgbotapi.User, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 1,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: from.ID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		end := len(text)
		for i, c := range text {
			if c == ' ' {
				end = i
				break
			}
		}
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: m}
}

func documentUpdate(from *tgbotapi.User, name string, size int) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, Message: &tgbotapi.Message{
		MessageID: 2,
		From:      from,
		Chat:      &tgbotapi.Chat{ID: from.ID},
		Document:  &tgbotapi.Document{FileID: "doc-ref", FileName: name, FileSize: size},
	}}
}

func callbackUpdate(from *tgbotapi.User, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 3, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    from,
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: from.ID}},
	}}
}
