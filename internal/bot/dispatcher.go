// Package bot routes Telegram updates to the upload conversation, the link
// resolver and the listing screens, and renders every user-facing message.
package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/retrieval"
	"github.com/dmitrijs2005/linkdrop/internal/session"
	"github.com/dmitrijs2005/linkdrop/internal/telegram"
	"github.com/dmitrijs2005/linkdrop/internal/upload"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Records is the record store as seen by the bot.
type Records interface {
	upload.Store
	retrieval.Store

	RecentFiles(ctx context.Context, userID int64, limit int) ([]*models.File, error)
	GlobalStats(ctx context.Context) (*models.GlobalStats, error)
	UserStats(ctx context.Context, userID int64) (*models.UserAggregate, error)
	AddFavorite(ctx context.Context, userID, fileID int64) (bool, error)
	Favorites(ctx context.Context, userID int64, limit int) ([]*models.FavoriteFile, error)
	Notifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
	ClearNotifications(ctx context.Context, userID int64) (int64, error)
	UnreadNotifications(ctx context.Context, userID int64) (int64, error)
	MarkNotificationsRead(ctx context.Context, userID int64) error
}

// Options configures a Dispatcher. Zero limits fall back to defaults.
type Options struct {
	Gateway     telegram.Gateway
	Records     Records
	Sessions    *session.Store
	BotUsername string
	Logger      logging.Logger

	Workers             int
	MaxPasswordAttempts int
	RecentFilesLimit    int
	NotificationsLimit  int
}

type Dispatcher struct {
	gw       telegram.Gateway
	records  Records
	sessions *session.Store
	uploads  *upload.Machine
	resolver *retrieval.Resolver
	log      logging.Logger

	botUsername   string
	workers       int
	recentLimit   int
	notifLimit    int
	favoriteLimit int
	now           func() time.Time
}

// queueSize bounds each worker's backlog.
const queueSize = 16

func NewDispatcher(o Options) *Dispatcher {
	log := o.Logger
	if log == nil {
		log = logging.Nop()
	}
	sessions := o.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}

	d := &Dispatcher{
		gw:            o.Gateway,
		records:       o.Records,
		sessions:      sessions,
		log:           log.With("module", "bot"),
		botUsername:   o.BotUsername,
		workers:       orDefault(o.Workers, 8),
		recentLimit:   orDefault(o.RecentFilesLimit, common.DefaultRecentFilesLimit),
		notifLimit:    orDefault(o.NotificationsLimit, common.DefaultNotificationsLimit),
		favoriteLimit: common.DefaultRecentFilesLimit,
		now:           time.Now,
	}
	d.uploads = upload.NewMachine(o.Records, o.BotUsername, log)
	d.resolver = retrieval.NewResolver(o.Records, o.Gateway, d.caption, orDefault(o.MaxPasswordAttempts, 3), log)
	return d
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (d *Dispatcher) caption(f *models.File) string {
	return renderCaption(f, d.botUsername)
}

// OpenSessions reports chats with an upload or a password prompt in progress.
func (d *Dispatcher) OpenSessions() int {
	return d.sessions.Open()
}

// Serve handles updates until the channel is closed or ctx is done. Updates
// are spread over Workers queues by chat: one chat's updates run one at a
// time in arrival order, different chats run in parallel. Updates already
// queued are still handled after ctx is done.
func (d *Dispatcher) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	g, gctx := errgroup.WithContext(ctx)

	queues := make([]chan tgbotapi.Update, d.workers)
	for i := range queues {
		q := make(chan tgbotapi.Update, queueSize)
		queues[i] = q
		g.Go(func() error {
			for upd := range q {
				d.HandleUpdate(gctx, upd)
			}
			return nil
		})
	}

	d.log.Info(ctx, "dispatcher started", "workers", d.workers)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case upd, ok := <-updates:
			if !ok {
				break loop
			}
			q := queues[queueIndex(chatKey(upd), len(queues))]
			select {
			case q <- upd:
			case <-ctx.Done():
				break loop
			}
		}
	}

	for _, q := range queues {
		close(q)
	}

	err := g.Wait()
	d.log.Info(ctx, "dispatcher stopped", "open_sessions", d.sessions.Open())
	return err
}

// chatKey is the chat an update will lock, matching handleMessage and
// handleCallback.
func chatKey(upd tgbotapi.Update) int64 {
	switch {
	case upd.Message != nil:
		if upd.Message.Chat != nil {
			return upd.Message.Chat.ID
		}
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.Message != nil && q.Message.Chat != nil {
			return q.Message.Chat.ID
		}
		if q.From != nil {
			return q.From.ID
		}
	}
	return 0
}

func queueIndex(chatID int64, n int) int {
	return int(uint64(chatID) % uint64(n))
}

// HandleUpdate processes a single update. A panic is logged and swallowed so
// one bad update never takes the process down.
func (d *Dispatcher) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	log := d.log.With("trace_id", uuid.NewString(), "update_id", upd.UpdateID)

	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "panic while handling update", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
	}()

	switch {
	case upd.Message != nil:
		d.handleMessage(ctx, log, upd.Message)
	case upd.CallbackQuery != nil:
		d.handleCallback(ctx, log, upd.CallbackQuery)
	default:
		log.Debug(ctx, "ignoring update")
	}
}

// reply sends text and logs a failed send.
func (d *Dispatcher) reply(ctx context.Context, log logging.Logger, chatID int64, text string, opts ...telegram.SendOption) {
	if _, err := d.gw.SendText(ctx, chatID, text, opts...); err != nil {
		log.Error(ctx, "send failed", "chat_id", chatID, "error", err)
	}
}
