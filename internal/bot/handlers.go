package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/linkdrop/internal/common"
	"github.com/dmitrijs2005/linkdrop/internal/linkcodec"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/retrieval"
	"github.com/dmitrijs2005/linkdrop/internal/session"
	"github.com/dmitrijs2005/linkdrop/internal/telegram"
	"github.com/dmitrijs2005/linkdrop/internal/upload"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// request is one message or callback being handled for a chat.
type request struct {
	chatID int64
	user   models.UserProfile
	slot   *session.Slot
	log    logging.Logger
}

func (d *Dispatcher) handleMessage(ctx context.Context, log logging.Logger, m *tgbotapi.Message) {
	if m.Chat == nil {
		return
	}

	user := profileOf(m.From)
	if user.ID == 0 {
		user.ID = m.Chat.ID
	}

	slot := d.sessions.Lock(m.Chat.ID)
	defer slot.Unlock()

	r := &request{
		chatID: m.Chat.ID,
		user:   user,
		slot:   slot,
		log:    log.With("chat_id", m.Chat.ID),
	}

	if media, ok := mediaOf(m); ok {
		d.beginUpload(ctx, r, media)
		return
	}

	if m.IsCommand() {
		cmd := m.Command()
		if cmd != "skip" {
			slot.Clear()
		}
		d.runCommand(ctx, r, cmd, m.CommandArguments())
		return
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	if cmd, ok := menuCommand(text); ok {
		slot.Clear()
		d.runCommand(ctx, r, cmd, "")
		return
	}

	switch {
	case slot.Upload() != nil:
		d.advanceUpload(ctx, r, upload.Input{Text: m.Text})
	case slot.Challenge() != nil:
		d.submitPassword(ctx, r, m.Text)
	case linkcodec.Decode(text).HasFile:
		d.resolve(ctx, r, text)
	default:
		d.reply(ctx, r.log, r.chatID, msgSendFileHint)
	}
}

// menuCommand maps a reply keyboard label to its command.
func menuCommand(text string) (string, bool) {
	switch {
	case text == btnUpload:
		return "upload", true
	case text == btnMyFiles:
		return "myfiles", true
	case text == btnFavorites:
		return "favorites", true
	case text == btnStats:
		return "stats", true
	case isNotificationsLabel(text):
		return "notifications", true
	case text == btnHelp:
		return "help", true
	}
	return "", false
}

// isNotificationsLabel matches the notifications button with or without its
// unread badge.
func isNotificationsLabel(text string) bool {
	if text == btnNotifications {
		return true
	}
	badge, ok := strings.CutPrefix(text, btnNotifications+" 🔔 ")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(badge)
	return err == nil && n > 0 && strconv.Itoa(n) == badge
}

func (d *Dispatcher) runCommand(ctx context.Context, r *request, cmd, args string) {
	r.log.Debug(ctx, "command", "command", cmd)

	switch cmd {
	case "start":
		d.resolve(ctx, r, args)
	case "upload":
		d.reply(ctx, r.log, r.chatID, msgSendFile)
	case "skip":
		if r.slot.Upload() == nil {
			d.reply(ctx, r.log, r.chatID, msgNothingToSkip)
			return
		}
		d.advanceUpload(ctx, r, upload.Input{Skip: true})
	case "cancel":
		d.reply(ctx, r.log, r.chatID, msgCancelled)
	case "myfiles":
		d.showMyFiles(ctx, r)
	case "favorites":
		d.showFavorites(ctx, r)
	case "stats":
		d.showStats(ctx, r)
	case "notifications":
		d.showNotifications(ctx, r)
	default:
		d.reply(ctx, r.log, r.chatID, helpText)
	}
}

func (d *Dispatcher) beginUpload(ctx context.Context, r *request, media upload.Media) {
	u := d.uploads.Begin(r.slot, media)
	r.log.Info(ctx, "upload started", "kind", string(u.Kind), "size", u.Size)
	d.reply(ctx, r.log, r.chatID, msgAskDescription)
}

func (d *Dispatcher) advanceUpload(ctx context.Context, r *request, in upload.Input) {
	res, err := d.uploads.Advance(ctx, r.slot, r.user, in)
	if err != nil {
		r.log.Error(ctx, "upload failed", "error", err)
		d.reply(ctx, r.log, r.chatID, msgLinkError)
		return
	}

	if !res.Committed {
		d.reply(ctx, r.log, r.chatID, msgAskPassword)
		return
	}

	d.reply(ctx, r.log, r.chatID, renderCommitted(res.File, r.user, res.Link),
		telegram.WithInlineKeyboard([]telegram.Button{
			{Text: btnShare, URL: shareURL(res.Link)},
			{Text: btnToFavorites, Data: favoriteData(res.File.ID)},
		}),
		telegram.WithoutPreview())
}

func (d *Dispatcher) resolve(ctx context.Context, r *request, raw string) {
	res, err := d.resolver.Resolve(ctx, r.slot, &r.user, raw)
	d.reportRetrieval(ctx, r, res, err)
}

func (d *Dispatcher) submitPassword(ctx context.Context, r *request, text string) {
	res, err := d.resolver.SubmitPassword(ctx, r.slot, &r.user, text)
	d.reportRetrieval(ctx, r, res, err)
}

func (d *Dispatcher) reportRetrieval(ctx context.Context, r *request, res *retrieval.Result, err error) {
	if err != nil {
		r.slot.Clear()
		r.log.Error(ctx, "retrieval failed", "error", err)
		if errors.Is(err, common.ErrDeliveryFailed) {
			d.reply(ctx, r.log, r.chatID, msgDeliveryFailed)
			return
		}
		d.reply(ctx, r.log, r.chatID, msgError)
		return
	}

	switch res.Outcome {
	case retrieval.OutcomeWelcome:
		d.showWelcome(ctx, r)
	case retrieval.OutcomeNotFound:
		d.reply(ctx, r.log, r.chatID, msgNotFound)
	case retrieval.OutcomeChallenge:
		d.reply(ctx, r.log, r.chatID, msgChallenge)
	case retrieval.OutcomeWrongPassword:
		d.reply(ctx, r.log, r.chatID, renderWrongPassword(res.AttemptsLeft))
	case retrieval.OutcomeTooManyAttempts:
		d.reply(ctx, r.log, r.chatID, msgTooManyAttempts)
	case retrieval.OutcomeDelivered:
		d.reply(ctx, r.log, r.chatID, msgDelivered,
			telegram.WithInlineKeyboard([]telegram.Button{
				{Text: btnUploadOwn, Data: common.CallbackUpload},
				{Text: btnAddFavorite, Data: favoriteData(res.File.ID)},
			}))
	}
}

func favoriteData(fileID int64) string {
	return common.CallbackFavoritePrefix + strconv.FormatInt(fileID, 10)
}

func (d *Dispatcher) showWelcome(ctx context.Context, r *request) {
	unread, err := d.records.UnreadNotifications(ctx, r.user.ID)
	if err != nil {
		r.log.Warn(ctx, "unread count failed", "error", err)
		unread = 0
	}
	d.reply(ctx, r.log, r.chatID, msgWelcome, telegram.WithReplyKeyboard(mainMenu(unread)...))
}

func (d *Dispatcher) showMyFiles(ctx context.Context, r *request) {
	files, err := d.records.RecentFiles(ctx, r.user.ID, d.recentLimit)
	if err != nil {
		r.log.Error(ctx, "recent files failed", "error", err)
		d.reply(ctx, r.log, r.chatID, msgError)
		return
	}
	if len(files) == 0 {
		d.reply(ctx, r.log, r.chatID, msgNoFiles)
		return
	}
	d.reply(ctx, r.log, r.chatID, renderMyFiles(files, d.botUsername), telegram.WithoutPreview())
}

func (d *Dispatcher) showFavorites(ctx context.Context, r *request) {
	favs, err := d.records.Favorites(ctx, r.user.ID, d.favoriteLimit)
	if err != nil {
		r.log.Error(ctx, "favorites failed", "error", err)
		d.reply(ctx, r.log, r.chatID, msgError)
		return
	}
	if len(favs) == 0 {
		d.reply(ctx, r.log, r.chatID, msgNoFavorites)
		return
	}
	d.reply(ctx, r.log, r.chatID, renderFavorites(favs, d.botUsername), telegram.WithoutPreview())
}

func (d *Dispatcher) showStats(ctx context.Context, r *request) {
	global, err := d.records.GlobalStats(ctx)
	if err != nil {
		r.log.Error(ctx, "global stats failed", "error", err)
		d.reply(ctx, r.log, r.chatID, msgError)
		return
	}

	user, err := d.records.UserStats(ctx, r.user.ID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			r.log.Warn(ctx, "user stats failed", "error", err)
		}
		user = nil
	}

	d.reply(ctx, r.log, r.chatID, renderStats(global, user))
}

// showNotifications lists up to 10 of the fetched notifications and marks
// them all as read.
func (d *Dispatcher) showNotifications(ctx context.Context, r *request) {
	list, err := d.records.Notifications(ctx, r.user.ID, d.notifLimit)
	if err != nil {
		r.log.Error(ctx, "notifications failed", "error", err)
		d.reply(ctx, r.log, r.chatID, msgError)
		return
	}
	if len(list) == 0 {
		d.reply(ctx, r.log, r.chatID, msgNoNotifications)
		return
	}
	if len(list) > common.NotificationsShown {
		list = list[:common.NotificationsShown]
	}

	d.reply(ctx, r.log, r.chatID, renderNotifications(list, d.now()),
		telegram.WithInlineKeyboard([]telegram.Button{{Text: btnClearAll, Data: common.CallbackClearNotifications}}))

	if err := d.records.MarkNotificationsRead(ctx, r.user.ID); err != nil {
		r.log.Warn(ctx, "mark notifications read failed", "error", err)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, log logging.Logger, q *tgbotapi.CallbackQuery) {
	user := profileOf(q.From)

	chatID := user.ID
	messageID := 0
	if q.Message != nil && q.Message.Chat != nil {
		chatID = q.Message.Chat.ID
		messageID = q.Message.MessageID
	}

	slot := d.sessions.Lock(chatID)
	defer slot.Unlock()

	r := &request{
		chatID: chatID,
		user:   user,
		slot:   slot,
		log:    log.With("chat_id", chatID, "callback", q.Data),
	}

	answer := func(text string) {
		if err := d.gw.AnswerCallback(ctx, q.ID, text); err != nil {
			r.log.Error(ctx, "answer callback failed", "error", err)
		}
	}

	switch {
	case q.Data == common.CallbackUpload:
		d.reply(ctx, r.log, chatID, msgSendFile)
		answer("")

	case strings.HasPrefix(q.Data, common.CallbackFavoritePrefix):
		fileID, err := strconv.ParseInt(strings.TrimPrefix(q.Data, common.CallbackFavoritePrefix), 10, 64)
		if err != nil {
			r.log.Warn(ctx, "malformed favorite callback")
			answer(cbError)
			return
		}
		added, err := d.records.AddFavorite(ctx, user.ID, fileID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			answer(cbFileNotFound)
		case err != nil:
			r.log.Error(ctx, "add favorite failed", "file_id", fileID, "error", err)
			answer(cbError)
		case added:
			answer(cbAdded)
		default:
			answer(cbAlreadyAdded)
		}

	case q.Data == common.CallbackClearNotifications:
		n, err := d.records.ClearNotifications(ctx, user.ID)
		if err != nil {
			r.log.Error(ctx, "clear notifications failed", "error", err)
			answer(cbError)
			return
		}
		r.log.Info(ctx, "notifications cleared", "count", n)
		answer(cbCleared)
		if messageID != 0 {
			if err := d.gw.EditText(ctx, chatID, messageID, msgNotificationsCleared); err != nil {
				r.log.Warn(ctx, "edit message failed", "error", err)
			}
		}

	default:
		answer("")
	}
}
