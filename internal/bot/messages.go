package bot

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/linkcodec"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dustin/go-humanize"
)

const separatorLine = "────────────────────"

// Reply keyboard labels. The notifications label may carry an unread badge.
const (
	btnUpload        = "📤 Upload file"
	btnMyFiles       = "📁 My files"
	btnFavorites     = "⭐ Favorites"
	btnStats         = "📊 Statistics"
	btnNotifications = "🔔 Notifications"
	btnHelp          = "❓ Help"
)

const msgWelcome = "👋 Welcome to the file exchange bot!\n\n" +
	"🤖 Share files instantly through Telegram\n\n" +
	"⚡ Just send me a file to get started!"

const (
	msgSendFile             = "📤 Send me a file to create a link"
	msgSendFileHint         = "🤖 Send me a file to get a link!"
	msgAskDescription       = "📝 Want to add a description?\n\nSend the description or /skip to skip it"
	msgAskPassword          = "🔒 Want to protect the file with a password?\n\nSend the password or /skip to skip it"
	msgNotFound             = "❌ File not found or was deleted"
	msgChallenge            = "🔒 This file is password protected\n\n📝 Enter the password:"
	msgTooManyAttempts      = "⛔ Too many wrong passwords. Open the link again to retry."
	msgDelivered            = "🎉 File downloaded!\n\nWant to upload your own file?"
	msgDeliveryFailed       = "❌ Could not send the file, it may no longer be available"
	msgNoFiles              = "📭 You have not uploaded any files yet"
	msgNoFavorites          = "⭐ You have no favorite files yet"
	msgNoNotifications      = "🔔 You have no notifications yet"
	msgNotificationsCleared = "🔔 Notifications cleared"
	msgCancelled            = "✖️ Cancelled"
	msgNothingToSkip        = "🤷 Nothing to skip right now"
	msgError                = "❌ Something went wrong, please try again"
	msgLinkError            = "❌ Could not create the link, please send the file again"
)

// Inline callback answers and inline button labels.
const (
	cbAdded        = "✅ Added to favorites!"
	cbAlreadyAdded = "⭐ Already in favorites"
	cbFileNotFound = "❌ File not found"
	cbCleared      = "✅ Notifications cleared"
	cbError        = "❌ Error"

	btnUploadOwn   = "📤 Upload your own file"
	btnAddFavorite = "⭐ Add to favorites"
	btnShare       = "📤 Share"
	btnToFavorites = "⭐ To favorites"
	btnClearAll    = "🗑 Clear all"
)

const helpText = "🤖 File exchange bot help\n\n" +
	"⚡ How to use it:\n" +
	"1. Send a file to the bot\n" +
	"2. Get a link\n" +
	"3. Forward the link to a friend\n" +
	"4. Your friend gets the file!\n\n" +
	"📋 Commands:\n" +
	"/upload - Upload a file\n" +
	"/myfiles - My files\n" +
	"/favorites - Favorites\n" +
	"/stats - Statistics\n" +
	"/notifications - Notifications\n" +
	"/cancel - Abort the current upload or password prompt\n" +
	"/help - Help"

func kindEmoji(k models.MediaKind) string {
	switch k {
	case models.MediaPhoto:
		return "📷"
	case models.MediaVideo:
		return "🎥"
	case models.MediaAudio:
		return "🎵"
	case models.MediaVoice:
		return "🎤"
	case models.MediaDocument:
		return "📄"
	default:
		return "📁"
	}
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func notificationsLabel(unread int64) string {
	if unread > 0 {
		return fmt.Sprintf("%s 🔔 %d", btnNotifications, unread)
	}
	return btnNotifications
}

func mainMenu(unread int64) [][]string {
	return [][]string{
		{btnUpload, btnMyFiles},
		{btnFavorites, btnStats},
		{notificationsLabel(unread), btnHelp},
	}
}

// shareURL opens Telegram's share sheet prefilled with link.
func shareURL(link string) string {
	return "https://t.me/share/url?url=" + url.QueryEscape(link)
}

func renderCommitted(f *models.File, uploader models.UserProfile, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Link created!\n\n", kindEmoji(f.Kind))
	fmt.Fprintf(&b, "📝 %s\n📊 %s\n👤 Uploaded by: %s\n", f.Name, size(f.Size), uploader.DisplayName())
	if f.Description != "" {
		fmt.Fprintf(&b, "📋 Description: %s\n", f.Description)
	}
	if f.Protected {
		b.WriteString("🔒 Password protected\n")
	}
	fmt.Fprintf(&b, "\n🔗 Your link:\n%s\n\n", link)
	if f.Protected {
		fmt.Fprintf(&b, "🔑 Password: %s\n\n", f.Password)
	}
	b.WriteString("📤 Just forward this link to a friend!\n\n")
	b.WriteString("💡 The file is sent as soon as the link is opened")
	return b.String()
}

// renderCaption is sent along with a delivered file. The record was read
// before this download was counted.
func renderCaption(f *models.File, botUsername string) string {
	owner := f.OwnerName
	if owner == "" {
		owner = "a user"
	}

	var b strings.Builder
	b.WriteString("📦 File received!\n\n")
	fmt.Fprintf(&b, "📝 %s\n📊 %s\n👤 Uploaded by: %s\n", f.Name, size(f.Size), owner)
	fmt.Fprintf(&b, "📥 Downloaded: %s times\n", humanize.Comma(f.DownloadCount+1))
	if f.Description != "" {
		fmt.Fprintf(&b, "📋 Description: %s\n", f.Description)
	}
	fmt.Fprintf(&b, "\n⚡ Downloaded via @%s", strings.TrimPrefix(botUsername, "@"))
	return b.String()
}

func renderWrongPassword(attemptsLeft int) string {
	return fmt.Sprintf("❌ Wrong password. Attempts left: %d. Try again:", attemptsLeft)
}

func renderMyFiles(files []*models.File, botUsername string) string {
	var b strings.Builder
	b.WriteString("📁 Your latest files:\n\n")
	for _, f := range files {
		lock := ""
		if f.Protected {
			lock = " 🔒"
		}
		fmt.Fprintf(&b, "%s%s %s\n", kindEmoji(f.Kind), lock, f.Name)
		fmt.Fprintf(&b, "📊 %s | 📥 %s downloads\n", size(f.Size), humanize.Comma(f.DownloadCount))
		fmt.Fprintf(&b, "🔗 %s\n%s\n", linkcodec.DeepLink(botUsername, f.ID, ""), separatorLine)
	}
	return b.String()
}

func renderFavorites(favs []*models.FavoriteFile, botUsername string) string {
	var b strings.Builder
	b.WriteString("⭐ Your favorites:\n\n")
	for _, f := range favs {
		fmt.Fprintf(&b, "%s %s\n📊 %s\n", kindEmoji(f.Kind), f.Name, size(f.Size))
		fmt.Fprintf(&b, "🔗 %s\n%s\n", linkcodec.DeepLink(botUsername, f.FileID, ""), separatorLine)
	}
	return b.String()
}

func renderNotifications(list []*models.Notification, now time.Time) string {
	var b strings.Builder
	b.WriteString("🔔 Latest notifications:\n\n")
	for _, n := range list {
		status := "🆕"
		if n.Read {
			status = "✅"
		}
		who := n.DownloaderName
		if who == "" {
			who = "someone"
		}
		fmt.Fprintf(&b, "%s %s\n👤 Downloaded by: %s\n⏰ %s\n%s\n",
			status, n.FileName, who, humanize.RelTime(n.CreatedAt, now, "ago", "from now"), separatorLine)
	}
	return b.String()
}

func renderStats(global *models.GlobalStats, user *models.UserAggregate) string {
	var b strings.Builder
	b.WriteString("🌐 Global statistics:\n\n")
	fmt.Fprintf(&b, "👥 Users: %s\n", humanize.Comma(global.TotalUsers))
	fmt.Fprintf(&b, "📁 Files: %s\n", humanize.Comma(global.TotalFiles))
	fmt.Fprintf(&b, "📥 Downloads: %s\n", humanize.Comma(global.TotalDownloads))
	fmt.Fprintf(&b, "📊 Uploaded: %s\n", size(global.UploadedBytes))
	fmt.Fprintf(&b, "📥 Downloaded: %s\n", size(global.DownloadedBytes))

	if user != nil {
		b.WriteString("\n👤 Your statistics:\n\n")
		fmt.Fprintf(&b, "📤 Files uploaded: %s\n", humanize.Comma(user.TotalUploads))
		fmt.Fprintf(&b, "📥 Files downloaded: %s\n", humanize.Comma(user.TotalDownloads))
		fmt.Fprintf(&b, "📊 Upload volume: %s\n", size(user.UploadedBytes))
		fmt.Fprintf(&b, "📥 Download volume: %s\n", size(user.DownloadedBytes))
	}
	return b.String()
}
