package bot

import (
	"github.com/dmitrijs2005/linkdrop/internal/models"
	"github.com/dmitrijs2005/linkdrop/internal/upload"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// mediaOf extracts the uploadable artifact of m. Animations are checked before
// documents because Telegram fills both for a GIF. Photo, voice and GIF names
// are always generated.
func mediaOf(m *tgbotapi.Message) (upload.Media, bool) {
	switch {
	case len(m.Photo) > 0:
		p := m.Photo[len(m.Photo)-1]
		return upload.Media{FileRef: p.FileID, Size: int64(p.FileSize), Kind: models.MediaPhoto}, true
	case m.Animation != nil:
		return upload.Media{FileRef: m.Animation.FileID, Size: int64(m.Animation.FileSize), Kind: models.MediaGIF}, true
	case m.Video != nil:
		return upload.Media{FileRef: m.Video.FileID, Name: m.Video.FileName, Size: int64(m.Video.FileSize), Kind: models.MediaVideo}, true
	case m.Audio != nil:
		return upload.Media{FileRef: m.Audio.FileID, Name: m.Audio.FileName, Size: int64(m.Audio.FileSize), Kind: models.MediaAudio}, true
	case m.Voice != nil:
		return upload.Media{FileRef: m.Voice.FileID, Size: int64(m.Voice.FileSize), Kind: models.MediaVoice}, true
	case m.Document != nil:
		return upload.Media{FileRef: m.Document.FileID, Name: m.Document.FileName, Size: int64(m.Document.FileSize), Kind: models.MediaDocument}, true
	case m.VideoNote != nil:
		return upload.Media{FileRef: m.VideoNote.FileID, Size: int64(m.VideoNote.FileSize), Kind: models.MediaGeneric}, true
	default:
		return upload.Media{}, false
	}
}

func profileOf(u *tgbotapi.User) models.UserProfile {
	if u == nil {
		return models.UserProfile{}
	}
	return models.UserProfile{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
