package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFile_ProtectedFollowsPassword(t *testing.T) {
	open := NewFile("ref", "a.txt", 10, MediaDocument, 1, "", "")
	assert.False(t, open.Protected)
	assert.Empty(t, open.Password)

	locked := NewFile("ref", "a.txt", 10, MediaDocument, 1, "notes", "secret1")
	assert.True(t, locked.Protected)
	assert.Equal(t, "secret1", locked.Password)
	assert.Equal(t, "notes", locked.Description)
	assert.Zero(t, locked.ID)
	assert.Zero(t, locked.DownloadCount)
}

func TestMediaKind_Extension(t *testing.T) {
	tests := map[MediaKind]string{
		MediaPhoto:    "jpg",
		MediaVideo:    "mp4",
		MediaGIF:      "mp4",
		MediaAudio:    "mp3",
		MediaVoice:    "ogg",
		MediaDocument: "bin",
		MediaGeneric:  "bin",
	}
	for kind, ext := range tests {
		assert.Equal(t, ext, kind.Extension(), string(kind))
	}
}

func TestUserProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann Lee", UserProfile{ID: 1, FirstName: "Ann", LastName: "Lee"}.DisplayName())
	assert.Equal(t, "Ann", UserProfile{ID: 1, FirstName: "Ann"}.DisplayName())
	assert.Equal(t, "User_42", UserProfile{ID: 42}.DisplayName())
}
