// Package models defines the records persisted by the record store and the
// read models returned by its listing queries.
package models

import "time"

// MediaKind is the category of an uploaded artifact. It decides which send
// operation is used when the file is delivered.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
	MediaDocument MediaKind = "document"
	MediaGIF      MediaKind = "gif"
	MediaGeneric  MediaKind = "file"
)

// Extension is the file extension used when the gateway gives no file name.
func (k MediaKind) Extension() string {
	switch k {
	case MediaPhoto:
		return "jpg"
	case MediaVideo, MediaGIF:
		return "mp4"
	case MediaAudio:
		return "mp3"
	case MediaVoice:
		return "ogg"
	default:
		return "bin"
	}
}

// File is one uploaded, shareable artifact. Only the provider-side file
// reference is kept; the bytes stay with the messaging platform.
type File struct {
	// ID is assigned by the store on commit and never changes.
	ID int64
	// FileRef is the opaque provider token used to re-send the media.
	FileRef string
	Name    string
	Size    int64
	Kind    MediaKind

	OwnerID int64
	// OwnerName is joined from the owner's profile when reading; best effort.
	OwnerName string

	CreatedAt       time.Time
	DownloadCount   int64
	DownloadedBytes int64

	// Description and Password are absent when empty.
	Description string
	Password    string
	// Protected is true iff Password is non-empty.
	Protected bool
}

// NewFile builds an uncommitted record. Protected is derived from password.
func NewFile(fileRef, name string, size int64, kind MediaKind, ownerID int64, description, password string) *File {
	return &File{
		FileRef:     fileRef,
		Name:        name,
		Size:        size,
		Kind:        kind,
		OwnerID:     ownerID,
		Description: description,
		Password:    password,
		Protected:   password != "",
	}
}
