package models

import "time"

// FavoriteFile is a favorite edge joined with the file it points to.
type FavoriteFile struct {
	UserID  int64
	FileID  int64
	Name    string
	Size    int64
	Kind    MediaKind
	AddedAt time.Time
}
