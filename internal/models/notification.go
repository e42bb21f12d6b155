package models

import "time"

// Notification tells a file owner that someone downloaded their file.
type Notification struct {
	ID      int64
	OwnerID int64
	FileID  int64
	// FileName is joined from files when listing.
	FileName string
	// DownloaderID is zero when the downloader is unknown.
	DownloaderID   int64
	DownloaderName string
	CreatedAt      time.Time
	Read           bool
}
