package models

import (
	"fmt"
	"strings"
	"time"
)

// UserProfile is what the gateway tells us about a user. Names may be blank.
type UserProfile struct {
	ID        int64
	UserName  string
	FirstName string
	LastName  string
}

// DisplayName is "First Last", or User_<id> when both are blank.
func (p UserProfile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return fmt.Sprintf("User_%d", p.ID)
	}
	return name
}

// UserAggregate holds per-user running totals.
type UserAggregate struct {
	UserProfile
	CreatedAt       time.Time
	TotalUploads    int64
	TotalDownloads  int64
	UploadedBytes   int64
	DownloadedBytes int64
}

// GlobalStats aggregates across every record in the store.
type GlobalStats struct {
	TotalUsers      int64
	TotalFiles      int64
	TotalDownloads  int64
	UploadedBytes   int64
	DownloadedBytes int64
}
