package common

// Inline callback payloads exchanged with the messaging gateway.
const (
	CallbackUpload             = "upload"
	CallbackFavoritePrefix     = "fav_"
	CallbackClearNotifications = "clear_notif"
)

// Default list bounds used by the listing screens.
const (
	DefaultRecentFilesLimit   = 10
	DefaultNotificationsLimit = 20
)

// NotificationsShown is how many of the fetched notifications are rendered.
const NotificationsShown = 10
