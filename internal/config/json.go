package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/linkdrop/internal/flagx"
	"github.com/dmitrijs2005/linkdrop/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations are
// timex.Duration so both "60s" and integer nanoseconds are accepted.
type JsonConfig struct {
	BotToken            string         `json:"bot_token"`
	BotUsername         string         `json:"bot_username"`
	DatabaseDSN         string         `json:"database_dsn"`
	HealthAddrGRPC      string         `json:"grpc_addr"`
	HTTPAddr            string         `json:"http_addr"`
	WebhookURL          string         `json:"webhook_url"`
	PollTimeout         timex.Duration `json:"poll_timeout"`
	Workers             int            `json:"workers"`
	MaxPasswordAttempts int            `json:"password_attempts"`
	RecentFilesLimit    int            `json:"recent_files_limit"`
	NotificationsLimit  int            `json:"notifications_limit"`
	LogLevel            string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field it sets into config. Fields missing from the file keep the values
// from earlier layers. An unreadable or invalid file panics.
func parseJson(config *Config) {
	path := flagx.JSONConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlayString(&config.BotToken, c.BotToken)
	overlayString(&config.BotUsername, c.BotUsername)
	overlayString(&config.DatabaseDSN, c.DatabaseDSN)
	overlayString(&config.HealthAddrGRPC, c.HealthAddrGRPC)
	overlayString(&config.HTTPAddr, c.HTTPAddr)
	overlayString(&config.WebhookURL, c.WebhookURL)
	overlayString(&config.LogLevel, c.LogLevel)
	if c.PollTimeout.Duration > 0 {
		config.PollTimeout = c.PollTimeout.Duration
	}
	overlayInt(&config.Workers, c.Workers)
	overlayInt(&config.MaxPasswordAttempts, c.MaxPasswordAttempts)
	overlayInt(&config.RecentFilesLimit, c.RecentFilesLimit)
	overlayInt(&config.NotificationsLimit, c.NotificationsLimit)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}
