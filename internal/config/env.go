package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names. PORT is honoured for hosting platforms that
// inject the listening port.
const (
	EnvBotToken            = "LINKDROP_BOT_TOKEN"
	EnvBotUsername         = "LINKDROP_BOT_USERNAME"
	EnvDatabaseDSN         = "LINKDROP_DATABASE_DSN"
	EnvHealthAddrGRPC      = "LINKDROP_GRPC_ADDR"
	EnvHTTPAddr            = "LINKDROP_HTTP_ADDR"
	EnvPort                = "PORT"
	EnvWebhookURL          = "LINKDROP_WEBHOOK_URL"
	EnvPollTimeout         = "LINKDROP_POLL_TIMEOUT"
	EnvWorkers             = "LINKDROP_WORKERS"
	EnvMaxPasswordAttempts = "LINKDROP_PASSWORD_ATTEMPTS"
	EnvLogLevel            = "LINKDROP_LOG_LEVEL"
)

// loadDotEnv seeds the process environment from the file named by -env, or
// from ./.env when present. Variables already set are not overridden.
func loadDotEnv() error {
	path := flagx.EnvFilePath()
	if path == "" {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// parseEnv overlays Config with non-empty environment variables.
// A malformed .env file or a malformed numeric value panics, like the other
// configuration layers.
func parseEnv(config *Config) {
	if err := loadDotEnv(); err != nil {
		panic(err)
	}

	setString(&config.BotToken, EnvBotToken)
	setString(&config.BotUsername, EnvBotUsername)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.HealthAddrGRPC, EnvHealthAddrGRPC)
	if port := os.Getenv(EnvPort); port != "" {
		config.HTTPAddr = ":" + port
	}
	setString(&config.HTTPAddr, EnvHTTPAddr)
	setString(&config.WebhookURL, EnvWebhookURL)
	setString(&config.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvPollTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.PollTimeout = d
	}
	setInt(&config.Workers, EnvWorkers)
	setInt(&config.MaxPasswordAttempts, EnvMaxPasswordAttempts)
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}
