package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-t string   Telegram bot token
//	-u string   bot username override
//	-d string   PostgreSQL DSN
//	-g string   gRPC health bind address
//	-a string   HTTP bind address
//	-w string   webhook URL (enables webhook mode)
//	-p int      long-polling timeout, seconds
//	-n int      concurrent update workers
//	-m int      wrong passwords allowed per challenge
//	-l string   log level
//
// Only these flags are considered; -c/-config and -env belong to other layers.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-t", "-u", "-d", "-g", "-a", "-w", "-p", "-n", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.BotToken, "t", config.BotToken, "telegram bot token")
	fs.StringVar(&config.BotUsername, "u", config.BotUsername, "bot username override")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.HealthAddrGRPC, "g", config.HealthAddrGRPC, "gRPC health address")
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "webhook URL")
	pollTimeout := fs.Int("p", int(config.PollTimeout.Seconds()), "long-polling timeout (in seconds)")
	fs.IntVar(&config.Workers, "n", config.Workers, "concurrent update workers")
	fs.IntVar(&config.MaxPasswordAttempts, "m", config.MaxPasswordAttempts, "password attempts per challenge")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollTimeout = time.Duration(*pollTimeout) * time.Second
}
