// Package server wires the bot process together: storage and migrations,
// the Telegram gateway, the update dispatcher, the gRPC health service and
// the HTTP endpoints. It runs them under one lifecycle and stops on
// SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/linkdrop/internal/bot"
	"github.com/dmitrijs2005/linkdrop/internal/config"
	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/repomanager"
	"github.com/dmitrijs2005/linkdrop/internal/server/web"
	"github.com/dmitrijs2005/linkdrop/internal/services"
	"github.com/dmitrijs2005/linkdrop/internal/session"
	"github.com/dmitrijs2005/linkdrop/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/linkdrop/internal/server/grpc"
)

var errNoToken = errors.New("bot token is not set")

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	api        *tgbotapi.BotAPI
	dispatcher *bot.Dispatcher
	health     *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.BotToken == "" {
		return nil, errNoToken
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(c.BotToken)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bot api init error: %w", err)
	}

	username := botUsername(c, api)
	logger.Info(ctx, "Authorized", "bot", username)

	d := bot.NewDispatcher(bot.Options{
		Gateway:             telegram.NewClient(api, logger),
		Records:             services.NewRecordService(db, rm),
		Sessions:            session.NewStore(),
		BotUsername:         username,
		Logger:              logger,
		Workers:             c.Workers,
		MaxPasswordAttempts: c.MaxPasswordAttempts,
		RecentFilesLimit:    c.RecentFilesLimit,
		NotificationsLimit:  c.NotificationsLimit,
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		api:        api,
		dispatcher: d,
		health:     gs.NewHealthServer(c.HealthAddrGRPC, logger),
	}, nil
}

// botUsername prefers the configured override over the name from getMe.
func botUsername(c *config.Config, api *tgbotapi.BotAPI) string {
	if c.BotUsername != "" {
		return c.BotUsername
	}
	if api == nil {
		return ""
	}
	return api.Self.UserName
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// updateSource registers the webhook or switches to long polling. The
// returned send channel is non-nil in webhook mode only.
func (app *App) updateSource(ctx context.Context) (<-chan tgbotapi.Update, chan<- tgbotapi.Update, error) {
	if app.config.WebhookMode() {
		if err := telegram.RegisterWebhook(app.api, app.config.WebhookURL); err != nil {
			return nil, nil, err
		}
		app.logger.Info(ctx, "Receiving updates via webhook", "url", app.config.WebhookURL)
		ch := make(chan tgbotapi.Update, app.config.Workers*4)
		return ch, ch, nil
	}

	if err := telegram.DeleteWebhook(app.api); err != nil {
		return nil, nil, err
	}
	app.logger.Info(ctx, "Receiving updates via long polling", "timeout", app.config.PollTimeout)
	return telegram.Poll(ctx, app.api, app.config.PollTimeout), nil, nil
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	updates, webhook, err := app.updateSource(gctx)
	if err != nil {
		return err
	}

	httpServer := web.NewServer(app.config.HTTPAddr, app.db, app.dispatcher, webhook, app.logger)

	g.Go(func() error {
		return app.health.Run(gctx)
	})
	g.Go(func() error {
		return httpServer.Run(gctx)
	})
	g.Go(func() error {
		return app.dispatcher.Serve(gctx, updates)
	})

	err = g.Wait()
	app.logger.Info(ctx, "App stopped", "open_sessions", app.dispatcher.OpenSessions())
	return err
}
