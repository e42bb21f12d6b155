// Package web serves the HTTP side of the bot: a banner, liveness and
// readiness probes, and the Telegram webhook.
package web

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/telegram"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	banner = "linkdrop bot is running"

	pingTimeout    = 2 * time.Second
	enqueueTimeout = 5 * time.Second
	shutdownGrace  = 5 * time.Second
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SessionCounter reports chats with an open conversation.
type SessionCounter interface {
	OpenSessions() int
}

type Server struct {
	app      *fiber.App
	addr     string
	db       Pinger
	sessions SessionCounter
	updates  chan<- tgbotapi.Update
	logger   logging.Logger
}

// NewServer registers the routes. POST /webhook exists only when updates is
// non-nil.
func NewServer(addr string, db Pinger, sessions SessionCounter, updates chan<- tgbotapi.Update, l logging.Logger) *Server {
	s := &Server{
		addr:     addr,
		db:       db,
		sessions: sessions,
		updates:  updates,
		logger:   l.With("module", "http_server"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "linkdrop",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())

	s.app.Get("/", s.handleBanner)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/ping", s.handlePing)
	if updates != nil {
		s.app.Post("/webhook", s.handleWebhook)
	}

	return s
}

// Run listens until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleBanner(c *fiber.Ctx) error {
	return c.SendString(banner)
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  "database unreachable",
		})
	}

	open := 0
	if s.sessions != nil {
		open = s.sessions.OpenSessions()
	}
	return c.JSON(fiber.Map{
		"status":        "ok",
		"open_sessions": open,
	})
}

// handleWebhook answers 503 when the dispatcher falls behind so Telegram
// redelivers the update later.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	upd, err := telegram.ParseUpdate(c.Body())
	if err != nil {
		s.logger.Warn(c.UserContext(), "bad webhook payload", "error", err)
		return fiber.NewError(fiber.StatusBadRequest, "invalid update")
	}

	select {
	case s.updates <- upd:
		return c.SendStatus(fiber.StatusOK)
	case <-time.After(enqueueTimeout):
		s.logger.Warn(c.UserContext(), "webhook queue full", "update_id", upd.UpdateID)
		return fiber.NewError(fiber.StatusServiceUnavailable, "busy")
	}
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
