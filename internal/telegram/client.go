package telegram

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/linkdrop/internal/logging"
	"github.com/dmitrijs2005/linkdrop/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of *tgbotapi.BotAPI used by Client.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client implements Gateway over the Bot API.
type Client struct {
	api API
	log logging.Logger
}

var _ Gateway = (*Client)(nil)

func NewClient(api API, log logging.Logger) *Client {
	return &Client{api: api, log: log.With("module", "telegram")}
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts ...SendOption) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var o SendOptions
	for _, opt := range opts {
		opt(&o)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = o.DisablePreview
	switch {
	case len(o.Inline) > 0:
		msg.ReplyMarkup = inlineMarkup(o.Inline)
	case len(o.Reply) > 0:
		msg.ReplyMarkup = replyMarkup(o.Reply)
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// SendMedia re-sends a stored file reference using the send call of kind.
// Animations and generic files go out as documents.
func (c *Client) SendMedia(ctx context.Context, chatID int64, kind models.MediaKind, fileRef, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := tgbotapi.FileID(fileRef)

	var msg tgbotapi.Chattable
	switch kind {
	case models.MediaPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = caption
		msg = m
	case models.MediaVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = caption
		msg = m
	case models.MediaAudio:
		m := tgbotapi.NewAudio(chatID, file)
		m.Caption = caption
		msg = m
	case models.MediaVoice:
		m := tgbotapi.NewVoice(chatID, file)
		m.Caption = caption
		msg = m
	default:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = caption
		msg = m
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", kind, err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, inline ...[]Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if len(inline) > 0 {
		markup := inlineMarkup(inline)
		edit.ReplyMarkup = &markup
	}

	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

func inlineMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func replyMarkup(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	out := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		out = append(out, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(out...)
	kb.ResizeKeyboard = true
	return kb
}
