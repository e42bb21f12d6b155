// Package telegram adapts the Telegram Bot API to the small gateway the bot
// talks to, and provides the update sources (long polling and webhook).
package telegram

import (
	"context"

	"github.com/dmitrijs2005/linkdrop/internal/models"
)

// Button is one inline keyboard button. Exactly one of Data and URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// SendOptions carries the optional markup of an outgoing text.
type SendOptions struct {
	Inline [][]Button
	Reply  [][]string
	// DisablePreview turns off link previews.
	DisablePreview bool
}

type SendOption func(*SendOptions)

func WithInlineKeyboard(rows ...[]Button) SendOption {
	return func(o *SendOptions) { o.Inline = rows }
}

func WithReplyKeyboard(rows ...[]string) SendOption {
	return func(o *SendOptions) { o.Reply = rows }
}

func WithoutPreview() SendOption {
	return func(o *SendOptions) { o.DisablePreview = true }
}

// Gateway is everything the bot needs from the messaging platform.
type Gateway interface {
	// SendText returns the id of the sent message.
	SendText(ctx context.Context, chatID int64, text string, opts ...SendOption) (int, error)
	SendMedia(ctx context.Context, chatID int64, kind models.MediaKind, fileRef, caption string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, inline ...[]Button) error
}
