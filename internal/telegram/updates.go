package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Poller is the long-polling part of *tgbotapi.BotAPI.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poll starts long polling and returns the update channel. Polling stops when
// ctx is done; the returned channel is closed after that.
func Poll(ctx context.Context, p Poller, timeout time.Duration) <-chan tgbotapi.Update {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(timeout / time.Second)

	in := p.GetUpdatesChan(u)
	out := make(chan tgbotapi.Update)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				p.StopReceivingUpdates()
				return
			case upd, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- upd:
				case <-ctx.Done():
					p.StopReceivingUpdates()
					return
				}
			}
		}
	}()

	return out
}

// RegisterWebhook points the bot at url.
func RegisterWebhook(api API, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook must run before long polling when a webhook was ever set.
func DeleteWebhook(api API) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// ParseUpdate decodes a webhook request body.
func ParseUpdate(body []byte) (tgbotapi.Update, error) {
	var upd tgbotapi.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("decode update: %w", err)
	}
	return upd, nil
}
