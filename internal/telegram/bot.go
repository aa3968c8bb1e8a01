// Package telegram delivers rendered digest chunks to a chat.
package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chunkPause spaces consecutive messages so a multi-chunk digest does
// not trip the bot API rate limit.
const chunkPause = time.Second

// Bot sends digest messages to a single chat.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewBot authenticates against the bot API.
func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

// Username reports the authenticated bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// SendDigest sends the chunks in order and returns how many were
// delivered. It stops at the first failure so callers can tell a partial
// digest from a complete one.
func (b *Bot) SendDigest(ctx context.Context, chunks []string) (int, error) {
	for i, chunk := range chunks {
		if i > 0 {
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-time.After(chunkPause):
			}
		}

		msg := tgbotapi.NewMessage(b.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := b.api.Send(msg); err != nil {
			return i, fmt.Errorf("send chunk %d of %d: %w", i+1, len(chunks), err)
		}
	}
	return len(chunks), nil
}
