package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"

	"github.com/aatumaykin/taskmill/internal/redact"
	"github.com/aatumaykin/taskmill/internal/runlog"
)

// statusIcons give run outcomes a glanceable marker in chat.
var statusIcons = map[runlog.Status]string{
	runlog.StatusSuccess:        "✅",
	runlog.StatusFailed:         "❌",
	runlog.StatusTimedOut:       "⏰",
	runlog.StatusSkippedOverlap: "⏭",
}

// Telegram sends run summaries to a telegram chat.
type Telegram struct {
	bot      *telego.Bot
	chatID   int64
	redactor *redact.Redactor
}

// NewTelegram connects the bot and builds a telegram sink.
func NewTelegram(token string, chatID int64, redactor *redact.Redactor) (*Telegram, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat_id is required")
	}
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, redactor: redactor}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, rec runlog.Record) error {
	payload := NewPayload(rec, t.redactor)

	icon := statusIcons[rec.Status]
	text := fmt.Sprintf("%s %s: %s\nstarted %s, took %dms, attempt(s) %d",
		icon, payload.JobName, payload.Status, payload.StartedAt, payload.DurationMs, payload.AttemptCount)
	if payload.ErrorMessage != "" {
		text += "\n" + payload.ErrorMessage
	}

	_, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: t.chatID},
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
