package notifier

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/tarvault/internal/config"
	"github.com/semmidev/tarvault/internal/domain"
)

// Telegram sends run outcomes to a chat. The bot is created on the first
// Notify, so an unreachable Bot API only fails notifications.
type Telegram struct {
	token    string
	endpoint string
	chatID   int64

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegram(cfg *config.TelegramConfig) (*Telegram, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Telegram{token: cfg.BotToken, endpoint: endpoint, chatID: chatID}, nil
}

func (t *Telegram) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot == nil {
		bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram bot: %w", err)
		}
		t.bot = bot
	}
	return t.bot, nil
}

func (t *Telegram) Notify(ctx context.Context, run domain.Run) error {
	bot, err := t.botAPI()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, Message(run))
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

// Message renders the notification text for run.
func Message(run domain.Run) string {
	if run.Err != nil {
		return fmt.Sprintf("❌ %s failed\n\n📁 Backup: %s\n⚠️ Error: %v", run.Command, run.BackupName, run.Err)
	}
	if run.Archive == "" {
		return fmt.Sprintf("✅ %s finished\n\n📁 Backup: %s\nNothing to do", run.Command, run.BackupName)
	}
	return fmt.Sprintf("✅ %s finished\n\n📁 Backup: %s\n📦 Archive: %s", run.Command, run.BackupName, run.Archive)
}
