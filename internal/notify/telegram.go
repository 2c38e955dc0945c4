package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMonitor posts monitor messages to the ops chat, attaching the
// uploaded photo when one is available.
type TelegramMonitor struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramMonitor(token string, chatID int64) (*TelegramMonitor, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor bot: %w", err)
	}
	return &TelegramMonitor{bot: bot, chatID: chatID}, nil
}

func (m *TelegramMonitor) Handle(ctx context.Context, ev Event) error {
	msg, ok := ev.(MonitorMessage)
	if !ok {
		return nil
	}

	if msg.PhotoPath != "" {
		photo := tgbotapi.NewPhoto(m.chatID, tgbotapi.FilePath(msg.PhotoPath))
		photo.Caption = msg.Text
		_, err := m.bot.Send(photo)
		return err
	}
	_, err := m.bot.Send(tgbotapi.NewMessage(m.chatID, msg.Text))
	return err
}

// TelegramAnnouncer posts imported photos to the public channel.
type TelegramAnnouncer struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	photoURL string // base URL of the public photo host
}

func NewTelegramAnnouncer(token string, chatID int64, photoBaseURL string) (*TelegramAnnouncer, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create announcer bot: %w", err)
	}
	return &TelegramAnnouncer{bot: bot, chatID: chatID, photoURL: photoBaseURL}, nil
}

func (a *TelegramAnnouncer) Handle(ctx context.Context, ev Event) error {
	photo, ok := ev.(NewPhoto)
	if !ok {
		return nil
	}

	text := fmt.Sprintf("%s has a new photo by %s: %s%s",
		photo.Station.Title, photo.Photographer, a.photoURL, photo.PhotoURL)
	_, err := a.bot.Send(tgbotapi.NewMessage(a.chatID, text))
	return err
}
