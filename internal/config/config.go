package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server    ServerConfig
	DB        DatabaseConfig
	Photos    PhotoConfig
	Notify    NotifyConfig
	Logging   LoggingConfig
	RateLimit int
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type PhotoConfig struct {
	Dir          string
	MaxSize      int64  // bytes
	InboxBaseURL string // public URL of the inbox photo area
	PhotoBaseURL string // public URL of the imported photo host
}

type NotifyConfig struct {
	WorkerCount     int
	BufferSize      int
	TelegramEnabled bool
	TelegramToken   string
	MonitorChatID   int64
	ChannelChatID   int64
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/inbox.db"),
		},
		Photos: PhotoConfig{
			Dir:          getEnv("PHOTO_DIR", "./data/photos"),
			MaxSize:      getEnvInt64("MAX_PHOTO_SIZE", 20*1024*1024),
			InboxBaseURL: getEnv("INBOX_BASE_URL", "https://api.railway-stations.org/inbox"),
			PhotoBaseURL: getEnv("PHOTO_BASE_URL", "https://api.railway-stations.org/photos"),
		},
		Notify: NotifyConfig{
			WorkerCount:     getEnvInt("NOTIFY_WORKER_COUNT", 2),
			BufferSize:      getEnvInt("NOTIFY_BUFFER_SIZE", 50),
			TelegramEnabled: getEnvBool("TELEGRAM_ENABLED", false),
			TelegramToken:   getEnv("TELEGRAM_TOKEN", ""),
			MonitorChatID:   getEnvInt64("TELEGRAM_MONITOR_CHAT_ID", 0),
			ChannelChatID:   getEnvInt64("TELEGRAM_CHANNEL_CHAT_ID", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: getEnvInt("RATE_LIMIT_RPS", 10),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Photos.MaxSize < 1 {
		return fmt.Errorf("max photo size must be positive")
	}
	if c.Notify.TelegramEnabled && c.Notify.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required when telegram is enabled")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
