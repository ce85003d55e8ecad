package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	LogLevel      string
	SlackWebhook  string
	StateFile     string
	ProgressEvery int
	ChunkSize     int
}

func Load() Config {
	return Config{
		Port:          envInt("WINNOW_PORT", 8760),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		SlackWebhook:  envStr("SLACK_WEBHOOK_URL", ""),
		StateFile:     envStr("WINNOW_STATE_FILE", "~/.winnow/state.json"),
		ProgressEvery: envInt("WINNOW_PROGRESS_EVERY", 1000),
		ChunkSize:     envInt("WINNOW_CHUNK_SIZE", 1000),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
