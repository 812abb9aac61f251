package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeoutSecs  int
	StorageDir      string
	CaseConfigDir   string
	CallSubject     string
	NotifySubject   string
}

func Load() Config {
	return Config{
		Port:            envInt("POSTCALL_PORT", 8780),
		NatsURL:         envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("POSTCALL_MODEL", "claude-sonnet-4-20250514"),
		LLMTimeoutSecs:  envInt("POSTCALL_LLM_TIMEOUT", 60),
		StorageDir:      envStr("POSTCALL_STORAGE_DIR", "prior_auth_records"),
		CaseConfigDir:   envStr("POSTCALL_CONFIG_DIR", "config"),
		CallSubject:     envStr("POSTCALL_CALL_SUBJECT", "rcm.call.completed"),
		NotifySubject:   envStr("POSTCALL_NOTIFY_SUBJECT", "rcm.postcall.record.finalized"),
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
