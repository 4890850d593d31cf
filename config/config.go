// config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

type Config struct {
	Telegram struct {
		Token       string
		Mode        string // "poll" or "webhook"
		WebhookBase string // base URL, required in webhook mode
	}
	Server struct {
		Port string
	}
	Payment struct {
		ServerKey string // shared secret for the payment-provider callback; empty disables it
	}
	Speech struct {
		APIKey string // OpenAI key for voice reminders; empty disables them
		Voice  string
	}
	Data struct {
		File string // path of the JSON state document
	}
	ShutdownTimeout time.Duration
}

// Load reads config.yaml if present, otherwise falls back to environment
// variables (a .env file is honored either way).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.medibot")

	v.SetDefault("Telegram.Mode", ModeWebhook)
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Data.File", "data.json")
	v.SetDefault("Speech.Voice", "alloy")
	v.SetDefault("ShutdownTimeout", 10*time.Second)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// No config file: build everything from the environment.
		cfg := &Config{}
		cfg.Telegram.Token = os.Getenv("BOT_TOKEN")
		cfg.Telegram.Mode = getEnvOr("WEBHOOK_MODE", ModeWebhook)
		cfg.Telegram.WebhookBase = os.Getenv("WEBHOOK_URL_BASE")
		cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
		cfg.Payment.ServerKey = os.Getenv("PAYMENT_SERVER_KEY")
		cfg.Speech.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Speech.Voice = getEnvOr("SPEECH_VOICE", "alloy")
		cfg.Data.File = getEnvOr("DATA_FILE", "data.json")
		cfg.ShutdownTimeout = 10 * time.Second
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate enforces the startup requirements. Failures here are fatal.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is missing")
	}
	if c.Telegram.Mode != ModePoll && c.Telegram.Mode != ModeWebhook {
		return fmt.Errorf("unknown mode %q, want %q or %q", c.Telegram.Mode, ModePoll, ModeWebhook)
	}
	if c.Telegram.Mode == ModeWebhook && c.Telegram.WebhookBase == "" {
		return fmt.Errorf("WEBHOOK_URL_BASE is missing in webhook mode")
	}
	return nil
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
