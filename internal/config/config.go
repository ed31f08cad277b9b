package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// HTTP
	HTTPAddr        string   `env:"HTTP_ADDR" envDefault:":3001"`
	APIPrefix       string   `env:"API_PREFIX" envDefault:"/api"`
	FrontendOrigins []string `env:"FRONTEND_URL" envSeparator:"," envDefault:"http://localhost:5173"`
	TrustProxy      bool     `env:"TRUST_PROXY" envDefault:"false"`

	// LLM settings
	LLMProvider        LLMProvider   `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenAIModel        string        `env:"OPENAI_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterReferrer string        `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string        `env:"OPENROUTER_TITLE"`
	YandexOAuthToken   string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID     string        `env:"YANDEX_FOLDER_ID"`
	UpstreamTimeout    time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	// Assistant content
	SystemPromptPath  string `env:"SYSTEM_PROMPT_PATH"`
	CatalogPath       string `env:"CATALOG_PATH" envDefault:"data/catalog.json"`
	CannedRepliesPath string `env:"CANNED_REPLIES_PATH"`
	StoreName         string `env:"STORE_NAME" envDefault:"la tienda"`
	FallbackContact   string `env:"FALLBACK_CONTACT" envDefault:"WhatsApp"`

	// Throttling and sessions
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	RateLimitMax         int           `env:"RATE_LIMIT_MAX" envDefault:"20"`
	HistoryMaxTurns      int           `env:"HISTORY_MAX_TURNS" envDefault:"20"`
	SessionIdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"0s"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`

	// Storage
	TranscriptPath  string `env:"TRANSCRIPT_PATH" envDefault:"logs/chat.jsonl"`
	DailyReportCron string `env:"DAILY_REPORT_CRON" envDefault:"0 21 * * *"`

	// Optional Telegram channel
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.APIPrefix = "/" + strings.Trim(cfg.APIPrefix, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderYandex:
		if c.YandexOAuthToken == "" || c.YandexFolderID == "" {
			return errors.New("YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID are required for the yandex provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", c.RateLimitWindow)
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.HistoryMaxTurns <= 0 {
		return fmt.Errorf("HISTORY_MAX_TURNS must be positive, got %d", c.HistoryMaxTurns)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.UpstreamTimeout)
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must not be negative, got %s", c.SessionIdleTTL)
	}
	return nil
}
