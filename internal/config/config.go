package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	NewsProviderNewsAPI = "newsapi"
	NewsProviderGNews   = "gnews"
	NewsProviderRSS     = "rss"

	SummarizerProviderAnthropic = "anthropic"
	SummarizerProviderOpenAI    = "openai"
)

//nolint:gochecknoglobals // Immutable set of known placeholder values.
var placeholderCredentials = []string{
	"YOUR_API_KEY_HERE",
	"YOUR_API_KEY",
	"YOUR_NEWSAPI_KEY",
	"REPLACE_ME",
	"CHANGEME",
}

type Config struct {
	NewsProvider    string `env:"NEWS_PROVIDER"     envDefault:"newsapi"`
	NewsAPIKey      string `env:"NEWS_API_KEY"`
	NewsAPIEndpoint string `env:"NEWS_API_ENDPOINT"`
	NewsCountry     string `env:"NEWS_COUNTRY"      envDefault:"us"`
	NewsPageSize    int    `env:"NEWS_PAGE_SIZE"    envDefault:"12"`
	DefaultCategory string `env:"DEFAULT_CATEGORY"  envDefault:"general"`

	SummarizerProvider string `env:"SUMMARIZER_PROVIDER" envDefault:"anthropic"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel     string `env:"ANTHROPIC_MODEL"     envDefault:"claude-sonnet-4-20250514"`
	AnthropicBaseURL   string `env:"ANTHROPIC_BASE_URL"`
	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	SummaryMaxTokens   int64  `env:"SUMMARY_MAX_TOKENS"  envDefault:"150"`

	HTTPAddr        string  `env:"HTTP_ADDR"         envDefault:":8080"`
	Token           string  `env:"TOKEN"`
	AllowedUsers    []int64 `env:"ALLOWED_USERS"`
	DBPath          string  `env:"DB_PATH"           envDefault:"db.sqlite"`
	DigestSpec      string  `env:"DIGEST_SPEC"       envDefault:"0 8 * * *"`
	AutoRefreshSpec string  `env:"AUTO_REFRESH_SPEC"`
	LogLevel        string  `env:"LOG_LEVEL"         envDefault:"info"`
}

// Load reads an optional .env file and then parses the environment.
// A missing .env file is not an error.
func Load(envFiles ...string) (Config, bool, error) {
	dotenvLoaded := godotenv.Load(envFiles...) == nil

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, dotenvLoaded, fmt.Errorf("parse env: %w", err)
	}

	cfg.NewsProvider = strings.ToLower(strings.TrimSpace(cfg.NewsProvider))
	cfg.SummarizerProvider = strings.ToLower(strings.TrimSpace(cfg.SummarizerProvider))
	cfg.DefaultCategory = strings.ToLower(strings.TrimSpace(cfg.DefaultCategory))

	if err := cfg.validate(); err != nil {
		return Config{}, dotenvLoaded, err
	}

	return cfg, dotenvLoaded, nil
}

func (c Config) validate() error {
	switch c.NewsProvider {
	case NewsProviderNewsAPI, NewsProviderGNews, NewsProviderRSS:
	default:
		return fmt.Errorf("NEWS_PROVIDER must be one of newsapi, gnews, rss (got %q)", c.NewsProvider)
	}

	switch c.SummarizerProvider {
	case SummarizerProviderAnthropic, SummarizerProviderOpenAI:
	default:
		return fmt.Errorf("SUMMARIZER_PROVIDER must be anthropic or openai (got %q)", c.SummarizerProvider)
	}

	if c.NewsPageSize <= 0 {
		return fmt.Errorf("NEWS_PAGE_SIZE must be positive (got %d)", c.NewsPageSize)
	}

	if c.NewsProvider == NewsProviderRSS && strings.TrimSpace(c.NewsAPIEndpoint) == "" {
		return errors.New("NEWS_API_ENDPOINT is required for the rss provider")
	}

	return nil
}

// IsConfigured reports whether a credential is present and is not one of
// the well-known placeholder values.
func IsConfigured(credential string) bool {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return false
	}

	for _, placeholder := range placeholderCredentials {
		if strings.EqualFold(credential, placeholder) {
			return false
		}
	}

	return true
}
