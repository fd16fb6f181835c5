package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/cataloging"
	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

// Config is the runtime configuration read from the environment
type Config struct {
	Provider       string
	Model          string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OllamaURL      string
	Temperature    float64
	RequestTimeout time.Duration
	RateInterval   time.Duration
	SessionTTL     time.Duration
	RedisURL       string
	Languages      models.Languages
	Port           string
}

// Load reads the environment, falling back to defaults for anything unset or invalid
func Load() Config {
	provider := getenv("METADATA_PROVIDER", "gemini")

	var model string
	switch provider {
	case "openai":
		model = os.Getenv("OPENAI_MODEL")
	case "ollama":
		model = os.Getenv("OLLAMA_MODEL")
	default:
		model = os.Getenv("GEMINI_MODEL")
	}
	if model == "" {
		model = cataloging.DefaultModel(provider)
	}

	ollamaURL := os.Getenv("OLLAMA_URL")
	if ollamaURL == "" {
		ollamaURL = os.Getenv("OLLAMA_HOST")
	}

	return Config{
		Provider:       provider,
		Model:          model,
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		OllamaURL:      ollamaURL,
		Temperature:    getFloat("METADATA_TEMPERATURE", 0.4),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 2*time.Minute),
		RateInterval:   getDuration("RATE_INTERVAL", 0),
		SessionTTL:     getDuration("SESSION_TTL", 2*time.Hour),
		RedisURL:       os.Getenv("REDIS_URL"),
		Languages: models.Languages{
			Interface: languages.OrDefault(os.Getenv("UI_LANGUAGE")),
			Metadata:  languages.OrDefault(os.Getenv("METADATA_LANGUAGE")),
		},
		Port: getenv("PORT", "8888"),
	}
}

// ProviderConfig returns the provider selection for cataloging.NewProvider
func (c Config) ProviderConfig() cataloging.ProviderConfig {
	return cataloging.ProviderConfig{
		Name:          c.Provider,
		GeminiAPIKey:  c.GeminiAPIKey,
		OpenAIAPIKey:  c.OpenAIAPIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		OllamaURL:     c.OllamaURL,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Invalid number in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("Invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
