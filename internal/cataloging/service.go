package cataloging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/gemini"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/ollama"
	"github.com/lehigh-university-libraries/imagemeta/internal/openai"
	"github.com/lehigh-university-libraries/imagemeta/internal/providers"
)

var (
	// ErrEmptyResponse is returned when the service answers with no text
	ErrEmptyResponse = errors.New("empty response from generation service")
	// ErrMalformedResponse matches every *MalformedResponseError
	ErrMalformedResponse = errors.New("malformed response from generation service")
)

// MalformedResponseError reports a response that is not a metadata JSON object
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedResponse, e.Err)
	}
	return ErrMalformedResponse.Error()
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// MetadataSchema is the structured output requested for every image
var MetadataSchema = &providers.Schema{
	Name:        "image_metadata",
	Description: "Stock metadata for one image",
	Properties: []providers.Property{
		{Name: "title", Description: "SEO-optimized title"},
		{Name: "keywords", Description: "Comma-separated keywords ordered by relevance"},
		{Name: "category", Description: "One category from the fixed list"},
	},
	Required: []string{"title", "keywords", "category"},
}

// ProviderConfig selects and configures the backing LLM provider
type ProviderConfig struct {
	Name          string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
}

// NewProvider builds the provider named in cfg
func NewProvider(cfg ProviderConfig) (providers.Provider, error) {
	switch strings.ToLower(cfg.Name) {
	case "", "gemini":
		return gemini.New(cfg.GeminiAPIKey), nil
	case "openai":
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case "ollama":
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}

// DefaultModel returns the model used for a provider when none is configured
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "gpt-4o"
	case "ollama":
		return "llava"
	default:
		return "gemini-2.5-flash"
	}
}

type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
}

func NewService(provider providers.Provider, model string, temperature float64) *Service {
	return &Service{
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.model
}

// GenerateMetadata sends the image and prompt to the provider and parses the structured answer
func (s *Service) GenerateMetadata(ctx context.Context, image models.UploadedImage, prompt string) (*models.Metadata, error) {
	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
		Image:       &image,
		Schema:      MetadataSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata: %w", err)
	}

	metadata, err := ParseMetadata(text)
	if err != nil {
		return nil, err
	}
	slog.Debug("Generated metadata", "model", s.model, "title", metadata.Title, "category", metadata.Category)
	return metadata, nil
}

// Translate runs a plain-text generation call with no image and no schema
func (s *Service) Translate(ctx context.Context, prompt string) (string, error) {
	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: s.temperature,
		Prompt:      prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	return text, nil
}

// ParseMetadata decodes the service answer into Metadata. All three keys must be present.
func ParseMetadata(text string) (*models.Metadata, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}

	var missing, notString []string
	for _, key := range MetadataSchema.Required {
		raw, ok := fields[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		if !isJSONString(raw) {
			notString = append(notString, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedResponseError{
			Raw: text,
			Err: fmt.Errorf("missing keys: %s", strings.Join(missing, ", ")),
		}
	}
	if len(notString) > 0 {
		return nil, &MalformedResponseError{
			Raw: text,
			Err: fmt.Errorf("keys must be strings: %s", strings.Join(notString, ", ")),
		}
	}

	var metadata models.Metadata
	if err := json.Unmarshal([]byte(text), &metadata); err != nil {
		return nil, &MalformedResponseError{Raw: text, Err: err}
	}
	return &metadata, nil
}

// isJSONString reports whether raw is a JSON string literal. null is rejected.
func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return false
	}
	var s string
	return json.Unmarshal(trimmed, &s) == nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
