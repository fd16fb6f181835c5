package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/imagemeta/internal/providers"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider. An empty apiKey falls back to GEMINI_API_KEY.
func New(apiKey string) *Gemini {
	return &Gemini{apiKey: apiKey}
}

// ExtractText sends the prompt, and the image when present, to Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := g.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.Schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toSchema(config.Schema)
	}

	parts, err := buildParts(config)
	if err != nil {
		return "", err
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", nil
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return text.String(), nil
}

func buildParts(config providers.Config) ([]genai.Part, error) {
	var parts []genai.Part
	if config.Image != nil {
		data, err := base64.StdEncoding.DecodeString(config.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image payload: %w", err)
		}
		parts = append(parts, genai.Blob{MIMEType: config.Image.MIMEType, Data: data})
	}
	return append(parts, genai.Text(config.Prompt)), nil
}

func toSchema(s *providers.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Properties))
	for _, p := range s.Properties {
		props[p.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: p.Description,
		}
	}
	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: s.Description,
		Properties:  props,
		Required:    s.Required,
	}
}
