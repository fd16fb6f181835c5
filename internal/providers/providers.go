package providers

import (
	"context"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

// Config represents the configuration for one LLM provider call
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	// Image is sent inline alongside the prompt when set
	Image *models.UploadedImage
	// Schema requests structured JSON output when set
	Schema *Schema
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// Schema is a minimal JSON schema for an object with string properties
type Schema struct {
	Name        string
	Properties  []Property
	Required    []string
	Description string
}

// Property is one string field of a Schema
type Property struct {
	Name        string
	Description string
}

// JSONSchema renders the schema in JSON Schema form for HTTP providers
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		prop := map[string]any{"type": "string"}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.Required,
		"additionalProperties": false,
	}
}
