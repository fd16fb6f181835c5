package cataloging

import (
	"context"
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/providers"
)

type fakeProvider struct {
	response string
	err      error
	calls    []providers.Config
}

func (f *fakeProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	f.calls = append(f.calls, config)
	return f.response, f.err
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		expected  *models.Metadata
		expectErr error
	}{
		{
			name:     "valid object",
			text:     `{"title":"A","keywords":"a, b, c","category":"Animals"}`,
			expected: &models.Metadata{Title: "A", Keywords: "a, b, c", Category: "Animals"},
		},
		{
			name:     "fenced object",
			text:     "```json\n{\"title\":\"Cat\",\"keywords\":\"cat\",\"category\":\"Animals\"}\n```",
			expected: &models.Metadata{Title: "Cat", Keywords: "cat", Category: "Animals"},
		},
		{
			name:      "empty",
			text:      "   ",
			expectErr: ErrEmptyResponse,
		},
		{
			name:      "not json",
			text:      "Here is your metadata: a cat",
			expectErr: ErrMalformedResponse,
		},
		{
			name:      "missing category",
			text:      `{"title":"A","keywords":"a"}`,
			expectErr: ErrMalformedResponse,
		},
		{
			name:      "null values",
			text:      `{"title":null,"keywords":null,"category":null}`,
			expectErr: ErrMalformedResponse,
		},
		{
			name:      "non-string keywords",
			text:      `{"title":"A","keywords":["a","b"],"category":"Animals"}`,
			expectErr: ErrMalformedResponse,
		},
		{
			name:      "numeric title",
			text:      `{"title":42,"keywords":"a","category":"Animals"}`,
			expectErr: ErrMalformedResponse,
		},
		{
			name:      "array instead of object",
			text:      `["A","a","Animals"]`,
			expectErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMetadata(tt.text)
			if tt.expectErr != nil {
				if !errors.Is(err, tt.expectErr) {
					t.Fatalf("Expected %v, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if *got != *tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestMalformedResponseKeepsRaw(t *testing.T) {
	_, err := ParseMetadata(`{"title":"A"}`)
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected *MalformedResponseError, got %T", err)
	}
	if malformed.Raw != `{"title":"A"}` {
		t.Errorf("Expected raw text to be kept, got %q", malformed.Raw)
	}
}

func TestGenerateMetadataSendsImageAndSchema(t *testing.T) {
	provider := &fakeProvider{response: `{"title":"Dog","keywords":"dog, pet","category":"Animals"}`}
	s := NewService(provider, "test-model", 0.4)

	image := models.UploadedImage{MIMEType: "image/png", Data: "QUJD"}
	metadata, err := s.GenerateMetadata(context.Background(), image, "describe it")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if metadata.Title != "Dog" {
		t.Errorf("Expected title Dog, got %s", metadata.Title)
	}

	if len(provider.calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(provider.calls))
	}
	call := provider.calls[0]
	if s.Model() != "test-model" {
		t.Errorf("Expected model test-model, got %s", s.Model())
	}
	if call.Model != "test-model" || call.Prompt != "describe it" || call.Temperature != 0.4 {
		t.Errorf("Unexpected call config: %+v", call)
	}
	if call.Image == nil || *call.Image != image {
		t.Errorf("Expected image to be sent inline, got %+v", call.Image)
	}
	if call.Schema != MetadataSchema {
		t.Error("Expected metadata schema to be requested")
	}
}

func TestGenerateMetadataErrors(t *testing.T) {
	transport := errors.New("connection refused")
	s := NewService(&fakeProvider{err: transport}, "m", 0)
	if _, err := s.GenerateMetadata(context.Background(), models.UploadedImage{}, "p"); !errors.Is(err, transport) {
		t.Errorf("Expected wrapped transport error, got %v", err)
	}

	s = NewService(&fakeProvider{response: ""}, "m", 0)
	if _, err := s.GenerateMetadata(context.Background(), models.UploadedImage{}, "p"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestTranslateIsPlainText(t *testing.T) {
	provider := &fakeProvider{response: "dog"}
	s := NewService(provider, "m", 0)

	out, err := s.Translate(context.Background(), "translate собака")
	if err != nil || out != "dog" {
		t.Fatalf("Expected dog, got %q (%v)", out, err)
	}
	if provider.calls[0].Image != nil || provider.calls[0].Schema != nil {
		t.Error("Expected translation call without image or schema")
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"", "gemini", "openai", "Ollama"} {
		if _, err := NewProvider(ProviderConfig{Name: name}); err != nil {
			t.Errorf("Expected provider %q to be supported, got %v", name, err)
		}
	}
	if _, err := NewProvider(ProviderConfig{Name: "claude-on-a-toaster"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
