package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/providers"
)

func TestExtractText(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"{\"title\":\"Cat\"}"}`))
	}))
	defer server.Close()

	out, err := New(server.URL).ExtractText(context.Background(), providers.Config{
		Model:  "llava",
		Prompt: "describe",
		Image:  &models.UploadedImage{MIMEType: "image/png", Data: "cGl4"},
		Schema: &providers.Schema{Properties: []providers.Property{{Name: "title"}}, Required: []string{"title"}},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != `{"title":"Cat"}` {
		t.Errorf("Unexpected response %q", out)
	}

	images, ok := received["images"].([]any)
	if !ok || len(images) != 1 || images[0] != "cGl4" {
		t.Errorf("Expected base64 image in request, got %v", received["images"])
	}
	format, ok := received["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Errorf("Expected schema format, got %v", received["format"])
	}
	if received["stream"] != false {
		t.Error("Expected streaming to be disabled")
	}
}

func TestNewFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434/")

	o := New("")
	if o.baseURL != "http://ollama.internal:11434" {
		t.Errorf("Expected OLLAMA_HOST fallback, got %s", o.baseURL)
	}
}
