package translation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

type fakeTranslator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeTranslator) Translate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func TestMaybeTranslate(t *testing.T) {
	ruToEn := models.Languages{Interface: "ru", Metadata: "en"}
	enToEn := models.Languages{Interface: "en", Metadata: "en"}

	tests := []struct {
		name          string
		keyword       string
		langs         models.Languages
		response      string
		err           error
		expected      string
		expectedCalls int
	}{
		{
			name:          "same language is identity on trimmed keyword",
			keyword:       "  sunset ",
			langs:         enToEn,
			expected:      "sunset",
			expectedCalls: 0,
		},
		{
			name:          "blank keyword makes no call",
			keyword:       "   ",
			langs:         ruToEn,
			expected:      "",
			expectedCalls: 0,
		},
		{
			name:          "strips surrounding quotes",
			keyword:       "собака",
			langs:         ruToEn,
			response:      `"dog"`,
			expected:      "dog",
			expectedCalls: 1,
		},
		{
			name:          "strips only one pair of quotes",
			keyword:       "цитата",
			langs:         ruToEn,
			response:      `""quote""`,
			expected:      `"quote"`,
			expectedCalls: 1,
		},
		{
			name:          "keeps spaces inside quotes",
			keyword:       "собака",
			langs:         ruToEn,
			response:      `" dog "`,
			expected:      " dog ",
			expectedCalls: 1,
		},
		{
			name:          "error falls back to original",
			keyword:       " кошка ",
			langs:         ruToEn,
			err:           errors.New("quota exceeded"),
			expected:      "кошка",
			expectedCalls: 1,
		},
		{
			name:          "empty answer falls back to original",
			keyword:       "кошка",
			langs:         ruToEn,
			response:      "  ",
			expected:      "кошка",
			expectedCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator := &fakeTranslator{response: tt.response, err: tt.err}
			g := NewGate(translator)

			got := g.MaybeTranslate(context.Background(), tt.keyword, tt.langs)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
			if len(translator.prompts) != tt.expectedCalls {
				t.Errorf("Expected %d calls, got %d", tt.expectedCalls, len(translator.prompts))
			}
		})
	}
}

func TestTranslateResult(t *testing.T) {
	failure := errors.New("boom")
	g := NewGate(&fakeTranslator{err: failure})
	res := g.Translate(context.Background(), "собака", models.Languages{Interface: "ru", Metadata: "en"})
	if res.Translated || !errors.Is(res.Err, failure) || res.Text != "собака" {
		t.Errorf("Unexpected fallback result: %+v", res)
	}

	translator := &fakeTranslator{response: "dog"}
	res = NewGate(translator).Translate(context.Background(), "собака", models.Languages{Interface: "ru", Metadata: "en"})
	if !res.Translated || res.Err != nil || res.Text != "dog" {
		t.Errorf("Unexpected success result: %+v", res)
	}
	if !strings.Contains(translator.prompts[0], "from Русский to English") || !strings.Contains(translator.prompts[0], `"собака"`) {
		t.Errorf("Unexpected translation prompt: %s", translator.prompts[0])
	}
}
