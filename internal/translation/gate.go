package translation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/prompts"
)

// ErrEmptyTranslation is recorded when the service answers with blank text
var ErrEmptyTranslation = errors.New("empty translation")

// Translator runs a plain-text generation call
type Translator interface {
	Translate(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of one keyword translation.
// Text is always usable: on failure it holds the original trimmed keyword.
type Result struct {
	Text       string
	Translated bool
	Err        error
}

// Gate converts user keywords from the interface language to the metadata language
type Gate struct {
	translator Translator
}

func NewGate(translator Translator) *Gate {
	return &Gate{translator: translator}
}

// MaybeTranslate returns the keyword in the metadata language, or the original keyword
// when no translation is needed or the translation call fails.
func (g *Gate) MaybeTranslate(ctx context.Context, keyword string, langs models.Languages) string {
	return g.Translate(ctx, keyword, langs).Text
}

// Translate is MaybeTranslate with the fallback made visible
func (g *Gate) Translate(ctx context.Context, keyword string, langs models.Languages) Result {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || !langs.NeedsTranslation() {
		return Result{Text: keyword}
	}

	prompt := prompts.Translation(keyword, langs.Interface, langs.Metadata)
	text, err := g.translator.Translate(ctx, prompt)
	if err != nil {
		slog.Warn("Keyword translation failed, using original", "keyword", keyword, "from", langs.Interface, "to", langs.Metadata, "err", err)
		return Result{Text: keyword, Err: err}
	}

	text = stripQuotes(strings.TrimSpace(text))
	if text == "" {
		slog.Warn("Keyword translation was empty, using original", "keyword", keyword)
		return Result{Text: keyword, Err: ErrEmptyTranslation}
	}

	slog.Info("Translated keyword", "keyword", keyword, "translation", text, "from", langs.Interface, "to", langs.Metadata)
	return Result{Text: text, Translated: true}
}

// stripQuotes removes at most one leading and one trailing double quote
func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
