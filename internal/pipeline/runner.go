package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/images"
	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/prompts"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
	"golang.org/x/time/rate"
)

// Generator produces metadata for one image
type Generator interface {
	GenerateMetadata(ctx context.Context, image models.UploadedImage, prompt string) (*models.Metadata, error)
}

// KeywordTranslator moves a keyword from the interface language to the metadata language
type KeywordTranslator interface {
	Translate(ctx context.Context, keyword string, langs models.Languages) translation.Result
}

// RunOptions are the per-run inputs of a batch run
type RunOptions struct {
	Keyword   string
	Languages models.Languages
}

// RunSummary describes a finished batch run
type RunSummary struct {
	BatchID   string        `json:"session_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Keyword   string        `json:"keyword,omitempty"`
	Duration  time.Duration `json:"duration"`
}

type Runner struct {
	normalizer *images.Normalizer
	generator  Generator
	translator KeywordTranslator
	notifier   Notifier
	limiter    *rate.Limiter
	timeout    time.Duration
}

type Option func(*Runner)

// WithNotifier sets the receiver of run events
func WithNotifier(n Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithTimeout bounds every generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithRateInterval spaces generation calls at least d apart. Zero disables pacing.
func WithRateInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			r.limiter = nil
		}
	}
}

func NewRunner(normalizer *images.Normalizer, generator Generator, translator KeywordTranslator, opts ...Option) *Runner {
	if normalizer == nil {
		normalizer = images.NewNormalizer()
	}
	r := &Runner{
		normalizer: normalizer,
		generator:  generator,
		translator: translator,
		notifier:   discard{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives every item of the batch through prompt and generation, one at a time,
// in insertion order. Item failures are recorded on their outcomes and never stop the run.
func (r *Runner) Run(ctx context.Context, b *Batch, opts RunOptions) (*RunSummary, error) {
	langs := resolveLanguages(opts.Languages)
	keyword := strings.TrimSpace(opts.Keyword)

	items, err := b.start(keyword, langs)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, b, items, keyword, langs), nil
}

// Start validates and enters Running like Run, then finishes the run in the background.
// The returned channel yields the summary once every item has been visited.
func (r *Runner) Start(ctx context.Context, b *Batch, opts RunOptions) (<-chan *RunSummary, error) {
	langs := resolveLanguages(opts.Languages)
	keyword := strings.TrimSpace(opts.Keyword)

	items, err := b.start(keyword, langs)
	if err != nil {
		return nil, err
	}

	done := make(chan *RunSummary, 1)
	go func() {
		defer close(done)
		done <- r.run(ctx, b, items, keyword, langs)
	}()
	return done, nil
}

func (r *Runner) run(ctx context.Context, b *Batch, items []models.Item, keyword string, langs models.Languages) *RunSummary {
	started := time.Now()
	summary := &RunSummary{BatchID: b.ID, Total: len(items)}
	slog.Info("Starting batch", "session_id", b.ID, "items", len(items), "interface_language", langs.Interface, "metadata_language", langs.Metadata)
	r.notifier.Notify(Event{Type: EventStarted, BatchID: b.ID, Progress: &Progress{Total: len(items)}})

	if keyword != "" && langs.NeedsTranslation() {
		r.notifier.Notify(Event{Type: EventTranslating, BatchID: b.ID, Keyword: keyword})
		keyword = r.translate(ctx, keyword, langs)
	}
	summary.Keyword = keyword

	for i, item := range items {
		processing := b.setOutcome(models.Outcome{ItemID: item.ID, Status: models.StatusProcessing})
		r.notifier.Notify(Event{Type: EventOutcome, BatchID: b.ID, Outcome: &processing})
		r.notifier.Notify(Event{Type: EventProgress, BatchID: b.ID, Progress: &Progress{Processed: i + 1, Total: len(items)}})

		outcome := b.setOutcome(r.process(ctx, item, keyword, langs.Metadata))
		if outcome.Status == models.StatusSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		r.notifier.Notify(Event{Type: EventOutcome, BatchID: b.ID, Outcome: &outcome})
	}

	summary.Duration = time.Since(started)
	// Idle before EventFinished so a listener can start the next run on receipt.
	b.finish()
	slog.Info("Batch finished", "session_id", b.ID, "succeeded", summary.Succeeded, "failed", summary.Failed, "duration", summary.Duration)
	r.notifier.Notify(Event{Type: EventFinished, BatchID: b.ID, Summary: summary})
	return summary
}

// Regenerate reruns one item with a custom keyword, leaving every other outcome untouched.
// The keyword as typed is kept on the returned outcome.
func (r *Runner) Regenerate(ctx context.Context, b *Batch, itemID, keyword string, langs models.Languages) (models.Outcome, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return models.Outcome{}, ErrKeywordRequired
	}
	langs = resolveLanguages(langs)

	item, err := b.acquire(itemID)
	if err != nil {
		return models.Outcome{}, err
	}
	defer b.release(itemID)

	slog.Info("Regenerating item", "session_id", b.ID, "id", itemID, "keyword", keyword)
	processing := b.setOutcome(models.Outcome{ItemID: itemID, Status: models.StatusProcessing, Keyword: keyword})
	r.notifier.Notify(Event{Type: EventOutcome, BatchID: b.ID, Outcome: &processing})

	effective := keyword
	if langs.NeedsTranslation() {
		r.notifier.Notify(Event{Type: EventTranslating, BatchID: b.ID, Keyword: keyword})
		effective = r.translate(ctx, keyword, langs)
	}

	outcome := r.process(ctx, item, effective, langs.Metadata)
	outcome.Keyword = keyword
	outcome = b.setOutcome(outcome)
	r.notifier.Notify(Event{Type: EventOutcome, BatchID: b.ID, Outcome: &outcome})
	return outcome, nil
}

func (r *Runner) process(ctx context.Context, item models.Item, keyword, metadataLanguage string) models.Outcome {
	prompt := prompts.Build(metadataLanguage, images.IsVector(item.SourceMIMEType), keyword)

	metadata, err := r.generate(ctx, item.Image, prompt)
	if err != nil {
		slog.Error("Failed to generate metadata", "id", item.ID, "name", item.Name, "err", err)
		return models.Outcome{ItemID: item.ID, Status: models.StatusFailed, Error: err.Error()}
	}
	if !prompts.IsCategory(metadata.Category) {
		slog.Warn("Generated category is not in the category list", "id", item.ID, "name", item.Name, "category", metadata.Category)
	}
	slog.Info("Generated metadata", "id", item.ID, "name", item.Name, "category", metadata.Category)
	return models.Outcome{ItemID: item.ID, Status: models.StatusSucceeded, Metadata: metadata}
}

// translate runs the keyword through the translator under the per-call timeout.
// The gate falls back to the original keyword when the deadline passes.
func (r *Runner) translate(ctx context.Context, keyword string, langs models.Languages) string {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.translator.Translate(ctx, keyword, langs).Text
}

func (r *Runner) generate(ctx context.Context, image models.UploadedImage, prompt string) (*models.Metadata, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.generator.GenerateMetadata(ctx, image, prompt)
}

// resolveLanguages replaces unsupported codes with the default language
func resolveLanguages(langs models.Languages) models.Languages {
	return models.Languages{
		Interface: languages.OrDefault(langs.Interface),
		Metadata:  languages.OrDefault(langs.Metadata),
	}
}
