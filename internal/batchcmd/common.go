package batchcmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/imagemeta/internal/cataloging"
	"github.com/lehigh-university-libraries/imagemeta/internal/config"
	"github.com/lehigh-university-libraries/imagemeta/internal/images"
	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/spf13/cobra"
)

// providerFlags override the provider selection from the environment
type providerFlags struct {
	provider    string
	model       string
	temperature float64
}

func (f *providerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: gemini, openai or ollama (default from METADATA_PROVIDER)")
	cmd.Flags().StringVar(&f.model, "model", "", "Model name (default depends on provider)")
	cmd.Flags().Float64Var(&f.temperature, "temperature", -1, "Sampling temperature (default from METADATA_TEMPERATURE)")
}

// apply merges the flags into cfg
func (f *providerFlags) apply(cfg config.Config) config.Config {
	if f.provider != "" && f.provider != cfg.Provider {
		cfg.Provider = f.provider
		cfg.Model = cataloging.DefaultModel(f.provider)
	}
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.temperature >= 0 {
		cfg.Temperature = f.temperature
	}
	return cfg
}

func newService(cfg config.Config) (*cataloging.Service, error) {
	provider, err := cataloging.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	return cataloging.NewService(provider, cfg.Model, cfg.Temperature), nil
}

func newRunner(cfg config.Config, svc *cataloging.Service, gate pipeline.KeywordTranslator, n pipeline.Notifier) *pipeline.Runner {
	return pipeline.NewRunner(nil, svc, gate,
		pipeline.WithNotifier(n),
		pipeline.WithTimeout(cfg.RequestTimeout),
		pipeline.WithRateInterval(cfg.RateInterval),
	)
}

func validateLanguages(langs models.Languages) error {
	if err := languages.Validate(langs.Interface); err != nil {
		return err
	}
	return languages.Validate(langs.Metadata)
}

// loadSources reads local image files
func loadSources(paths []string) ([]models.Source, error) {
	sources := make([]models.Source, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}
		if info.Size() > images.MaxSourceBytes {
			return nil, fmt.Errorf("%s too large (max %dMB)", path, images.MaxSourceBytes/1024/1024)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		sources = append(sources, models.Source{
			Name:     name,
			MIMEType: images.MIMETypeForFile(name, data),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
			Data:     data,
		})
	}
	return sources, nil
}

// progressPrinter writes one line per pipeline event
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	names map[string]string
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, names: make(map[string]string)}
}

func (p *progressPrinter) track(items []models.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, item := range items {
		p.names[item.ID] = item.Name
	}
}

func (p *progressPrinter) Notify(e pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch e.Type {
	case pipeline.EventTranslating:
		fmt.Fprintf(p.w, "Translating keyword %q...\n", e.Keyword)
	case pipeline.EventProgress:
		fmt.Fprintf(p.w, "Generating... (%d/%d)\n", e.Progress.Processed, e.Progress.Total)
	case pipeline.EventOutcome:
		name := p.names[e.Outcome.ItemID]
		switch e.Outcome.Status {
		case models.StatusSucceeded:
			fmt.Fprintf(p.w, "  ✅ %s: %s\n", name, e.Outcome.Metadata.Title)
		case models.StatusFailed:
			fmt.Fprintf(p.w, "  ❌ %s: Error: %s\n", name, e.Outcome.Error)
		}
	}
}

func printIngestReport(w io.Writer, report *pipeline.IngestReport) {
	for _, name := range report.Skipped {
		fmt.Fprintf(w, "Skipping %s: unsupported file type\n", name)
	}
	for _, name := range report.Duplicates {
		fmt.Fprintf(w, "Skipping %s: already added\n", name)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "❌ %s\n", f.Error)
	}
}

func printMetadata(w io.Writer, m *models.Metadata) {
	fmt.Fprintf(w, "  Title:    %s\n", m.Title)
	fmt.Fprintf(w, "  Category: %s\n", m.Category)
	fmt.Fprintf(w, "  Keywords: %s\n", strings.Join(m.KeywordList(), ", "))
}
