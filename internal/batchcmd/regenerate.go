package batchcmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/imagemeta/internal/config"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
	"github.com/spf13/cobra"
)

// NewRegenerateCmd creates the regenerate command for one image and a custom keyword
func NewRegenerateCmd() *cobra.Command {
	var keyword string
	var uiLanguage string
	var metadataLanguage string
	var pf providerFlags

	cmd := &cobra.Command{
		Use:   "regenerate FILE",
		Short: "Regenerate metadata for one image around a custom keyword",
		Example: `  imagemeta regenerate dog.jpg --keyword "smiling dog"
  imagemeta regenerate dog.jpg --keyword "улыбающаяся собака" --ui-language ru`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pf.apply(config.Load())
			if uiLanguage == "" {
				uiLanguage = cfg.Languages.Interface
			}
			if metadataLanguage == "" {
				metadataLanguage = cfg.Languages.Metadata
			}
			langs := models.Languages{Interface: uiLanguage, Metadata: metadataLanguage}
			return executeRegenerate(cmd, cfg, args[0], keyword, langs)
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword the title and keywords must include (required)")
	cmd.Flags().StringVar(&uiLanguage, "ui-language", "", "Language the keyword is typed in (default from UI_LANGUAGE)")
	cmd.Flags().StringVarP(&metadataLanguage, "language", "l", "", "Language of the generated metadata (default from METADATA_LANGUAGE)")
	pf.register(cmd)

	return cmd
}

func executeRegenerate(cmd *cobra.Command, cfg config.Config, path, keyword string, langs models.Languages) error {
	out := cmd.OutOrStdout()

	if err := validateLanguages(langs); err != nil {
		return err
	}
	sources, err := loadSources([]string{path})
	if err != nil {
		return err
	}
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	printer := newProgressPrinter(out)
	runner := newRunner(cfg, svc, translation.NewGate(svc), printer)

	batch := pipeline.NewBatch("cli")
	report, err := runner.Ingest(batch, sources...)
	if err != nil {
		return err
	}
	if len(report.Added) == 0 {
		printIngestReport(out, report)
		return fmt.Errorf("no usable image in %s", path)
	}
	item := report.Added[0]
	printer.track(report.Added)

	outcome, err := runner.Regenerate(cmd.Context(), batch, item.ID, keyword, langs)
	if err != nil {
		return err
	}
	if outcome.Metadata == nil {
		return fmt.Errorf("regeneration failed: %s", outcome.Error)
	}

	fmt.Fprintf(out, "%s (keyword: %s)\n", item.Name, outcome.Keyword)
	printMetadata(out, outcome.Metadata)
	return nil
}
