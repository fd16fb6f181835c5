package batchcmd

import (
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/config"
	"github.com/lehigh-university-libraries/imagemeta/internal/export"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
	"github.com/spf13/cobra"
)

// NewGenerateCmd creates the generate command for one batch run over local files
func NewGenerateCmd() *cobra.Command {
	var keyword string
	var uiLanguage string
	var metadataLanguage string
	var output string
	var pf providerFlags

	cmd := &cobra.Command{
		Use:   "generate FILE...",
		Short: "Generate title, keywords and category for local images",
		Long: `Runs one batch over the given image files, one generation call at a time,
and prints the result of each image as it completes.

Supported types: JPEG, PNG, WebP (sent as is) and SVG, GIF, BMP (converted to PNG).
Other files are skipped.`,
		Example: `  # Generate English metadata for two photos
  imagemeta generate dog.jpg cat.png

  # Prioritize a keyword typed in Russian, write metadata in English
  imagemeta generate *.png --keyword "собака" --ui-language ru --language en

  # Save the results
  imagemeta generate logo.svg --output results/logos.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pf.apply(config.Load())
			if uiLanguage == "" {
				uiLanguage = cfg.Languages.Interface
			}
			if metadataLanguage == "" {
				metadataLanguage = cfg.Languages.Metadata
			}
			langs := models.Languages{Interface: uiLanguage, Metadata: metadataLanguage}
			return executeGenerate(cmd, cfg, args, keyword, langs, output)
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "Keyword to prioritize for every image")
	cmd.Flags().StringVar(&uiLanguage, "ui-language", "", "Language the keyword is typed in (default from UI_LANGUAGE)")
	cmd.Flags().StringVarP(&metadataLanguage, "language", "l", "", "Language of the generated metadata (default from METADATA_LANGUAGE)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write results to a .yaml, .json or .parquet file")
	pf.register(cmd)

	return cmd
}

func executeGenerate(cmd *cobra.Command, cfg config.Config, paths []string, keyword string, langs models.Languages, output string) error {
	out := cmd.OutOrStdout()

	if err := validateLanguages(langs); err != nil {
		return err
	}
	sources, err := loadSources(paths)
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
		return fmt.Errorf("failed to add images: %w", err)
	}
	printIngestReport(out, report)
	printer.track(batch.Items())

	summary, err := runner.Run(cmd.Context(), batch, pipeline.RunOptions{Keyword: keyword, Languages: langs})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "========================================")
	for _, item := range batch.Items() {
		outcome, _ := batch.Outcome(item.ID)
		fmt.Fprintf(out, "%s\n", item.Name)
		if outcome.Metadata != nil {
			printMetadata(out, outcome.Metadata)
		} else {
			fmt.Fprintf(out, "  Error: %s\n", outcome.Error)
		}
	}
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "Succeeded: %d  Failed: %d  Total: %d  (%s)\n", summary.Succeeded, summary.Failed, summary.Total, summary.Duration.Round(time.Millisecond))

	if output != "" {
		if err := export.Save(output, export.NewReport(batch.Snapshot(), cfg.Provider, svc.Model())); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✅ Results saved to: %s\n", output)
	}
	return nil
}
