package batchcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/imagemeta/internal/export"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command for saved results
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize saved generation results",
		Example: `  imagemeta report --results results/logos.yaml
  imagemeta report --results results.parquet --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format)
		},
	}

	cmd.Flags().StringVarP(&resultsPath, "results", "r", "", "Results file written by generate --output")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or csv")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

func executeReport(w io.Writer, resultsPath, format string) error {
	report, err := export.Load(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(w, report)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]any{
			"config":  report.Config,
			"summary": report.Summarize(),
			"results": report.Results,
		})
	case "csv":
		return printCSVReport(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, report *export.Report) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Image Metadata Report")
	fmt.Fprintln(w, "========================================")
	if report.Config.Provider != "" {
		fmt.Fprintf(w, "Provider: %s\n", report.Config.Provider)
		fmt.Fprintf(w, "Model:    %s\n", report.Config.Model)
		fmt.Fprintf(w, "Language: %s\n", report.Config.MetadataLanguage)
	}
	fmt.Fprintln(w)

	summary := report.Summarize()
	fmt.Fprintf(w, "Total:     %d\n", summary.Total)
	fmt.Fprintf(w, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(w, "Failed:    %d\n", summary.Failed)
	if summary.Pending > 0 {
		fmt.Fprintf(w, "Pending:   %d\n", summary.Pending)
	}

	if len(summary.Categories) > 0 {
		fmt.Fprintln(w, "\nCategories:")
		for _, name := range summary.SortedCategories() {
			fmt.Fprintf(w, "  %-28s %d\n", name, summary.Categories[name])
		}
	}

	fmt.Fprintln(w, "\nDetailed Results:")
	fmt.Fprintln(w, "========================================")
	for i, r := range report.Results {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, r.Name)
		if r.Error != "" {
			fmt.Fprintf(w, "  ❌ Error: %s\n", r.Error)
			continue
		}
		if r.Title == "" {
			fmt.Fprintf(w, "  Status: %s\n", r.Status)
			continue
		}
		fmt.Fprintf(w, "  Title:    %s\n", truncate(r.Title, 100))
		fmt.Fprintf(w, "  Category: %s\n", r.Category)
		fmt.Fprintf(w, "  Keywords: %s\n", truncate(r.Keywords, 100))
	}
	return nil
}

func printCSVReport(w io.Writer, report *export.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"ID", "Name", "Status", "Title", "Keywords", "Category", "Keyword", "Error"}); err != nil {
		return err
	}
	for _, r := range report.Results {
		if err := writer.Write([]string{r.ID, r.Name, r.Status, r.Title, r.Keywords, r.Category, r.Keyword, r.Error}); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
