package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/imagemeta/internal/batchcmd"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "imagemeta",
		Short: "Stock image metadata generation with LLMs",
		Long: `Imagemeta generates titles, keywords and categories for stock images using LLMs.

Images are normalized before they are sent: SVG, GIF and BMP are rasterized to PNG
no larger than 1024px on the longer side. Batches run one image at a time, and any
single image can be regenerated around a custom keyword.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(batchcmd.NewGenerateCmd())
	cmd.AddCommand(batchcmd.NewRegenerateCmd())
	cmd.AddCommand(batchcmd.NewTranslateCmd())
	cmd.AddCommand(batchcmd.NewReportCmd())

	return cmd
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
