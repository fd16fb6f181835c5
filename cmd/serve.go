package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/cataloging"
	"github.com/lehigh-university-libraries/imagemeta/internal/config"
	"github.com/lehigh-university-libraries/imagemeta/internal/handlers"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/preferences"
	"github.com/lehigh-university-libraries/imagemeta/internal/storage"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var port string
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the metadata interface",
		Long: `Starts the imagemeta web interface on the specified port.

Images are added to a session by upload or URL, generated as a batch, and
progress is streamed to the browser over a websocket.`,
		Example: `  # Start server on default port 8888
  imagemeta serve

  # Start server on custom port
  imagemeta serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			provider, err := cataloging.NewProvider(cfg.ProviderConfig())
			if err != nil {
				return err
			}
			service := cataloging.NewService(provider, cfg.Model, cfg.Temperature)

			var prefs preferences.Store = preferences.NewMemoryStore(cfg.Languages)
			if cfg.RedisURL != "" {
				rdb, err := preferences.Connect(cmd.Context(), cfg.RedisURL)
				if err != nil {
					return err
				}
				defer rdb.Close()
				prefs = preferences.NewRedisStore(rdb, cfg.Languages)
				slog.Info("Using redis for preferences")
			}

			handler := handlers.New(handlers.Options{
				Sessions:    storage.New(cfg.SessionTTL),
				Generator:   service,
				Translator:  translation.NewGate(service),
				Preferences: prefs,
				RunnerOptions: []pipeline.Option{
					pipeline.WithTimeout(cfg.RequestTimeout),
					pipeline.WithRateInterval(cfg.RateInterval),
				},
				Provider:  cfg.Provider,
				Model:     cfg.Model,
				StaticDir: staticDir,
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				slog.Info("Imagemeta interface available", "addr", addr, "url", "http://localhost"+addr, "provider", cfg.Provider, "model", cfg.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				handler.Wait()
				slog.Info("Server stopped")
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on (default from PORT)")
	cmd.Flags().StringVar(&staticDir, "static", "static", "Directory with the web interface")

	return cmd
}
