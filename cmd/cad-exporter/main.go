package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cad-exporter/api/rest/routes"
	"cad-exporter/config"
	"cad-exporter/core/exporter"
	"cad-exporter/core/repository"
	"cad-exporter/core/spec"
	"cad-exporter/providers/onshape"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cad-exporter",
		Short: "Export parts from hosted CAD documents into mesh and solid formats",
	}
	root.AddCommand(serveCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config, tracker exporter.JobTracker) *exporter.Engine {
	client := onshape.NewClient(cfg.ProviderBaseURL, cfg.ProviderAccessKey, cfg.ProviderSecretKey)
	return exporter.NewEngine(client, tracker, exporter.Options{
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollAttempts,
		Quality:      cfg.MeshQuality,
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the export API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			db, err := repository.NewDB(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			logrus.Info("Database connected successfully")

			engine := newEngine(cfg, repository.NewTracker(db))

			r := mux.NewRouter()
			routes.SetupRoutes(r, db, engine)

			// Health check endpoint
			r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			}).Methods("GET")

			server := &http.Server{
				Addr:    ":" + cfg.ServerPort,
				Handler: r,
			}

			// Graceful shutdown
			go func() {
				logrus.Infof("Starting server on port %s", cfg.ServerPort)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logrus.Fatalf("Server failed to start: %v", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logrus.Info("Shutting down server...")
			if err := server.Shutdown(context.Background()); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			logrus.Info("Server exited")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var specPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a one-shot export from a YAML spec file and write the archive locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(specPath)
			if err != nil {
				return fmt.Errorf("failed to read export spec: %w", err)
			}

			req, err := spec.ParseExportSpec(string(data))
			if err != nil {
				return fmt.Errorf("invalid export spec: %w", err)
			}

			cfg := config.Load()
			engine := newEngine(cfg, exporter.NewMemoryTracker())

			result, err := engine.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			failed := 0
			for _, outcome := range result.Outcomes {
				switch {
				case outcome.Err != nil:
					failed++
					logrus.Warnf("unit %s failed: %v", outcome.JobID, outcome.Err)
				case outcome.Duplicate:
					logrus.Infof("unit %s deduplicated", outcome.JobID)
				case outcome.NoOutput:
					logrus.Infof("unit %s completed with no output", outcome.JobID)
				default:
					logrus.Infof("exported %s (%d bytes)", outcome.EntryName, outcome.Size)
				}
			}

			if err := os.WriteFile(outPath, result.Archive, 0644); err != nil {
				return fmt.Errorf("failed to write archive: %w", err)
			}

			fmt.Printf("wrote %s (%d units, %d failed)\n", outPath, len(result.Outcomes), failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "export.yaml", "path to the YAML export spec")
	cmd.Flags().StringVar(&outPath, "out", "export.zip", "path for the resulting zip archive")
	return cmd
}
