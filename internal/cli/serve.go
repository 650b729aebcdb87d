package cli

import (
	"fmt"

	"resumind/internal/ai"
	"resumind/internal/auth"
	"resumind/internal/config"
	"resumind/internal/errors"
	"resumind/internal/feedback"
	"resumind/internal/server"
	"resumind/internal/store"
	"resumind/internal/upload"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for resume reviews",
	Long: `Start an HTTP server that provides REST API endpoints for resume reviews.

Available endpoints:
- POST /api/v1/resumes: Upload a resume PDF for review
- GET /api/v1/resumes: List stored reviews
- GET /api/v1/resumes/{id}: Fetch one review with its report
- GET /api/v1/resumes/{id}/report: Render the report in a chosen format
- GET /api/v1/resumes/{id}/export.pdf: Download the report as PDF
- GET /api/v1/resumes/{id}/export.json: Download the feedback snapshot
- GET /api/v1/usage: Monthly usage against the configured allowance
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("database-dsn", "", "PostgreSQL DSN for review storage (overrides config)")
	serveCmd.Flags().String("upload-dir", "", "Directory for stored resumes and page images (overrides config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("storage.databaseDsn", "database-dsn")
	bindFlag("storage.uploadDir", "upload-dir")
	bindFlag("server.tls.mode", "tls-mode")
	bindFlag("server.tls.certfile", "cert-file")
	bindFlag("server.tls.keyfile", "key-file")
	bindFlag("server.tls.cafile", "ca-file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Validate TLS configuration after applying overrides
	tempConfig := &config.Config{Server: cfg.Server}
	if err := tempConfig.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	deps, err := buildServerDeps(cfg, logger)
	if err != nil {
		return err
	}

	return server.NewServer(cfg, Version, deps, logger).Start()
}

// buildServerDeps assembles the storage, upload, AI, and auth dependencies
// from the loaded configuration.
func buildServerDeps(cfg *config.Config, logger *errors.Logger) (server.Deps, error) {
	records, err := buildRecordStore(cfg, logger)
	if err != nil {
		return server.Deps{}, err
	}

	files, err := store.NewFileStore(cfg.Storage.UploadDir)
	if err != nil {
		return server.Deps{}, fmt.Errorf("failed to open upload directory: %w", err)
	}
	logger.Info("Upload storage ready", "dir", files.BaseDir())

	aiService, err := ai.NewService(cfg, logger)
	if err != nil {
		return server.Deps{}, fmt.Errorf("failed to create AI service: %w", err)
	}

	var authManager *auth.Manager
	if cfg.Auth.SigningKey != "" {
		authManager, err = auth.NewManager(auth.Config{
			SigningKey: cfg.Auth.SigningKey,
			AccessKeys: cfg.Auth.AccessKeys,
			SessionTTL: cfg.Auth.SessionTTL,
			Secure:     cfg.Auth.SecureCookies,
		}, logger)
		if err != nil {
			return server.Deps{}, fmt.Errorf("failed to create auth manager: %w", err)
		}
	} else {
		logger.Warn("No session signing key configured, API endpoints are unauthenticated")
	}

	pipeline := upload.NewPipeline(upload.NewFitzRenderer(), logger,
		upload.WithMaxBytes(cfg.Storage.MaxUploadBytes),
		upload.WithDPI(cfg.Storage.RasterDPI))

	return server.Deps{
		AI:         aiService,
		Records:    records,
		Files:      files,
		Pipeline:   pipeline,
		Auth:       authManager,
		Normalizer: feedback.NewNormalizer(cfg.Normalizer.Rules()),
	}, nil
}

// buildRecordStore opens the PostgreSQL store when a DSN is configured and
// falls back to the in-memory store otherwise.
func buildRecordStore(cfg *config.Config, logger *errors.Logger) (store.RecordStore, error) {
	if cfg.Storage.DatabaseDSN == "" {
		logger.Warn("No database DSN configured, reviews are stored in memory only")
		return store.NewMemoryStore(), nil
	}

	records, err := store.NewGormStore(cfg.Storage.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open review database: %w", err)
	}
	return records, nil
}
