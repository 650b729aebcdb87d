package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"resumind/internal/common"
	"resumind/internal/config"
	"resumind/internal/errors"
	"resumind/internal/export"
	"resumind/internal/feedback"
	"resumind/internal/store"
	"resumind/internal/types"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [feedback.json | record-id]",
	Short: "Export saved review feedback as a PDF report or JSON snapshot",
	Long: `Export previously saved review feedback to shareable artifacts.

The argument is either a file holding the raw feedback of one review
(as written by the review command with --feedback, or a snapshot
downloaded from the server's export.json endpoint) or, when a database
DSN is configured, the id of a stored review record.
At least one of --pdf or --snapshot must be given.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportPDFFile      string
	exportSnapshotFile string
	exportCompany      string
	exportJobTitle     string
)

func init() {
	exportCmd.Flags().StringVar(&exportPDFFile, "pdf", "", "Write the report as PDF to this file")
	exportCmd.Flags().StringVar(&exportSnapshotFile, "snapshot", "", "Write the feedback snapshot as JSON to this file")
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Company name shown in the report header")
	exportCmd.Flags().StringVar(&exportJobTitle, "job-title", "", "Job title shown in the report header")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if exportPDFFile == "" && exportSnapshotFile == "" {
		return fmt.Errorf("at least one of --pdf or --snapshot is required")
	}

	fileProcessor := common.NewFileProcessor(logger)

	rec, err := loadExportRecord(cmd.Context(), cfg, fileProcessor, args[0])
	if err != nil {
		return err
	}
	if exportCompany != "" {
		rec.CompanyName = exportCompany
	}
	if exportJobTitle != "" {
		rec.JobTitle = exportJobTitle
	}

	generatedAt := time.Now().UTC()

	if exportPDFFile != "" {
		exporter := export.NewPDFExporter(feedback.NewNormalizer(cfg.Normalizer.Rules()))
		data, err := exporter.Export(rec, generatedAt)
		if err != nil {
			return fmt.Errorf("failed to export PDF report: %w", err)
		}
		if err := fileProcessor.WriteFile(exportPDFFile, data); err != nil {
			return err
		}
		logger.Info("PDF report written", "file", exportPDFFile, "bytes", len(data))
	}

	if exportSnapshotFile != "" {
		data, err := export.ExportJSON(rec.Feedback, generatedAt)
		if err != nil {
			return fmt.Errorf("failed to export JSON snapshot: %w", err)
		}
		if err := fileProcessor.WriteFile(exportSnapshotFile, data); err != nil {
			return err
		}
		logger.Info("JSON snapshot written", "file", exportSnapshotFile, "bytes", len(data))
	}

	return nil
}

// loadExportRecord resolves the export source: a feedback JSON file on
// disk, or a stored record id when a database is configured.
func loadExportRecord(ctx context.Context, cfg *config.Config, fileProcessor *common.FileProcessor, source string) (*types.ResumeRecord, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		raw, err := fileProcessor.ReadFile(source)
		if err != nil {
			return nil, err
		}

		var fb types.Feedback
		if err := json.Unmarshal(raw, &fb); err != nil {
			return nil, errors.NewParseError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Failed to parse feedback file %s", source), err)
		}
		// A JSON document of some other shape decodes without error but
		// leaves every field zero. Refuse it rather than exporting an
		// empty report.
		if fb.IsEmpty() {
			return nil, errors.NewParseError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("File %s carries no feedback fields; expected raw feedback from 'review --feedback' or a JSON snapshot", source), nil)
		}
		return &types.ResumeRecord{Feedback: fb, CreatedAt: time.Now().UTC()}, nil
	}

	if cfg.Storage.DatabaseDSN == "" {
		return nil, fmt.Errorf("no such file %s, and no database DSN is configured for record lookup", source)
	}

	records, err := store.NewGormStore(cfg.Storage.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open review database: %w", err)
	}
	return records.Get(ctx, source)
}
