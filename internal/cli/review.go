package cli

import (
	"fmt"
	"path/filepath"

	"resumind/internal/ai"
	"resumind/internal/common"
	"resumind/internal/feedback"
	"resumind/internal/formatters"
	"resumind/internal/types"
	"resumind/internal/upload"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [resume.pdf]",
	Short: "Review a resume for ATS compatibility and content quality",
	Long: `Review a resume PDF using AI and print a scored report.

The review scores the resume overall and across ATS compatibility, tone
and style, content, structure, and skills, with concrete improvement
tips per category. Passing the target company and job description
focuses the review on that specific posting.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if reviewConfig.OutputFormat == "" {
			reviewConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(reviewConfig.OutputFormat,
			formatters.GlobalRegistry.GetSupportedFormats())
	},
	RunE: runReview,
}

var reviewConfig common.CommandConfig

var (
	reviewCompany  string
	reviewJobTitle string
	reviewJobFile  string
	reviewPagesDir string
)

func init() {
	reviewCmd.Flags().StringVarP(&reviewConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	reviewCmd.Flags().StringVar(&reviewConfig.OutputFormat, "format", "", "Output format: json, text, markdown, or html")
	reviewCmd.Flags().StringVar(&reviewConfig.RawFeedbackFile, "feedback", "", "Also write the raw analyzer feedback JSON to this file (input for the export command)")
	reviewCmd.Flags().StringVar(&reviewCompany, "company", "", "Target company name")
	reviewCmd.Flags().StringVar(&reviewJobTitle, "job-title", "", "Target job title")
	reviewCmd.Flags().StringVarP(&reviewJobFile, "job-description", "j", "", "Job description file")
	reviewCmd.Flags().StringVar(&reviewPagesDir, "pages-dir", "", "Directory to write rasterized page images (optional)")

	// Add completion for format flag
	_ = reviewCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatters.GlobalRegistry.GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}
	defer func() {
		if err := aiService.Close(); err != nil {
			logger.Warn("Failed to close AI service", "error", err)
		}
	}()

	fileProcessor := common.NewFileProcessor(logger)
	resume, err := fileProcessor.ReadFile(args[0])
	if err != nil {
		return err
	}

	pipeline := upload.NewPipeline(upload.NewFitzRenderer(), logger,
		upload.WithMaxBytes(cfg.Storage.MaxUploadBytes),
		upload.WithDPI(cfg.Storage.RasterDPI))

	if reviewPagesDir != "" {
		pages, err := pipeline.Rasterize(cmd.Context(), args[0], resume)
		if err != nil {
			return err
		}
		for _, page := range pages {
			if err := fileProcessor.WriteFile(filepath.Join(reviewPagesDir, page.Name), page.PNG); err != nil {
				return err
			}
		}
		logger.Info("Rasterized resume pages", "pages", len(pages), "dir", reviewPagesDir)
	} else if err := pipeline.Validate(args[0], int64(len(resume))); err != nil {
		return err
	}

	var jobDescription string
	if reviewJobFile != "" {
		jobDescription, err = fileProcessor.ReadTextFile(reviewJobFile)
		if err != nil {
			return err
		}
	}

	input := types.AnalyzeResumeInput{
		Resume:         resume,
		FileName:       filepath.Base(args[0]),
		CompanyName:    reviewCompany,
		JobTitle:       reviewJobTitle,
		JobDescription: jobDescription,
	}

	logger.Info("Starting resume review",
		"resume_bytes", len(input.Resume),
		"company", input.CompanyName,
		"job_title", input.JobTitle,
		"output_format", reviewConfig.OutputFormat)

	normalizer := feedback.NewNormalizer(cfg.Normalizer.Rules())

	err = common.RunReviewCommand(
		cmd.Context(),
		logger,
		reviewConfig,
		input,
		aiService.AnalyzeResume,
		func(f types.Feedback) any { return normalizer.Normalize(f) },
	)
	if err != nil {
		return fmt.Errorf("failed to review resume: %w", err)
	}
	logger.Info("Resume review completed successfully")
	return nil
}
