package common

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"resumind/internal/errors"
	"resumind/internal/types"
)

// AnalyzeFunc is the signature of a resume review operation with token accounting.
type AnalyzeFunc func(context.Context, types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error)

// NormalizeFunc turns raw analyzer feedback into the value handed to the formatters.
type NormalizeFunc func(types.Feedback) any

// RunReviewCommand encapsulates the common logic of a file-based review command:
// read the resume, run the analyzer, report token usage, and write the formatted report.
func RunReviewCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	input types.AnalyzeResumeInput,
	analyze AnalyzeFunc,
	normalize NormalizeFunc,
) error {
	outputHandler := NewOutputHandler(logger)

	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	result, tokenUsage, err := analyze(ctx, input)
	if err != nil {
		return err
	}

	// Report token usage
	if tokenUsage != nil {
		if logger != nil {
			logger.Info("AI token usage", "input_tokens", tokenUsage.InputTokens, "output_tokens", tokenUsage.OutputTokens, "total_tokens", tokenUsage.TotalTokens)
		} else {
			fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n", tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	if cmdConfig.RawFeedbackFile != "" {
		raw, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.NewInternalError(errors.ErrCodeInvalidFormat,
				"Failed to marshal raw feedback", err)
		}
		if err := outputHandler.WriteRaw(raw, cmdConfig.RawFeedbackFile); err != nil {
			return err
		}
	}

	return outputHandler.HandleOutput(normalize(result), cmdConfig)
}
