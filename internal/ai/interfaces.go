package ai

import (
	"context"

	"resumind/internal/types"
)

// AIProvider interface for different AI implementations.
// AnalyzeResume returns token usage information; callers can ignore it.
type AIProvider interface {
	AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
