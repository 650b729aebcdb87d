package ai

import (
	"context"
	"fmt"

	"resumind/internal/config"
	"resumind/internal/errors"
	"resumind/internal/types"
)

// Service provides AI-powered resume review functionality
type Service struct {
	provider AIProvider
	logger   *errors.Logger
}

// NewService creates a new AI service backed by the configured provider
func NewService(cfg *config.Config, logger *errors.Logger) (*Service, error) {
	provider, err := createProvider(&cfg.AI.Review, "review", logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		provider: provider,
		logger:   logger,
	}, nil
}

func createProvider(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (AIProvider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeUnsupportedProvider,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// AnalyzeResume reviews a resume PDF against an optional job posting
func (s *Service) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error) {
	return s.provider.AnalyzeResume(ctx, input)
}

// GetModelInfo reports the configured model's availability
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.provider.GetModelInfo(ctx)
}

// GetCircuitBreakerStats returns circuit breaker statistics when the
// underlying provider exposes them
func (s *Service) GetCircuitBreakerStats() map[string]any {
	if gp, ok := s.provider.(*GeminiProvider); ok {
		return gp.GetCircuitBreakerStats()
	}
	return map[string]any{"overall_healthy": true}
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.provider.Close()
}
