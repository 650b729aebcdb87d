package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumind/internal/config"
	resumindErrors "resumind/internal/errors"
	"resumind/internal/types"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *resumindErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *resumindErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, resumindErrors.NewConfigError(resumindErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, resumindErrors.NewAIError(resumindErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	return modelInfo
}

// AnalyzeResume implements AIProvider for resume reviews. The resume
// PDF travels inline next to the review prompt; the response schema
// forces the dual-schema feedback shape.
func (g *GeminiProvider) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error) {
	tracer := otel.Tracer("resumind.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.analyze_resume")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.resume_bytes", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)
	if g.config.Temperature != nil {
		span.SetAttributes(attribute.Float64("ai.temperature", float64(*g.config.Temperature)))
	}

	genaiConfig := g.buildFeedbackSchema()
	systemPrompt, userPrompt := g.getPrompts(input)
	if g.config.UseSystemPrompts != nil && *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(input.Resume, "application/pdf"),
			genai.NewPartFromText(userPrompt),
		}, genai.RoleUser),
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, "analyze_resume", func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Feedback{}, nil, resumindErrors.NewAIError(resumindErrors.ErrCodeAIServiceFailed,
			"Failed to generate resume feedback", err)
	}

	var output types.Feedback
	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return types.Feedback{}, nil, resumindErrors.NewParseError(resumindErrors.ErrCodeInvalidResponse,
			"Failed to parse resume feedback response", err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int("ai.tokens.input", int(tokenUsage.InputTokens)),
			attribute.Int("ai.tokens.output", int(tokenUsage.OutputTokens)),
			attribute.Int("ai.tokens.total", int(tokenUsage.TotalTokens)),
		)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.overall_rating", output.OverallRating),
	)
	return output, tokenUsage, nil
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := 0
	if g.config.MaxRetries != nil {
		maxRetries = *g.config.MaxRetries
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Network errors (timeouts, connection refused) are worth retrying
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// The Gemini client has no Close in single-shot usage
	return nil
}

// getPrompts resolves the system and user prompts, preferring
// configured overrides over the defaults
func (g *GeminiProvider) getPrompts(input types.AnalyzeResumeInput) (string, string) {
	systemPrompt := g.config.CustomPrompts.System
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	userTemplate := g.config.CustomPrompts.User
	if userTemplate == "" {
		userTemplate = DefaultUserPrompt
	}

	company := input.CompanyName
	if company == "" {
		company = "(not specified)"
	}
	jobTitle := input.JobTitle
	if jobTitle == "" {
		jobTitle = "(not specified)"
	}
	jobDescription := input.JobDescription
	if jobDescription == "" {
		jobDescription = "(not provided)"
	}

	return systemPrompt, fmt.Sprintf(userTemplate, company, jobTitle, jobDescription)
}

// buildFeedbackSchema creates the response schema for review requests.
// Both feedback schemas are required so every response carries the
// structured blocks and the flat legacy fields.
func (g *GeminiProvider) buildFeedbackSchema() *genai.GenerateContentConfig {
	tipSchema := &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type":        {Type: genai.TypeString, Enum: []string{"good", "improve"}},
				"tip":         {Type: genai.TypeString},
				"explanation": {Type: genai.TypeString},
			},
			Required: []string{"type", "tip", "explanation"},
		},
	}
	categorySchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {Type: genai.TypeInteger},
			"tips":  tipSchema,
		},
		Required: []string{"score", "tips"},
	}
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"overall_rating":    {Type: genai.TypeInteger},
				"ats_compatibility": {Type: genai.TypeInteger},
				"content_analysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"technical_skills":     {Type: genai.TypeInteger},
						"experience_relevance": {Type: genai.TypeInteger},
						"achievements":         {Type: genai.TypeInteger},
						"education":            {Type: genai.TypeInteger},
						"formatting":           {Type: genai.TypeInteger},
					},
					Required: []string{
						"technical_skills", "experience_relevance",
						"achievements", "education", "formatting",
					},
				},
				"strengths":               stringList,
				"weaknesses":              stringList,
				"ats_issues":              stringList,
				"missing_elements":        stringList,
				"improvement_suggestions": stringList,
				"recommendations":         stringList,
				"job_fit_analysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"match_score":         {Type: genai.TypeInteger},
						"relevant_experience": {Type: genai.TypeString},
						"gaps":                stringList,
					},
					Required: []string{"match_score", "relevant_experience", "gaps"},
				},
				"overallScore": {Type: genai.TypeInteger},
				"ATS": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"score": {Type: genai.TypeInteger},
						"tips":  tipSchema,
					},
					Required: []string{"score", "tips"},
				},
				"toneAndStyle": categorySchema,
				"content":      categorySchema,
				"structure":    categorySchema,
				"skills":       categorySchema,
			},
			Required: []string{
				"overall_rating", "ats_compatibility", "content_analysis",
				"strengths", "weaknesses", "ats_issues", "missing_elements",
				"improvement_suggestions", "recommendations", "job_fit_analysis",
				"overallScore", "ATS", "toneAndStyle", "content", "structure", "skills",
			},
		},
	}

	if g.config.Temperature != nil && *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}

	return cfg
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *types.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &types.TokenUsage{
		InputTokens:  usage.PromptTokenCount,
		OutputTokens: usage.CandidatesTokenCount,
		TotalTokens:  usage.TotalTokenCount,
	}
}
