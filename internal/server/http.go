package server

import (
	"context"
	"time"

	"resumind/internal/ai"
	"resumind/internal/auth"
	"resumind/internal/config"
	resumindErrors "resumind/internal/errors"
	"resumind/internal/feedback"
	"resumind/internal/store"
	"resumind/internal/types"
	"resumind/internal/upload"
)

// Reviewer is the AI surface the server needs
type Reviewer interface {
	AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error)
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and dependencies for the HTTP server
type Server struct {
	Host    string
	Port    int
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate hot reload
	certReloader *certReloader
	certWatcher  *certWatcher

	// Domain dependencies
	AI         Reviewer
	Records    store.RecordStore
	Files      *store.FileStore
	Pipeline   *upload.Pipeline
	Auth       *auth.Manager
	Normalizer *feedback.Normalizer

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	// Logger
	Logger *resumindErrors.Logger
}

// Deps bundles the domain dependencies a Server needs
type Deps struct {
	AI         Reviewer
	Records    store.RecordStore
	Files      *store.FileStore
	Pipeline   *upload.Pipeline
	Auth       *auth.Manager
	Normalizer *feedback.Normalizer
}

// NewServer creates a new Server instance
func NewServer(appCfg *config.Config, version string, deps Deps, logger *resumindErrors.Logger) *Server {
	var rateLimiter *LimiterManager
	if appCfg.Server.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			appCfg.Server.RateLimit.RequestsPerSecond,
			appCfg.Server.RateLimit.Burst,
			appCfg.Server.RateLimit.CleanupInterval,
			logger,
		)
	}

	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      appCfg.Server.TLS,
		AI:             deps.AI,
		Records:        deps.Records,
		Files:          deps.Files,
		Pipeline:       deps.Pipeline,
		Auth:           deps.Auth,
		Normalizer:     deps.Normalizer,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxRequestSize,
		RateLimit:      &appCfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}
