package config

import (
	"testing"
	"time"

	"resumind/internal/feedback"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{LogLevel: "info", DefaultFormat: "text"},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			TLS:  TLSConfig{Mode: "disabled"},
		},
		Storage: StorageConfig{
			UploadDir:      "uploads",
			MaxUploadBytes: 20 * 1024 * 1024,
			RasterDPI:      288,
		},
		Usage: UsageConfig{MonthlyAllowance: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.App.LogLevel = "verbose" }, true},
		{"bad format", func(c *Config) { c.App.DefaultFormat = "xml" }, true},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero upload ceiling", func(c *Config) { c.Storage.MaxUploadBytes = 0 }, true},
		{"zero dpi", func(c *Config) { c.Storage.RasterDPI = 0 }, true},
		{"negative allowance", func(c *Config) { c.Usage.MonthlyAllowance = -1 }, true},
		{"bad tls mode", func(c *Config) { c.Server.TLS.Mode = "both" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr bool
	}{
		{"disabled", TLSConfig{Mode: "disabled"}, false},
		{"server with files", TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem"}, false},
		{"server missing key", TLSConfig{Mode: "server", CertFile: "c.pem"}, true},
		{"server duplicate cert sources", TLSConfig{Mode: "server", CertFile: "c.pem", CertContent: "x", KeyFile: "k.pem"}, true},
		{"mutual without ca", TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem"}, true},
		{"mutual with ca", TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem", CAFile: "ca.pem"}, false},
		{"mutual bad policy", TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem", CAFile: "ca.pem", ClientAuthPolicy: "maybe"}, true},
		{"bad min version", TLSConfig{Mode: "disabled", MinVersion: "1.0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.TLS = tt.tls
			err := cfg.ValidateTLSConfig()
			if tt.wantErr && err == nil {
				t.Error("Expected TLS validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestApplyOperationFallbacks(t *testing.T) {
	temp := float32(0.3)
	timeout := 90 * time.Second
	retries := 2
	useSystem := true

	cfg := validConfig()
	cfg.AI = AIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.5-flash",
		APIKey:           "global-key",
		Temperature:      &temp,
		Timeout:          &timeout,
		MaxRetries:       &retries,
		UseSystemPrompts: &useSystem,
		CircuitBreaker:   CircuitBreakerConfig{Enabled: true, MaxRequests: 3},
		Review: OperationAIConfig{
			Model: "gemini-2.5-pro", // operation override survives
		},
	}

	cfg.applyOperationFallbacks()

	review := cfg.GetReviewConfig()
	if review.Provider != "gemini" {
		t.Errorf("Expected provider fallback, got %q", review.Provider)
	}
	if review.Model != "gemini-2.5-pro" {
		t.Errorf("Expected operation model to survive, got %q", review.Model)
	}
	if review.APIKey != "global-key" {
		t.Errorf("Expected API key fallback, got %q", review.APIKey)
	}
	if review.Temperature == nil || *review.Temperature != temp {
		t.Error("Expected temperature fallback")
	}
	if review.Timeout == nil || *review.Timeout != timeout {
		t.Error("Expected timeout fallback")
	}
	if !review.CircuitBreaker.Enabled {
		t.Error("Expected circuit breaker fallback")
	}
}

func TestNormalizerRulesOverride(t *testing.T) {
	n := NormalizerConfig{
		Categories: map[string]feedback.CategoryRule{
			"skills": {
				Strengths: feedback.FilterRule{
					Sources: []feedback.ListID{feedback.ListStrengths},
					Include: []string{"golang"},
				},
			},
		},
	}

	rules := n.Rules()

	if got := rules[feedback.CategorySkills].Strengths.Include; len(got) != 1 || got[0] != "golang" {
		t.Errorf("Expected skills override to win, got %+v", got)
	}
	// Untouched categories keep their defaults
	if len(rules[feedback.CategoryContent].Strengths.Include) == 0 {
		t.Error("Expected content defaults to survive")
	}
}
