package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults registers the full default catalog with viper
func setDefaults(v *viper.Viper) {
	// Application
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")

	// AI (global; the review operation inherits anything it leaves unset)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.timeout", 120*time.Second)
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	// Uploads go through multipart bodies, so the request ceiling sits
	// above the file ceiling to leave room for the form envelope.
	v.SetDefault("server.maxRequestSize", 21*1024*1024)
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerSecond", 5.0)
	v.SetDefault("server.rateLimit.burst", 10)
	v.SetDefault("server.rateLimit.cleanupInterval", 10*time.Minute)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.autoReload.enabled", false)
	v.SetDefault("server.tls.autoReload.debounce", 2*time.Second)

	// Storage
	v.SetDefault("storage.uploadDir", "uploads")
	v.SetDefault("storage.maxUploadBytes", 20*1024*1024)
	v.SetDefault("storage.rasterDpi", 288)

	// Auth
	v.SetDefault("auth.sessionTtl", 24*time.Hour)
	v.SetDefault("auth.secureCookies", false)

	// Usage
	v.SetDefault("usage.monthlyAllowance", 100)

	// Vault
	v.SetDefault("vault.enabled", false)

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumind")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.prettyPrint", false)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackCertExpiry", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
}
