package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"

	"resumind/internal/errors"
)

// VaultSecrets defines where to find secrets in Vault's KVv2 engine.
// Each path points at a secret whose data holds a "value" field.
type VaultSecrets struct {
	GeminiKey  string `mapstructure:"geminiKey"`
	SigningKey string `mapstructure:"signingKey"`
	// AccessKeys expects a single comma-separated string in Vault
	AccessKeys string `mapstructure:"accessKeys"`
}

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	Address   string       `mapstructure:"address"`
	Token     string       `mapstructure:"token"`
	TokenFile string       `mapstructure:"tokenFile"`
	Namespace string       `mapstructure:"namespace"`
	Secrets   VaultSecrets `mapstructure:"secrets"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a Vault client from configuration. When Vault
// integration is disabled, both return values are nil.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if cfg.Address != "" {
		vaultConfig.Address = cfg.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Connected to Vault", "address", vaultConfig.Address)
	}

	return &VaultClient{client: client, config: cfg, logger: logger}, nil
}

func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		tokenBytes, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// ReadValue reads the "value" field of a KVv2 secret
func (vc *VaultClient) ReadValue(path string) (string, error) {
	if vc == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	value, ok := data["value"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("secret at %s has no 'value' field", path)
	}
	return value, nil
}

// resolveVaultSecrets overwrites secret-bearing settings with values
// from Vault when integration is enabled. Settings already provided
// locally are left alone.
func (c *Config) resolveVaultSecrets() error {
	vc, err := NewVaultClient(c.Vault, nil)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"failed to initialize vault integration", err)
	}
	if vc == nil {
		return nil
	}

	if c.AI.APIKey == "" && c.Vault.Secrets.GeminiKey != "" {
		key, err := vc.ReadValue(c.Vault.Secrets.GeminiKey)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				"failed to read AI API key from vault", err)
		}
		c.AI.APIKey = key
		c.AI.Review.APIKey = key
	}

	if c.Auth.SigningKey == "" && c.Vault.Secrets.SigningKey != "" {
		key, err := vc.ReadValue(c.Vault.Secrets.SigningKey)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"failed to read session signing key from vault", err)
		}
		c.Auth.SigningKey = key
	}

	if len(c.Auth.AccessKeys) == 0 && c.Vault.Secrets.AccessKeys != "" {
		raw, err := vc.ReadValue(c.Vault.Secrets.AccessKeys)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"failed to read access keys from vault", err)
		}
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				c.Auth.AccessKeys = append(c.Auth.AccessKeys, key)
			}
		}
	}

	return nil
}
