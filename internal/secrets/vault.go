// Package secrets fetches the JWT signing secret from HashiCorp Vault
// when Vault is configured, falling back to the environment otherwise.
package secrets

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds the Vault connection settings. Enabled false means
// the secret comes from configuration directly.
type VaultConfig struct {
	Enabled    bool
	Address    string
	Token      string
	MountPath  string
	SecretPath string
	TLSEnabled bool
	CACert     string
}

// Client wraps the HashiCorp Vault client for KV v2 reads.
type Client struct {
	client *api.Client
	config VaultConfig
}

// NewClient creates a Vault client. With Vault disabled the client is
// inert and JWTSecret returns an error.
func NewClient(cfg VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// IsEnabled returns whether Vault is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// JWTSecret reads the signing secret from the configured KV v2 path.
// The secret is expected under the key "jwt_secret".
func (c *Client) JWTSecret(ctx context.Context) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("vault is disabled")
	}

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("invalid secret format")
	}

	value, ok := data["jwt_secret"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("jwt_secret missing at %s", path)
	}
	return value, nil
}

// Health checks the Vault connection.
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}
