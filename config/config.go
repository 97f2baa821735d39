// Package config loads the process configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Redis  RedisConfig
	Vault  VaultConfig
	Log    LogConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"WEB_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"WEB_PORT" envDefault:"3000"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	StaticDir       string        `env:"STATIC_DIR" envDefault:"./web"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./leverages.db"`
}

// AuthConfig holds authentication settings. JWTSecret may instead come
// from Vault when that is enabled.
type AuthConfig struct {
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenDuration     time.Duration `env:"JWT_TOKEN_DURATION" envDefault:"168h"`
	MinPasswordLength int           `env:"MIN_PASSWORD_LENGTH" envDefault:"4"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	MaxLoginAttempts  int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutWindow     time.Duration `env:"LOGIN_LOCKOUT_WINDOW" envDefault:"15m"`
}

// RedisConfig holds the optional login limiter backend.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Address  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// VaultConfig holds the optional Vault secret source.
type VaultConfig struct {
	Enabled    bool   `env:"VAULT_ENABLED" envDefault:"false"`
	Address    string `env:"VAULT_ADDRESS" envDefault:"http://localhost:8200"`
	Token      string `env:"VAULT_TOKEN"`
	MountPath  string `env:"VAULT_MOUNT_PATH" envDefault:"secret"`
	SecretPath string `env:"VAULT_SECRET_PATH" envDefault:"leverage-tracker"`
	TLSEnabled bool   `env:"VAULT_TLS_ENABLED" envDefault:"false"`
	CACert     string `env:"VAULT_CA_CERT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
