package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for referral-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, signing secret, provider API keys) must only come
// from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8086"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// LinkSigningSecret signs recommendation-link tokens. The token codec is
	// the sole consumer; rotating it invalidates all outstanding links.
	LinkSigningSecret string `yaml:"-" env:"LINK_SIGNING_SECRET"` // Secret - not in YAML

	// Authentication configuration for staff endpoints
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Match scoring configuration
	Scoring ScoringConfig `yaml:"scoring"`

	// Eligibility visibility thresholds
	Eligibility EligibilityConfig `yaml:"eligibility"`
}

// AuthConfig holds staff-authentication configuration.
type AuthConfig struct {
	// EnableVerification controls whether staff JWTs are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"referral"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"referral_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ScoringConfig configures the external match scorer.
type ScoringConfig struct {
	// Provider selects the scoring backend: "anthropic", "openai" or "none".
	Provider string `yaml:"provider" env:"SCORING_PROVIDER" env-default:"none"`
	Model    string `yaml:"model" env:"SCORING_MODEL" env-default:""`
	// Endpoint overrides the provider base URL (OpenAI-compatible endpoints).
	Endpoint string `yaml:"endpoint" env:"SCORING_ENDPOINT" env-default:""`
	APIKey   string `yaml:"-" env:"SCORING_API_KEY"` // Secret - not in YAML

	// MaxConcurrent bounds parallel scoring calls in a batch.
	MaxConcurrent int `yaml:"max_concurrent" env:"SCORING_MAX_CONCURRENT" env-default:"8"`
	// CallTimeoutSeconds is the per-pair scoring call timeout.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" env:"SCORING_CALL_TIMEOUT_SECONDS" env-default:"60"`
}

// EligibilityConfig holds the match-score visibility thresholds per audience.
type EligibilityConfig struct {
	// BroadThreshold gates the wide "potential candidates" view.
	BroadThreshold float64 `yaml:"broad_threshold" env:"ELIGIBILITY_BROAD_THRESHOLD" env-default:"40"`
	// ActionableThreshold gates a connector's actionable recommend list.
	ActionableThreshold float64 `yaml:"actionable_threshold" env:"ELIGIBILITY_ACTIONABLE_THRESHOLD" env-default:"60"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if cfg.LinkSigningSecret == "" {
		return nil, fmt.Errorf("LINK_SIGNING_SECRET must be set")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Scoring.Provider {
	case "anthropic", "openai", "none":
	default:
		return fmt.Errorf("unknown scoring provider %q", c.Scoring.Provider)
	}

	if c.Scoring.Provider != "none" && c.Scoring.Model == "" {
		return fmt.Errorf("scoring model is required when provider is %q", c.Scoring.Provider)
	}

	if c.Eligibility.ActionableThreshold < c.Eligibility.BroadThreshold {
		return fmt.Errorf("actionable threshold must not be below broad threshold")
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return fmt.Errorf("JWKS_ENDPOINTS is required when auth verification is enabled")
	}

	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
