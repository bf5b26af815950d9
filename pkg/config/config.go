package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultAuthorizeURI is Sparebank 1's authorization endpoint
	DefaultAuthorizeURI = "https://api-auth.sparebank1.no/oauth/authorize"
	// DefaultTokenURI is Sparebank 1's token endpoint
	DefaultTokenURI = "https://api.sparebank1.no/oauth/token"
	// DefaultAccountsURI is the personal banking accounts endpoint
	DefaultAccountsURI = "https://api.sparebank1.no/personal/banking/accounts"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig      `yaml:"server" env:", prefix=SERVER_"`
	OAuth    OAuthClientConfig `yaml:"oauth" env:", prefix=SPAREBANK_OAUTH_"`
	Banking  BankingConfig     `yaml:"banking" env:", prefix=BANKING_"`
	Upstream UpstreamConfig    `yaml:"upstream" env:", prefix=UPSTREAM_"`
	Security SecurityConfig    `yaml:"security" env:", prefix=SECURITY_"`
	Logging  LoggingConfig     `yaml:"logging" env:", prefix=LOG_"`
	Tracing  TracingConfig     `yaml:"tracing" env:", prefix=TRACING_"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            int `yaml:"port" env:"PORT, overwrite"`
	ReadTimeout     int `yaml:"read_timeout" env:"READ_TIMEOUT, overwrite"`
	WriteTimeout    int `yaml:"write_timeout" env:"WRITE_TIMEOUT, overwrite"`
	ShutdownTimeout int `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT, overwrite"`
}

// OAuthClientConfig is the registered client at the bank's OAuth provider.
// It is loaded once at startup and never mutated afterwards.
type OAuthClientConfig struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID, overwrite"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET, overwrite"`
	RedirectURI  string `yaml:"redirect_uri" env:"REDIRECT_URI, overwrite"`
	TokenURI     string `yaml:"token_uri" env:"TOKEN_URI, overwrite"`
	AuthorizeURI string `yaml:"authorize_uri" env:"AUTHORIZE_URI, overwrite"`

	// AuthorizeParams are appended to the authorization redirect (e.g. finInst)
	AuthorizeParams map[string]string `yaml:"authorize_params"`
}

// BankingConfig holds the resource API settings
type BankingConfig struct {
	AccountsURI string `yaml:"accounts_uri" env:"ACCOUNTS_URI, overwrite"`
}

// UpstreamConfig controls the outbound HTTP client shared by both upstream calls
type UpstreamConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"TIMEOUT_SECONDS, overwrite"`
}

// SecurityConfig holds state handling settings
type SecurityConfig struct {
	// ValidateState turns on verification of the callback state against the
	// value issued by /login. Off by default: state is passed through.
	ValidateState   bool   `yaml:"validate_state" env:"VALIDATE_STATE, overwrite"`
	StateSigningKey string `yaml:"state_signing_key" env:"STATE_SIGNING_KEY, overwrite"`
	StateTTLSeconds int    `yaml:"state_ttl_seconds" env:"STATE_TTL_SECONDS, overwrite"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL, overwrite"`
	Format string `yaml:"format" env:"FORMAT, overwrite"`
}

// TracingConfig controls OTLP trace export
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled" env:"ENABLED, overwrite"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME, overwrite"`
	// Endpoint is a full OTLP/HTTP URL; empty falls back to the standard
	// OTEL_EXPORTER_OTLP_* variables
	Endpoint string `yaml:"endpoint" env:"ENDPOINT, overwrite"`
}

// SetDefaults sets default values for configuration options that are not specified
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 75 // must outlast two upstream calls
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}

	if c.OAuth.TokenURI == "" {
		c.OAuth.TokenURI = DefaultTokenURI
	}
	if c.OAuth.AuthorizeURI == "" {
		c.OAuth.AuthorizeURI = DefaultAuthorizeURI
	}
	if c.Banking.AccountsURI == "" {
		c.Banking.AccountsURI = DefaultAccountsURI
	}

	if c.Upstream.TimeoutSeconds <= 0 {
		c.Upstream.TimeoutSeconds = 30
	}

	if c.Security.StateTTLSeconds <= 0 {
		c.Security.StateTTLSeconds = 600 // 10 minutes
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "oauth2-relay"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.OAuth.ClientID == "" {
		return fmt.Errorf("oauth client_id is required")
	}
	if c.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth client_secret is required")
	}
	if c.OAuth.RedirectURI == "" {
		return fmt.Errorf("oauth redirect_uri is required")
	}

	uris := []struct{ name, value string }{
		{"oauth.redirect_uri", c.OAuth.RedirectURI},
		{"oauth.token_uri", c.OAuth.TokenURI},
		{"oauth.authorize_uri", c.OAuth.AuthorizeURI},
		{"banking.accounts_uri", c.Banking.AccountsURI},
	}
	for _, uri := range uris {
		if err := validateAbsoluteURL(uri.value); err != nil {
			return fmt.Errorf("%s: %w", uri.name, err)
		}
	}

	if c.Security.ValidateState {
		if len(c.Security.StateSigningKey) < 32 {
			return fmt.Errorf("state signing key must be at least 32 characters when state validation is enabled (current length: %d)", len(c.Security.StateSigningKey))
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level '%s', must be one of: %s", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must be absolute http(s): %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL is missing a host: %s", raw)
	}
	return nil
}

// Helper function to check if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
