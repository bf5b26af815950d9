package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// LoadFromEnv overrides configuration values with environment variables.
// A nil lookuper reads the process environment.
//
// Recognised variables (all optional):
//
//	SERVER_PORT, SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT, SERVER_SHUTDOWN_TIMEOUT
//	SPAREBANK_OAUTH_CLIENT_ID, SPAREBANK_OAUTH_CLIENT_SECRET, SPAREBANK_OAUTH_REDIRECT_URI,
//	SPAREBANK_OAUTH_TOKEN_URI, SPAREBANK_OAUTH_AUTHORIZE_URI
//	BANKING_ACCOUNTS_URI, UPSTREAM_TIMEOUT_SECONDS
//	SECURITY_VALIDATE_STATE, SECURITY_STATE_SIGNING_KEY, SECURITY_STATE_TTL_SECONDS
//	LOG_LEVEL, LOG_FORMAT, TRACING_ENABLED, TRACING_SERVICE_NAME
func (c *Config) LoadFromEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	return envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   c,
		Lookuper: lookuper,
	})
}
