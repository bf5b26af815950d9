package config

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from an optional dotenv file, the YAML config file
// and environment variables, in that order of increasing precedence.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	// 1. Load .env into the process environment (existing variables win)
	if err := LoadDotEnv(getEnv("DOTENV_FILE", ".env")); err != nil {
		return nil, err
	}

	// 2. Load YAML config
	configPath := getEnv("CONFIG_FILE", "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		if err := LoadFromFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// 3. Apply environment variable overrides
	if err := cfg.LoadFromEnv(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// 4. Fill the gaps and validate
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads a dotenv file if it exists. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load dotenv file %s: %w", path, err)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
