package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds the service configuration parsed from environment variables.
type Config struct {
	ServiceName string `env:"SERVICE_NAME"     envDefault:"user-management-api"`
	HTTPAddr    string `env:"HTTP_ADDR"        envDefault:":3000"`
	AppURL      string `env:"APP_URL"          envDefault:"http://localhost:3000"`

	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"user_management"`

	// Consul registration is skipped when no address is configured.
	ConsulAddr string `env:"CONSUL_HTTP_ADDR"`

	TwoFactorIssuer string `env:"TWO_FACTOR_ISSUER" envDefault:"User Management API"`

	Token TokenConfig
}

// TokenConfig holds the signing secret and lifetimes for every token the
// service issues.
type TokenConfig struct {
	Secret                     string        `env:"JWT_SECRET"`
	Issuer                     string        `env:"TOKEN_ISSUER"                  envDefault:"user-management-api"`
	SessionTokenExpiresIn      time.Duration `env:"SESSION_TOKEN_EXPIRES_IN"      envDefault:"24h"`
	EmailVerificationExpiresIn time.Duration `env:"EMAIL_VERIFICATION_EXPIRES_IN" envDefault:"24h"`
	PasswordResetExpiresIn     time.Duration `env:"PASSWORD_RESET_EXPIRES_IN"     envDefault:"30m"`
}

// New parses the configuration from the environment. A missing signing secret
// or store address is a startup-time fatal error, never discovered
// per-request.
func New(logger *zerolog.Logger) *Config {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate configuration")
	}

	return &cfg
}

// validate checks that the configuration the service cannot run without is
// present.
func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("missing MONGO_URI environment variable")
	}
	if c.Token.Secret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}

	return nil
}
