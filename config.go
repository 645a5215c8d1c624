package permkit

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kelseyhightower/envconfig"
)

// ConfigPrefix is the environment prefix read by LoadConfig.
const ConfigPrefix = "PERMKIT"

// Config holds runtime configuration for services embedding permkit.
type Config struct {
	DatabaseURL      string        `envconfig:"DATABASE_URL" validate:"omitempty,url"`
	RedisAddr        string        `envconfig:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	SettingsCacheTTL time.Duration `envconfig:"SETTINGS_CACHE_TTL" default:"5m" validate:"gte=0"`
	JWTSecret        string        `envconfig:"JWT_SECRET" validate:"omitempty,min=16"`
	JWTIssuer        string        `envconfig:"JWT_ISSUER"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	FallbackRole     string        `envconfig:"FALLBACK_ROLE"`
}

// LoadConfig reads configuration from PERMKIT_* environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ConfigPrefix, &cfg); err != nil {
		return nil, NewError(ErrInvalidConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats and that FallbackRole, when set, is well formed.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return NewError(ErrInvalidConfig, err.Error())
	}
	if c.FallbackRole != "" {
		if _, err := ParseRole(c.FallbackRole); err != nil {
			return NewError(ErrInvalidConfig, fmt.Sprintf("fallback role: %v", err))
		}
	}
	return nil
}

// Registry returns the default role table with the configured fallback role applied.
func (c *Config) Registry() *Registry {
	r := DefaultRegistry()
	if c == nil || c.FallbackRole == "" {
		return r
	}
	role, err := ParseRole(c.FallbackRole)
	if err != nil {
		return r
	}
	return r.Fallback(role)
}

// UserExtractor returns a JWT-backed extractor, or nil when no secret is configured.
func (c *Config) UserExtractor() UserExtractor {
	if c == nil || c.JWTSecret == "" {
		return nil
	}
	var opts []jwt.ParserOption
	if c.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(c.JWTIssuer))
	}
	return JWTUserExtractor(HMACKeyFunc([]byte(c.JWTSecret)), opts...)
}

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
}
