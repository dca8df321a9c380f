// Package config loads runtime configuration for the dialer server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration for the dialer server.
// Precedence: CLI flags > env vars > defaults.
type Config struct {
	DataDir  string
	HTTPPort int

	// SecretKey signs API and WebSocket JWTs, hex-encoded 32 bytes. An
	// ephemeral key is generated when empty.
	SecretKey              string
	AccessTokenExpireMins  int
	RefreshTokenExpireDays int

	// Twilio credentials. The mock provider is used when UseMockTelephony
	// is set, so real credentials are only needed in production.
	TwilioAccountSID         string
	TwilioAuthToken          string
	TwilioPhoneNumber        string
	TwilioAppSID             string
	TwilioAPIKeySID          string
	TwilioAPIKeySecret       string
	UseMockTelephony         bool
	ValidateWebhookSignature bool

	// PublicBaseURL is the externally reachable URL Twilio calls back on.
	PublicBaseURL string

	CORSOrigins string

	// Pacing defaults applied to the orchestrator.
	DefaultDialRatio  float64
	MaxAbandonRate    float64
	AMDTimeoutSeconds int
	MaxIdleSeconds    int

	LogLevel  string
	LogFormat string
}

// defaults
const (
	defaultDataDir                = "./data"
	defaultHTTPPort               = 8080
	defaultAccessTokenExpireMins  = 30
	defaultRefreshTokenExpireDays = 7
	defaultDialRatio              = 3.0
	defaultMaxAbandonRate         = 0.03
	defaultAMDTimeoutSeconds      = 30
	defaultMaxIdleSeconds         = 300
	defaultLogLevel               = "info"
	defaultLogFormat              = "text"
)

// envPrefix is the prefix for all dialer environment variables.
const envPrefix = "DIALER_"

// Load parses configuration from CLI flags and environment variables.
// Precedence: CLI flags > env vars > defaults.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("paralleldialer", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir, "data directory for the database")
	fs.IntVar(&cfg.HTTPPort, "http-port", defaultHTTPPort, "HTTP server listen port")
	fs.StringVar(&cfg.SecretKey, "secret-key", "", "hex-encoded 32-byte secret for JWT signing (auto-generated if empty)")
	fs.IntVar(&cfg.AccessTokenExpireMins, "access-token-expire-minutes", defaultAccessTokenExpireMins, "access token lifetime in minutes")
	fs.IntVar(&cfg.RefreshTokenExpireDays, "refresh-token-expire-days", defaultRefreshTokenExpireDays, "refresh token lifetime in days")
	fs.StringVar(&cfg.TwilioAccountSID, "twilio-account-sid", "", "Twilio account SID")
	fs.StringVar(&cfg.TwilioAuthToken, "twilio-auth-token", "", "Twilio auth token (also verifies webhook signatures)")
	fs.StringVar(&cfg.TwilioPhoneNumber, "twilio-phone-number", "", "default E.164 caller ID for outbound calls")
	fs.StringVar(&cfg.TwilioAppSID, "twilio-app-sid", "", "TwiML application SID for the Voice SDK")
	fs.StringVar(&cfg.TwilioAPIKeySID, "twilio-api-key-sid", "", "Twilio API key SID for client token signing")
	fs.StringVar(&cfg.TwilioAPIKeySecret, "twilio-api-key-secret", "", "Twilio API key secret for client token signing")
	fs.BoolVar(&cfg.UseMockTelephony, "twilio-use-mock", true, "use the in-process telephony mock instead of Twilio")
	fs.BoolVar(&cfg.ValidateWebhookSignature, "twilio-validate-signature", false, "verify X-Twilio-Signature on webhook callbacks")
	fs.StringVar(&cfg.PublicBaseURL, "public-base-url", "http://localhost:8080", "externally reachable base URL for webhooks")
	fs.StringVar(&cfg.CORSOrigins, "cors-origins", "", "comma-separated list of allowed CORS origins (use * for all)")
	fs.Float64Var(&cfg.DefaultDialRatio, "default-dial-ratio", defaultDialRatio, "base calls-per-operator dial ratio")
	fs.Float64Var(&cfg.MaxAbandonRate, "max-abandon-rate", defaultMaxAbandonRate, "target abandon rate for predictive pacing")
	fs.IntVar(&cfg.AMDTimeoutSeconds, "amd-timeout-seconds", defaultAMDTimeoutSeconds, "seconds to wait for a machine-detection verdict")
	fs.IntVar(&cfg.MaxIdleSeconds, "max-idle-seconds", defaultMaxIdleSeconds, "seconds before an available operator counts as long-idle")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaultLogFormat, "log output format (text, json)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	applyEnvOverrides(fs, lookupEnv)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides sets flag values from DIALER_* environment variables for
// any flag not explicitly provided on the command line, preserving the
// precedence CLI flags > env vars > defaults.
func applyEnvOverrides(fs *flag.FlagSet, lookupEnv func(string) (string, bool)) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	fs.VisitAll(func(f *flag.Flag) {
		if set[f.Name] {
			return
		}
		envVar := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		val, ok := lookupEnv(envVar)
		if !ok || val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil {
			slog.Warn("ignoring invalid environment value", "var", envVar, "error", err)
		}
	})
}

// validate checks that the config values are sane.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http-port must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.AccessTokenExpireMins < 1 {
		return fmt.Errorf("access-token-expire-minutes must be positive, got %d", c.AccessTokenExpireMins)
	}
	if c.RefreshTokenExpireDays < 1 {
		return fmt.Errorf("refresh-token-expire-days must be positive, got %d", c.RefreshTokenExpireDays)
	}
	if c.DefaultDialRatio <= 0 {
		return fmt.Errorf("default-dial-ratio must be positive, got %g", c.DefaultDialRatio)
	}
	if c.MaxAbandonRate <= 0 || c.MaxAbandonRate >= 1 {
		return fmt.Errorf("max-abandon-rate must be in (0, 1), got %g", c.MaxAbandonRate)
	}
	if c.AMDTimeoutSeconds < 1 {
		return fmt.Errorf("amd-timeout-seconds must be positive, got %d", c.AMDTimeoutSeconds)
	}
	if c.MaxIdleSeconds < 1 {
		return fmt.Errorf("max-idle-seconds must be positive, got %d", c.MaxIdleSeconds)
	}

	if !c.UseMockTelephony {
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioPhoneNumber == "" {
			return fmt.Errorf("twilio-account-sid, twilio-auth-token and twilio-phone-number are required unless twilio-use-mock is set")
		}
	}
	if c.ValidateWebhookSignature && c.TwilioAuthToken == "" {
		return fmt.Errorf("twilio-validate-signature requires twilio-auth-token")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log-level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("log-format must be one of text, json; got %q", c.LogFormat)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	return nil
}

// AccessTokenTTL returns the access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMins) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// AMDTimeout returns the machine-detection deadline.
func (c *Config) AMDTimeout() time.Duration {
	return time.Duration(c.AMDTimeoutSeconds) * time.Second
}

// MaxIdle returns the long-idle operator threshold.
func (c *Config) MaxIdle() time.Duration {
	return time.Duration(c.MaxIdleSeconds) * time.Second
}

// SecretKeyBytes returns the decoded 32-byte JWT signing secret. If none is
// configured it generates a random key for the process lifetime.
func (c *Config) SecretKeyBytes() ([]byte, error) {
	if c.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generating secret key: %w", err)
		}
		c.SecretKey = hex.EncodeToString(key)
		slog.Warn("no secret-key configured, generated ephemeral key (tokens will not survive restart)")
		return key, nil
	}
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("decoding secret key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("secret key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// SlogHandler returns a slog.Handler with the configured format and level.
func (c *Config) SlogHandler(w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SlogLevel returns the slog.Level corresponding to the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
