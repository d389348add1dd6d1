package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile         = ".env"
	defaultAddress         = ":8080"
	defaultBasePath        = "/"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxUseCaseBytes = 16 * 1024
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	defaultCSRFCookieName  = "c360_csrf"
	defaultCSRFHeaderName  = "X-CSRF-Token"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Dashboard   DashboardConfig
	Security    SecurityConfig
	Logging     LoggingConfig
	Environment string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Address         string
	BasePath        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DashboardConfig controls the builder pipeline inputs.
type DashboardConfig struct {
	// CatalogFile points at a YAML catalog replacing the embedded default.
	CatalogFile     string
	MaxUseCaseBytes int
}

// SecurityConfig holds the CSRF double-submit cookie settings.
type SecurityConfig struct {
	CSRFCookieName   string
	CSRFHeaderName   string
	CSRFCookieSecure bool
}

// LoggingConfig selects the zap level.
type LoggingConfig struct {
	Level string
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides and environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	var invalid []string
	duration := func(key string, fallback time.Duration, field string) time.Duration {
		d, ok := durationWithDefault(lookup, key, fallback)
		if !ok {
			invalid = append(invalid, field)
		}
		return d
	}

	cfg := Config{
		Server: ServerConfig{
			Address:         stringWithDefault(lookup, "C360_HTTP_ADDR", defaultAddress),
			BasePath:        stringWithDefault(lookup, "C360_BASE_PATH", defaultBasePath),
			ReadTimeout:     duration("C360_READ_TIMEOUT", defaultReadTimeout, "Server.ReadTimeout"),
			WriteTimeout:    duration("C360_WRITE_TIMEOUT", defaultWriteTimeout, "Server.WriteTimeout"),
			IdleTimeout:     duration("C360_IDLE_TIMEOUT", defaultIdleTimeout, "Server.IdleTimeout"),
			ShutdownTimeout: duration("C360_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, "Server.ShutdownTimeout"),
		},
		Dashboard: DashboardConfig{
			CatalogFile: stringWithDefault(lookup, "C360_CATALOG_FILE", ""),
		},
		Security: SecurityConfig{
			CSRFCookieName:   stringWithDefault(lookup, "C360_CSRF_COOKIE_NAME", defaultCSRFCookieName),
			CSRFHeaderName:   stringWithDefault(lookup, "C360_CSRF_HEADER_NAME", defaultCSRFHeaderName),
			CSRFCookieSecure: boolWithDefault(lookup, "C360_CSRF_COOKIE_SECURE", false),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "C360_ENVIRONMENT", defaultEnvironment)),
	}

	maxBytes, ok := intWithDefault(lookup, "C360_MAX_USE_CASE_BYTES", defaultMaxUseCaseBytes)
	if !ok {
		invalid = append(invalid, "Dashboard.MaxUseCaseBytes")
	}
	cfg.Dashboard.MaxUseCaseBytes = maxBytes

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	fields := append([]string(nil), invalid...)

	if strings.TrimSpace(cfg.Server.Address) == "" {
		fields = append(fields, "Server.Address")
	}
	if cfg.Server.ReadTimeout <= 0 {
		fields = appendOnce(fields, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		fields = appendOnce(fields, "Server.WriteTimeout")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		fields = appendOnce(fields, "Server.ShutdownTimeout")
	}
	if cfg.Dashboard.MaxUseCaseBytes <= 0 {
		fields = appendOnce(fields, "Dashboard.MaxUseCaseBytes")
	}
	if strings.TrimSpace(cfg.Security.CSRFCookieName) == "" {
		fields = append(fields, "Security.CSRFCookieName")
	}

	if len(fields) > 0 {
		return &ValidationError{fields: fields}
	}
	return nil
}

func appendOnce(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if _, err := os.Stat(absPath); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	values, err := godotenv.Read(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// durationWithDefault reports false when a value is present but unparsable.
func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) (time.Duration, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return d, true
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) (int, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback, false
	}
	return parsed, true
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
