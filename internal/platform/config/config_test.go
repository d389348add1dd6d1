package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Server.BasePath != "/" {
		t.Errorf("expected default base path /, got %s", cfg.Server.BasePath)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Dashboard.MaxUseCaseBytes != 16*1024 {
		t.Errorf("unexpected max use case bytes: %d", cfg.Dashboard.MaxUseCaseBytes)
	}
	if cfg.Dashboard.CatalogFile != "" {
		t.Errorf("expected embedded catalog by default, got %q", cfg.Dashboard.CatalogFile)
	}
	if cfg.Security.CSRFCookieName != defaultCSRFCookieName {
		t.Errorf("unexpected csrf cookie name: %s", cfg.Security.CSRFCookieName)
	}
	if cfg.Security.CSRFCookieSecure {
		t.Errorf("expected insecure csrf cookie for local")
	}
	if cfg.Environment != "local" {
		t.Errorf("expected environment local, got %s", cfg.Environment)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected info log level, got %s", cfg.Logging.Level)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		"C360_HTTP_ADDR":          "127.0.0.1:9090",
		"C360_BASE_PATH":          "/c360",
		"C360_WRITE_TIMEOUT":      "45s",
		"C360_CATALOG_FILE":       "/etc/c360/catalog.yaml",
		"C360_MAX_USE_CASE_BYTES": "2048",
		"C360_CSRF_COOKIE_SECURE": "yes",
		"C360_ENVIRONMENT":        "PROD",
		"LOG_LEVEL":               "DEBUG",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:9090" {
		t.Errorf("unexpected address %s", cfg.Server.Address)
	}
	if cfg.Server.BasePath != "/c360" {
		t.Errorf("unexpected base path %s", cfg.Server.BasePath)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("unexpected write timeout %s", cfg.Server.WriteTimeout)
	}
	if cfg.Dashboard.CatalogFile != "/etc/c360/catalog.yaml" {
		t.Errorf("unexpected catalog file %s", cfg.Dashboard.CatalogFile)
	}
	if cfg.Dashboard.MaxUseCaseBytes != 2048 {
		t.Errorf("unexpected max bytes %d", cfg.Dashboard.MaxUseCaseBytes)
	}
	if !cfg.Security.CSRFCookieSecure {
		t.Errorf("expected secure csrf cookie")
	}
	if cfg.Environment != "prod" {
		t.Errorf("expected lower-cased environment, got %s", cfg.Environment)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	env := map[string]string{
		"C360_READ_TIMEOUT":       "soon",
		"C360_MAX_USE_CASE_BYTES": "-1",
		"C360_SHUTDOWN_TIMEOUT":   "0s",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"Server.ReadTimeout":        false,
		"Dashboard.MaxUseCaseBytes": false,
		"Server.ShutdownTimeout":    false,
	}
	for _, field := range vErr.Fields() {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected %s in validation fields %v", field, vErr.Fields())
		}
	}
}

func TestLoadDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# local overrides\nexport C360_HTTP_ADDR=\":7070\"\nC360_BASE_PATH=/from-dotenv\nC360_ENVIRONMENT=staging\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(envFile),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"C360_ENVIRONMENT": "dev"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("expected address from .env, got %s", cfg.Server.Address)
	}
	if cfg.Server.BasePath != "/from-dotenv" {
		t.Errorf("expected base path from .env, got %s", cfg.Server.BasePath)
	}
	if cfg.Environment != "dev" {
		t.Errorf("expected env map to win over .env, got %s", cfg.Environment)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(context.Background(), WithEnvFile(filepath.Join(t.TempDir(), "absent.env")), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}
