package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE",
		"HTTP_ADDR", "HTTP_READ_TIMEOUT_SEC", "HTTP_WRITE_TIMEOUT_SEC", "HTTP_SHUTDOWN_TIMEOUT_SEC",
		"UPSTREAM_URL", "API_BASE_URL", "API_TIMEOUT_SEC",
		"AUTH_SIGNING_SECRET", "AUTH_COOKIE_NAME", "AUTH_TOKEN_LEEWAY_SEC",
		"ROUTE_ADMIN_PREFIX", "ROUTE_USER_PREFIX", "ROUTE_RESOURCE_PREFIXES",
		"ROUTE_LOGIN_PATH", "ROUTE_ADMIN_HOME", "ROUTE_USER_HOME", "ROUTE_ENFORCE_USER_ROUTES",
		"DATABASE_URL", "DECISION_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("UPSTREAM_URL", "http://app.internal:3000")
	t.Setenv("API_BASE_URL", "https://api.example.com/v1")
	t.Setenv("AUTH_SIGNING_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default HTTP addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout 10s, got %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Auth.CookieName != "auth-token" {
		t.Fatalf("expected default cookie name auth-token, got %q", cfg.Auth.CookieName)
	}
	if cfg.Routes.AdminPrefix != "/dashboard/admin" || cfg.Routes.UserPrefix != "/dashboard/user" {
		t.Fatalf("unexpected default route prefixes: %+v", cfg.Routes)
	}
	if len(cfg.Routes.ResourcePrefixes) != 1 || cfg.Routes.ResourcePrefixes[0] != "/resources" {
		t.Fatalf("unexpected default resource prefixes: %v", cfg.Routes.ResourcePrefixes)
	}
	if cfg.Routes.LoginPath != "/login" {
		t.Fatalf("expected default login path /login, got %q", cfg.Routes.LoginPath)
	}
	if cfg.Routes.EnforceUserRoutes {
		t.Fatalf("expected user-route enforcement off by default")
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Fatalf("expected default backend timeout 15s, got %v", cfg.Backend.Timeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("AUTH_COOKIE_NAME", "session")
	t.Setenv("ROUTE_RESOURCE_PREFIXES", "/resources, /files")
	t.Setenv("ROUTE_ENFORCE_USER_ROUTES", "true")
	t.Setenv("AUTH_TOKEN_LEEWAY_SEC", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" {
		t.Fatalf("expected addr :9000, got %q", cfg.HTTP.Addr)
	}
	if cfg.Auth.CookieName != "session" {
		t.Fatalf("expected cookie name session, got %q", cfg.Auth.CookieName)
	}
	if len(cfg.Routes.ResourcePrefixes) != 2 || cfg.Routes.ResourcePrefixes[1] != "/files" {
		t.Fatalf("unexpected resource prefixes: %v", cfg.Routes.ResourcePrefixes)
	}
	if !cfg.Routes.EnforceUserRoutes {
		t.Fatalf("expected user-route enforcement on")
	}
	if cfg.Auth.TokenLeeway != 30*time.Second {
		t.Fatalf("expected 30s leeway, got %v", cfg.Auth.TokenLeeway)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	body := `
upstream_url: http://app.internal:3000
backend:
  base_url: https://api.example.com/v1
auth:
  signing_secret: file-secret
  cookie_name: file-cookie
routes:
  enforce_user_routes: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	// Env wins over the file.
	t.Setenv("AUTH_COOKIE_NAME", "env-cookie")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Auth.SigningSecret != "file-secret" {
		t.Fatalf("expected secret from file, got %q", cfg.Auth.SigningSecret)
	}
	if cfg.Auth.CookieName != "env-cookie" {
		t.Fatalf("expected env override, got %q", cfg.Auth.CookieName)
	}
	if !cfg.Routes.EnforceUserRoutes {
		t.Fatalf("expected enforcement from file")
	}
	if cfg.Routes.LoginPath != "/login" {
		t.Fatalf("expected defaults preserved, got %q", cfg.Routes.LoginPath)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when required values are missing")
	}

	t.Setenv("UPSTREAM_URL", "http://app.internal:3000")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing API base URL")
	}

	t.Setenv("API_BASE_URL", "https://api.example.com/v1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}

	t.Setenv("AUTH_SIGNING_SECRET", "secret")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
}
