// Package config assembles gateway configuration from built-in defaults, an
// optional YAML file (CONFIG_FILE), and environment variables, in that order
// of precedence (env wins).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP            HTTPConfig    `yaml:"http"`
	UpstreamURL     string        `yaml:"upstream_url"`
	Backend         BackendConfig `yaml:"backend"`
	Auth            AuthConfig    `yaml:"auth"`
	Routes          RoutesConfig  `yaml:"routes"`
	DatabaseURL     string        `yaml:"database_url"`
	DecisionLogFile string        `yaml:"decision_log_file"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	SigningSecret string        `yaml:"signing_secret"`
	CookieName    string        `yaml:"cookie_name"`
	TokenLeeway   time.Duration `yaml:"token_leeway"`
}

type RoutesConfig struct {
	AdminPrefix       string   `yaml:"admin_prefix"`
	UserPrefix        string   `yaml:"user_prefix"`
	ResourcePrefixes  []string `yaml:"resource_prefixes"`
	LoginPath         string   `yaml:"login_path"`
	AdminHome         string   `yaml:"admin_home"`
	UserHome          string   `yaml:"user_home"`
	EnforceUserRoutes bool     `yaml:"enforce_user_routes"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Backend: BackendConfig{
			Timeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			CookieName: "auth-token",
		},
		Routes: RoutesConfig{
			AdminPrefix:      "/dashboard/admin",
			UserPrefix:       "/dashboard/user",
			ResourcePrefixes: []string{"/resources"},
			LoginPath:        "/login",
			AdminHome:        "/dashboard/admin",
			UserHome:         "/dashboard/user",
		},
		DecisionLogFile: "./data/decisions.log",
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.ReadTimeout = getEnvSeconds("HTTP_READ_TIMEOUT_SEC", cfg.HTTP.ReadTimeout)
	cfg.HTTP.WriteTimeout = getEnvSeconds("HTTP_WRITE_TIMEOUT_SEC", cfg.HTTP.WriteTimeout)
	cfg.HTTP.ShutdownTimeout = getEnvSeconds("HTTP_SHUTDOWN_TIMEOUT_SEC", cfg.HTTP.ShutdownTimeout)
	cfg.UpstreamURL = getEnv("UPSTREAM_URL", cfg.UpstreamURL)
	cfg.Backend.BaseURL = getEnv("API_BASE_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = getEnvSeconds("API_TIMEOUT_SEC", cfg.Backend.Timeout)
	cfg.Auth.SigningSecret = getEnv("AUTH_SIGNING_SECRET", cfg.Auth.SigningSecret)
	cfg.Auth.CookieName = getEnv("AUTH_COOKIE_NAME", cfg.Auth.CookieName)
	cfg.Auth.TokenLeeway = getEnvSeconds("AUTH_TOKEN_LEEWAY_SEC", cfg.Auth.TokenLeeway)
	cfg.Routes.AdminPrefix = getEnv("ROUTE_ADMIN_PREFIX", cfg.Routes.AdminPrefix)
	cfg.Routes.UserPrefix = getEnv("ROUTE_USER_PREFIX", cfg.Routes.UserPrefix)
	cfg.Routes.ResourcePrefixes = getEnvList("ROUTE_RESOURCE_PREFIXES", cfg.Routes.ResourcePrefixes)
	cfg.Routes.LoginPath = getEnv("ROUTE_LOGIN_PATH", cfg.Routes.LoginPath)
	cfg.Routes.AdminHome = getEnv("ROUTE_ADMIN_HOME", cfg.Routes.AdminHome)
	cfg.Routes.UserHome = getEnv("ROUTE_USER_HOME", cfg.Routes.UserHome)
	cfg.Routes.EnforceUserRoutes = getEnvBool("ROUTE_ENFORCE_USER_ROUTES", cfg.Routes.EnforceUserRoutes)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DecisionLogFile = getEnv("DECISION_LOG_FILE", cfg.DecisionLogFile)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.UpstreamURL == "" {
		return fmt.Errorf("UPSTREAM_URL must not be empty")
	}
	if cfg.Backend.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.Auth.SigningSecret == "" {
		return fmt.Errorf("AUTH_SIGNING_SECRET must not be empty")
	}
	if cfg.Auth.CookieName == "" {
		return fmt.Errorf("AUTH_COOKIE_NAME must not be empty")
	}
	if cfg.Routes.AdminPrefix == "" || cfg.Routes.UserPrefix == "" {
		return fmt.Errorf("route prefixes must not be empty")
	}
	if cfg.Routes.LoginPath == "" || cfg.Routes.AdminHome == "" || cfg.Routes.UserHome == "" {
		return fmt.Errorf("login and home routes must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
