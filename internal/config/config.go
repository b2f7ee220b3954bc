package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultUpstreamURL = "https://ujasntkfphywizsdaapi.supabase.co"
	DefaultPort        = 8080
	DefaultTimeout     = 20 * time.Second
	DefaultPlatform    = "ios"
)

// Platforms lists the platform filters the upstream catalogue understands
var Platforms = []string{"ios", "android", "web"}

// Config holds all configuration for the application
type Config struct {
	// Port the HTTP server listens on
	Port int

	// Upstream Configuration
	Upstream UpstreamConfig

	// CORS Configuration
	CORS CORSConfig

	// SSO Configuration
	SSO SSOConfig

	// Logging Configuration
	Logging LoggingConfig
}

// UpstreamConfig holds the settings for the outbound API client
type UpstreamConfig struct {
	BaseURL      string
	APIKey       string        // sent as the apikey header on every call
	DefaultToken string        // optional service-held bearer token
	Timeout      time.Duration // fixed per-request timeout
	Platform     string
}

// CORSConfig holds allowed origins for browser callers
type CORSConfig struct {
	AllowedOrigins []string
}

// SSOConfig holds delegated sign-on settings
type SSOConfig struct {
	RedirectURL string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function and validates it
func FromEnv(getenv func(string) string) (*Config, error) {
	apiKey := getenv("UPSTREAM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("UPSTREAM_API_KEY is required")
	}

	baseURL := strings.TrimRight(envOr(getenv, "UPSTREAM_URL", DefaultUpstreamURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("UPSTREAM_URL must be an absolute http(s) URL, got %q", baseURL)
	}

	port := DefaultPort
	if s := getenv("PORT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > 65535 {
			return nil, fmt.Errorf("PORT must be an integer between 1 and 65535, got %q", s)
		}
		port = v
	}

	timeout := DefaultTimeout
	if s := getenv("UPSTREAM_TIMEOUT"); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("UPSTREAM_TIMEOUT must be a positive duration, got %q", s)
		}
		timeout = v
	}

	platform := strings.ToLower(envOr(getenv, "UPSTREAM_PLATFORM", DefaultPlatform))
	if !ValidPlatform(platform) {
		return nil, fmt.Errorf("UPSTREAM_PLATFORM must be one of %s, got %q", strings.Join(Platforms, ", "), platform)
	}

	var origins []string
	for _, o := range strings.Split(envOr(getenv, "CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return &Config{
		Port: port,
		Upstream: UpstreamConfig{
			BaseURL:      baseURL,
			APIKey:       apiKey,
			DefaultToken: strings.TrimSpace(getenv("UPSTREAM_DEFAULT_TOKEN")),
			Timeout:      timeout,
			Platform:     platform,
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		SSO: SSOConfig{
			RedirectURL: getenv("SSO_REDIRECT_URL"),
		},
		Logging: LoggingConfig{
			Level:  envOr(getenv, "LOG_LEVEL", "info"),
			Format: envOr(getenv, "LOG_FORMAT", "json"),
		},
	}, nil
}

// ValidPlatform reports whether p is a known platform filter
func ValidPlatform(p string) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
