package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"UPSTREAM_API_KEY": "anon-key"}))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, DefaultUpstreamURL, cfg.Upstream.BaseURL)
	assert.Equal(t, "anon-key", cfg.Upstream.APIKey)
	assert.Empty(t, cfg.Upstream.DefaultToken)
	assert.Equal(t, DefaultTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, "ios", cfg.Upstream.Platform)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"UPSTREAM_API_KEY":       "k",
		"UPSTREAM_URL":           "http://localhost:9999/",
		"UPSTREAM_DEFAULT_TOKEN": " tok ",
		"UPSTREAM_TIMEOUT":       "5s",
		"UPSTREAM_PLATFORM":      "Android",
		"PORT":                   "9090",
		"CORS_ALLOWED_ORIGINS":   "http://a.test, http://b.test,",
		"SSO_REDIRECT_URL":       "http://app.test/callback",
		"LOG_LEVEL":              "debug",
		"LOG_FORMAT":             "console",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://localhost:9999", cfg.Upstream.BaseURL)
	assert.Equal(t, "tok", cfg.Upstream.DefaultToken)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "android", cfg.Upstream.Platform)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "http://app.test/callback", cfg.SSO.RedirectURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing api key", map[string]string{}, "UPSTREAM_API_KEY is required"},
		{"relative url", map[string]string{"UPSTREAM_API_KEY": "k", "UPSTREAM_URL": "/nope"}, "UPSTREAM_URL"},
		{"ftp url", map[string]string{"UPSTREAM_API_KEY": "k", "UPSTREAM_URL": "ftp://host"}, "UPSTREAM_URL"},
		{"port not a number", map[string]string{"UPSTREAM_API_KEY": "k", "PORT": "http"}, "PORT"},
		{"port out of range", map[string]string{"UPSTREAM_API_KEY": "k", "PORT": "70000"}, "PORT"},
		{"zero timeout", map[string]string{"UPSTREAM_API_KEY": "k", "UPSTREAM_TIMEOUT": "0s"}, "UPSTREAM_TIMEOUT"},
		{"bad timeout", map[string]string{"UPSTREAM_API_KEY": "k", "UPSTREAM_TIMEOUT": "soon"}, "UPSTREAM_TIMEOUT"},
		{"unknown platform", map[string]string{"UPSTREAM_API_KEY": "k", "UPSTREAM_PLATFORM": "watchos"}, "UPSTREAM_PLATFORM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := FromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ReadsProcessEnv(t *testing.T) {
	t.Setenv("UPSTREAM_API_KEY", "from-env")
	t.Setenv("PORT", "8181")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Upstream.APIKey)
	assert.Equal(t, 8181, cfg.Port)
}
