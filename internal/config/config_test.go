package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FailsWithoutAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "secret", cfg.Auth.APIKey)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_CommaSeparatedOrigins(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,https://c.example.com")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://a.example.com", "https://b.example.com", "https://c.example.com",
	}, cfg.Server.AllowedOrigins)
}

func TestLoad_KeepAliveURLPrefersRenderExternalURL(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("APP_URL", "https://app.example.com")
	t.Setenv("RENDER_EXTERNAL_URL", "https://render.example.com")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://render.example.com", cfg.Server.KeepAliveURL)
}

func TestLoad_KeepAliveURLFallsBackToAppURL(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("RENDER_EXTERNAL_URL", "")
	t.Setenv("APP_URL", "https://app.example.com")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.com", cfg.Server.KeepAliveURL)
}

func TestParseOrigins_TrimsAndDropsEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a ,, b ,"))
}
