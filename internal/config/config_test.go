package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	require.NotEqual(t, cfg.JWT.Secret, cfg.JWT.RefreshSecret)
	require.Equal(t, "refresh_token", cfg.Cookie.Name)
	require.Equal(t, "/api/v1/auth", cfg.Cookie.Path)
	require.True(t, cfg.Cookie.Secure)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_ACCESS_EXPIRY", "60")
	t.Setenv("REFRESH_COOKIE_SECURE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()

	require.Equal(t, "9000", cfg.Server.Port)
	require.Equal(t, time.Minute, cfg.JWT.AccessExpiry)
	require.False(t, cfg.Cookie.Secure)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
