package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{"JWT_SECRET": secret}))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Port:              "8080",
		DatabasePath:      "coursetrack.db",
		JWTSecret:         secret,
		BcryptCost:        12,
		CookieSecure:      true,
		CORSAllowedOrigin: "http://localhost:3000",
		LogLevel:          slog.LevelInfo,
		LoginRate:         0.2,
		LoginBurst:        5,
	}, cfg)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookup(map[string]string{
		"JWT_SECRET":    secret,
		"PORT":          "9000",
		"BCRYPT_COST":   "4",
		"COOKIE_SECURE": "false",
		"LOG_LEVEL":     "debug",
		"LOGIN_BURST":   "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 10.0, cfg.LoginBurst)
}

func TestFromLookup_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bcrypt not a number", map[string]string{"JWT_SECRET": secret, "BCRYPT_COST": "high"}},
		{"bcrypt too low", map[string]string{"JWT_SECRET": secret, "BCRYPT_COST": "3"}},
		{"bcrypt too high", map[string]string{"JWT_SECRET": secret, "BCRYPT_COST": "15"}},
		{"log level", map[string]string{"JWT_SECRET": secret, "LOG_LEVEL": "loud"}},
		{"login rate zero", map[string]string{"JWT_SECRET": secret, "LOGIN_RATE": "0"}},
		{"login burst", map[string]string{"JWT_SECRET": secret, "LOGIN_BURST": "many"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLookup(lookup(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET="+secret+"\nPORT=7070\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, secret, cfg.JWTSecret)
}
