package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/var/lib/pagebound"},
		Engine: EngineConfig{
			StreakLocation:    time.UTC,
			ReconcileInterval: time.Hour,
			ActivityWorkers:   1,
			RateLimitRPS:      1,
			RateLimitBurst:    1,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"staging", func(c *Config) { c.App.Environment = "staging" }, ""},
		{"unknown env", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"env is case sensitive", func(c *Config) { c.App.Environment = "PRODUCTION" }, "invalid environment"},
		{"upper-case level", func(c *Config) { c.Logger.Level = "DEBUG" }, ""},
		{"unknown level", func(c *Config) { c.Logger.Level = "trace" }, "invalid log level"},
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }, "data path"},
		{"short auth key", func(c *Config) { c.Auth.KeyHex = "abcd" }, "AUTH_KEY"},
		{"negative reconcile", func(c *Config) { c.Engine.ReconcileInterval = -time.Second }, "reconcile"},
		{"zero reconcile disables", func(c *Config) { c.Engine.ReconcileInterval = 0 }, ""},
		{"no workers", func(c *Config) { c.Engine.ActivityWorkers = 0 }, "ACTIVITY_WORKERS"},
		{"no burst", func(c *Config) { c.Engine.RateLimitBurst = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := LoadConfig([]string{"-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Engine.ReconcileInterval)
	assert.Equal(t, time.UTC, cfg.Engine.StreakLocation)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, filepath.Join(dir, "pagebound.db"), cfg.Data.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "outbox"), cfg.Data.OutboxPath())
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.Data.BackupPath())
	assert.True(t, cfg.Server.AdvertiseMDNS)
	assert.Equal(t, "Pagebound", cfg.Server.Name)
}

func TestLoadConfig_FlagsBeatEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STREAK_TIMEZONE", "Europe/Berlin")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ADVERTISE_MDNS", "true")
	t.Setenv("SERVER_NAME", "Attic Shelf")

	cfg, err := LoadConfig([]string{
		"-port", "9100",
		"-advertise-mdns", "false",
		"-reconcile-interval", "0",
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Zero(t, cfg.Engine.ReconcileInterval)
	assert.Equal(t, "Europe/Berlin", cfg.Engine.StreakLocation.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Server.AdvertiseMDNS)
	assert.Equal(t, "Attic Shelf", cfg.Server.Name)
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	missing := filepath.Join(dir, "missing.env")

	_, err := LoadConfig([]string{"-streak-timezone", "Mars/Olympus", "-env-file", missing})
	assert.ErrorContains(t, err, "STREAK_TIMEZONE")

	_, err = LoadConfig([]string{"-read-timeout", "soon", "-env-file", missing})
	assert.ErrorContains(t, err, "SERVER_READ_TIMEOUT")

	_, err = LoadConfig([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := &Config{}
	require.NoError(t, cfg.expandDataPath())
	assert.Equal(t, filepath.Join(homeDir, "Pagebound", "data"), cfg.Data.BasePath)

	cfg = &Config{Data: DataConfig{BasePath: "~/journal"}}
	require.NoError(t, cfg.expandDataPath())
	assert.Equal(t, filepath.Join(homeDir, "journal"), cfg.Data.BasePath)

	cfg = &Config{Data: DataConfig{BasePath: "relative/data"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Data.BasePath))
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("PAGEBOUND_TEST_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "PAGEBOUND_TEST_KEY", "default"))
	assert.Equal(t, "env-value", getConfigValue("", "PAGEBOUND_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("", "PAGEBOUND_TEST_UNSET", "default"))
}

func TestNumericConfigValues(t *testing.T) {
	t.Setenv("PAGEBOUND_TEST_INT", "7")
	t.Setenv("PAGEBOUND_TEST_FLOAT", "2.5")
	t.Setenv("PAGEBOUND_TEST_BAD", "lots")

	assert.Equal(t, 7, getIntConfigValue("", "PAGEBOUND_TEST_INT", 1))
	assert.Equal(t, 1, getIntConfigValue("", "PAGEBOUND_TEST_BAD", 1))
	assert.InDelta(t, 2.5, getFloatConfigValue("", "PAGEBOUND_TEST_FLOAT", 1), 0.001)
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Pagebound
PB_TEST_LEVEL=debug

PB_TEST_QUOTED="some value"
  PB_TEST_SPACED  =  spaced value  
PB_TEST_KEEP=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("PB_TEST_KEEP", "from-env")
	for _, k := range []string{"PB_TEST_LEVEL", "PB_TEST_QUOTED", "PB_TEST_SPACED"} {
		t.Setenv(k, "")
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "debug", os.Getenv("PB_TEST_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("PB_TEST_QUOTED"))
	assert.Equal(t, "spaced value", os.Getenv("PB_TEST_SPACED"))
	assert.Equal(t, "from-env", os.Getenv("PB_TEST_KEEP"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOOD=1\nNOT A PAIR\n"), 0o644))

	err := loadEnvFile(envFile)
	assert.ErrorContains(t, err, "invalid format")
}
