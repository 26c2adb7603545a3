package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(1250), cfg.Ledger.DefaultFare)
	assert.Equal(t, []string{"Wilson", "Valentina"}, cfg.Roster().Drivers)
	assert.Equal(t, "trips.csv", cfg.Storage.CSVPath)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "America/Santiago", cfg.Location().String())

	policy := cfg.Policy()
	assert.True(t, policy.EnforceRoster)
	assert.False(t, policy.DriverPays)
	assert.True(t, policy.Roster.IsParticipant("Gerard"))
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ledger:
  participants: [Ana, Beto, Carla]
  drivers: [Ana]
  default_fare: 1500
  driver_pays: true
storage:
  type: sqlite
  sqlite_path: /tmp/carpool.db
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"Ana", "Beto", "Carla"}, cfg.Ledger.Participants)
	assert.Equal(t, int64(1500), cfg.Ledger.DefaultFare)
	assert.True(t, cfg.Policy().DriverPays)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "CLP", cfg.Ledger.Currency, "unset keys keep their defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("PARTICIPANTS", "Ana, Beto ,Carla")
	t.Setenv("DEFAULT_FARE", "900")
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/carpool")
	t.Setenv("BACKUP_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"Ana", "Beto", "Carla"}, cfg.Ledger.Participants)
	assert.Equal(t, int64(900), cfg.Ledger.DefaultFare)
	assert.Equal(t, "postgres://localhost/carpool", cfg.Storage.PostgresURL)
	assert.True(t, cfg.Backup.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [port"))
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("bad env number", func(t *testing.T) {
		t.Setenv("DEFAULT_FARE", "mil")
		_, err := Load("")
		assert.ErrorContains(t, err, "DEFAULT_FARE")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"negative fare", func(c *Config) { c.Ledger.DefaultFare = -1 }, "default fare"},
		{"empty roster", func(c *Config) { c.Ledger.Participants = nil }, "participants are required"},
		{"separator in name", func(c *Config) { c.Ledger.Drivers = []string{"Ana;Beto"} }, "invalid participant name"},
		{"unknown timezone", func(c *Config) { c.Ledger.Timezone = "Mars/Olympus" }, "invalid ledger timezone"},
		{"unknown storage", func(c *Config) { c.Storage.Type = "sheets" }, "unknown storage type"},
		{"postgres without url", func(c *Config) { c.Storage.Type = "postgres" }, "postgres_url is required"},
		{"passphrase without secret", func(c *Config) { c.Auth.PassphraseHash = "$2a$10$x" }, "jwt secret is required"},
		{"negative rate", func(c *Config) { c.RateLimit.RPS = -1 }, "rate limit"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
