package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zoneinfo for Ledger.Timezone

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/carpool/internal/ledger"
	"github.com/mmynk/carpool/internal/models"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Storage   StorageConfig   `yaml:"storage"`
	Backup    BackupConfig    `yaml:"backup"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LedgerConfig is the roster and fare configuration injected into the ledger.
type LedgerConfig struct {
	Participants  []string `yaml:"participants"`
	Drivers       []string `yaml:"drivers"`
	DefaultFare   int64    `yaml:"default_fare"` // per leg, per passenger
	DriverPays    bool     `yaml:"driver_pays"`
	EnforceRoster bool     `yaml:"enforce_roster"`
	Currency      string   `yaml:"currency"`
	Timezone      string   `yaml:"timezone"` // decides "today" for period views
}

// StorageConfig selects the snapshot backend
type StorageConfig struct {
	Type        string `yaml:"type"` // "csv", "sqlite" or "postgres"
	CSVPath     string `yaml:"csv_path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
}

// BackupConfig contains scheduled backup settings
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron spec with seconds
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

// AuthConfig enables the shared passphrase login when PassphraseHash is set.
type AuthConfig struct {
	PassphraseHash  string `yaml:"passphrase_hash"`
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// RateLimitConfig limits RPCs per second across all clients. Zero disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		Ledger: LedgerConfig{
			Participants:  []string{"Wilson", "Valentina", "Jp", "Gerard", "Paula"},
			Drivers:       []string{"Wilson", "Valentina"},
			DefaultFare:   1250,
			EnforceRoster: true,
			Currency:      "CLP",
			Timezone:      "America/Santiago",
		},
		Storage: StorageConfig{
			Type:       "csv",
			CSVPath:    "trips.csv",
			SQLitePath: "./data/trips.db",
		},
		Backup: BackupConfig{
			Schedule: "0 0 3 * * *",
			Dir:      "./backups",
		},
		Auth:      AuthConfig{TokenTTLMinutes: 7 * 24 * 60},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from an optional YAML file, then .env, then the
// environment. An empty configPath uses the defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		// Read config file
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse YAML
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Missing .env is fine
	_ = godotenv.Load()

	// Override with environment variables if present
	if err := cfg.overrideWithEnv(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() error {
	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", val, err)
		}
		c.Server.Port = port
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = splitList(val)
	}

	// Ledger
	if val := os.Getenv("PARTICIPANTS"); val != "" {
		c.Ledger.Participants = splitList(val)
	}
	if val := os.Getenv("DRIVERS"); val != "" {
		c.Ledger.Drivers = splitList(val)
	}
	if val := os.Getenv("DEFAULT_FARE"); val != "" {
		fare, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_FARE %q: %w", val, err)
		}
		c.Ledger.DefaultFare = fare
	}
	if val := os.Getenv("DRIVER_PAYS"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid DRIVER_PAYS %q: %w", val, err)
		}
		c.Ledger.DriverPays = b
	}
	if val := os.Getenv("LEDGER_TIMEZONE"); val != "" {
		c.Ledger.Timezone = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("CSV_PATH"); val != "" {
		c.Storage.CSVPath = val
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		c.Storage.SQLitePath = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Storage.PostgresURL = val
	}

	// Backup
	if val := os.Getenv("BACKUP_ENABLED"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid BACKUP_ENABLED %q: %w", val, err)
		}
		c.Backup.Enabled = b
	}
	if val := os.Getenv("BACKUP_DIR"); val != "" {
		c.Backup.Dir = val
	}
	if val := os.Getenv("BACKUP_SCHEDULE"); val != "" {
		c.Backup.Schedule = val
	}

	// Auth
	if val := os.Getenv("AUTH_PASSPHRASE_HASH"); val != "" {
		c.Auth.PassphraseHash = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.Auth.JWTSecret = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Ledger validation
	if c.Ledger.DefaultFare < 0 {
		return fmt.Errorf("default fare must not be negative: %d", c.Ledger.DefaultFare)
	}
	if c.Ledger.EnforceRoster && len(c.Ledger.Participants) == 0 {
		return fmt.Errorf("participants are required when the roster is enforced")
	}
	for _, name := range append(append([]string{}, c.Ledger.Participants...), c.Ledger.Drivers...) {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, ",;") {
			return fmt.Errorf("invalid participant name: %q", name)
		}
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		return fmt.Errorf("invalid ledger timezone %q: %w", c.Ledger.Timezone, err)
	}

	// Storage validation
	switch c.Storage.Type {
	case "csv":
		if c.Storage.CSVPath == "" {
			return fmt.Errorf("storage csv_path is required")
		}
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage sqlite_path is required")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("storage postgres_url is required")
		}
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	// Backup validation
	if c.Backup.Enabled && c.Backup.Dir == "" {
		return fmt.Errorf("backup dir is required when backups are enabled")
	}

	// Auth validation
	if c.Auth.PassphraseHash != "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when a passphrase is configured")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("invalid token ttl: %d minutes", c.Auth.TokenTTLMinutes)
	}

	// Rate limit validation
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	// Log validation
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}

	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Roster returns the configured participants and drivers.
func (c *Config) Roster() models.Roster {
	return models.Roster{
		Participants: c.Ledger.Participants,
		Drivers:      c.Ledger.Drivers,
	}
}

// Policy returns the ledger validation rules.
func (c *Config) Policy() ledger.Policy {
	return ledger.Policy{
		Roster:        c.Roster(),
		EnforceRoster: c.Ledger.EnforceRoster,
		DriverPays:    c.Ledger.DriverPays,
	}
}

// Location returns the ledger timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TokenTTL returns how long a login stays valid.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
