package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-wide configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Firebase  FirebaseConfig  `mapstructure:"firebase"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Checklist ChecklistConfig `mapstructure:"checklist"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig is the HTTP server configuration.
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig is the MySQL configuration.
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes
}

// DSN builds the MySQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

// FirebaseConfig locates the service-account credentials used for Firestore
// (device token registry) and Cloud Messaging.
type FirebaseConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	ProjectID       string `mapstructure:"project_id"`
}

// AuthConfig is the JWT verification configuration. Tokens are issued by the
// identity service; this subsystem only validates them.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// ChecklistConfig tunes the workflow engine and its scheduler.
type ChecklistConfig struct {
	// Timezone is the IANA zone all time windows are evaluated in.
	Timezone string `mapstructure:"timezone"`
	// UpcomingLeadMinutes is how far ahead of a window opening the
	// reminder push goes out.
	UpcomingLeadMinutes int `mapstructure:"upcoming_lead_minutes"`
	// MaterializeCron is the cron spec of the daily materialization sweep.
	MaterializeCron string `mapstructure:"materialize_cron"`
	// HistoryLimit caps the default page size of the history listing.
	HistoryLimit int `mapstructure:"history_limit"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment.
// Precedence: environment > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.name", "checkops")
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("firebase.credentials_file", "serviceAccountKey.json")
	v.SetDefault("firebase.project_id", "")

	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("checklist.timezone", "UTC")
	v.SetDefault("checklist.upcoming_lead_minutes", 30)
	v.SetDefault("checklist.materialize_cron", "5 0 * * *")
	v.SetDefault("checklist.history_limit", 50)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CHECKOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file: defaults plus environment are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535")
	}
	if _, err := time.LoadLocation(c.Checklist.Timezone); err != nil {
		return fmt.Errorf("config: invalid checklist.timezone %q: %w", c.Checklist.Timezone, err)
	}
	if c.Checklist.UpcomingLeadMinutes < 0 {
		return fmt.Errorf("config: checklist.upcoming_lead_minutes must not be negative")
	}
	return nil
}

// Location resolves the configured checklist timezone. Validate has already
// checked it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Checklist.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
