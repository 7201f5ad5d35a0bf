// Package config loads boot-time configuration purely from the
// environment, the way the teacher uses viper for its CLI flags and
// config file, adapted here to an env-only service with no config
// file and no flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server holds HTTP listener and middleware settings.
type Server struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	EnableKeepAlive bool
	KeepAliveURL    string
	AllowedOrigins  []string
}

// Database holds store connection and pooling settings.
type Database struct {
	Path            string
	MigrationDir    string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Auth holds API key authentication settings.
type Auth struct {
	APIKey string
}

// Config is the fully-resolved set of boot-time settings.
type Config struct {
	Server   Server
	Database Database
	Auth     Auth
}

// Load reads every recognized environment variable, applying defaults
// where unset, and fails if API_KEY is empty — the one setting with no
// safe default.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("ENABLE_KEEP_ALIVE", false)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DATABASE_PATH", "./issues.db")
	v.SetDefault("MIGRATION_DIR", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("API_KEY", "")
	v.SetDefault("APP_URL", "")
	v.SetDefault("RENDER_EXTERNAL_URL", "")

	apiKey := v.GetString("API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable is required")
	}

	cfg := &Config{
		Server: Server{
			Port:            v.GetString("PORT"),
			Host:            v.GetString("HOST"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			EnableKeepAlive: v.GetBool("ENABLE_KEEP_ALIVE"),
			KeepAliveURL:    keepAliveURL(v),
			AllowedOrigins:  parseOrigins(v.GetString("ALLOWED_ORIGINS")),
		},
		Database: Database{
			Path:            v.GetString("DATABASE_PATH"),
			MigrationDir:    v.GetString("MIGRATION_DIR"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: Auth{APIKey: apiKey},
	}
	return cfg, nil
}

func keepAliveURL(v *viper.Viper) string {
	if url := v.GetString("RENDER_EXTERNAL_URL"); url != "" {
		return url
	}
	return v.GetString("APP_URL")
}

// parseOrigins splits a comma-separated origin list, trimming
// whitespace around each entry. A single origin with no comma
// round-trips unchanged.
func parseOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
