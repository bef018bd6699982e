package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rpattn/recordsearch/internal/db"
)

// Lookup backends.
const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
	BackendGraphQL  = "graphql"
)

// Config is the service configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Redis    RedisConfig
	Lookup   LookupConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// RedisConfig configures the lookup cache. An empty URL disables it.
type RedisConfig struct {
	URL string
	TTL time.Duration
}

// LookupConfig configures how reference filters are resolved.
type LookupConfig struct {
	Backend     string
	Endpoint    string
	Timeout     time.Duration
	BatchWait   time.Duration
	Concurrency int
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Database: db.DefaultConfig(),
		Redis: RedisConfig{
			TTL: 5 * time.Minute,
		},
		Lookup: LookupConfig{
			Backend:     BackendMemory,
			Timeout:     2 * time.Second,
			BatchWait:   2 * time.Millisecond,
			Concurrency: 8,
		},
	}
}

// Load reads config.yaml from configPath, if any, then applies RECORDSEARCH_*
// environment overrides (RECORDSEARCH_DATABASE_HOST, RECORDSEARCH_LOOKUP_BACKEND, ...).
func Load(configPath string) (Config, error) {
	// Start with default
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("RECORDSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // allow environment overrides

	// AutomaticEnv only answers keys viper already knows about
	for _, key := range []string{
		"server.addr", "server.allowed_origins",
		"database.host", "database.port", "database.user", "database.password",
		"database.dbname", "database.sslmode", "database.max_conns",
		"redis.url", "redis.ttl",
		"lookup.backend", "lookup.endpoint", "lookup.timeout", "lookup.batch_wait", "lookup.concurrency",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found? Use defaults + env
		slog.Info("No config.yaml found, using defaults and env vars")
	} else {
		slog.Info("Loaded config", "file", v.ConfigFileUsed())
	}

	// Override defaults if values exist
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("database.max_conns") {
		cfg.Database.MaxConns = v.GetInt32("database.max_conns")
	}

	if v.IsSet("redis.url") {
		cfg.Redis.URL = v.GetString("redis.url")
	}
	if v.IsSet("redis.ttl") {
		cfg.Redis.TTL = v.GetDuration("redis.ttl")
	}

	if v.IsSet("lookup.backend") {
		cfg.Lookup.Backend = strings.ToLower(v.GetString("lookup.backend"))
	}
	if v.IsSet("lookup.endpoint") {
		cfg.Lookup.Endpoint = v.GetString("lookup.endpoint")
	}
	if v.IsSet("lookup.timeout") {
		cfg.Lookup.Timeout = v.GetDuration("lookup.timeout")
	}
	if v.IsSet("lookup.batch_wait") {
		cfg.Lookup.BatchWait = v.GetDuration("lookup.batch_wait")
	}
	if v.IsSet("lookup.concurrency") {
		cfg.Lookup.Concurrency = v.GetInt("lookup.concurrency")
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Lookup.Backend {
	case BackendMemory, BackendDatabase:
	case BackendGraphQL:
		if c.Lookup.Endpoint == "" {
			return fmt.Errorf("lookup.endpoint is required for the %s backend", BackendGraphQL)
		}
	default:
		return fmt.Errorf("unknown lookup backend %q", c.Lookup.Backend)
	}
	if c.Lookup.Concurrency <= 0 {
		return fmt.Errorf("lookup.concurrency must be positive, got %d", c.Lookup.Concurrency)
	}
	return nil
}
