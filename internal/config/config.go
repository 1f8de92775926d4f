// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned for an unsupported storage.driver value.
var ErrUnknownDriver = errors.New("unknown storage driver")

// Config holds all application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Game     GameConfig     `mapstructure:"game"`
	Search   SearchConfig   `mapstructure:"search"`
	Daily    DailyConfig    `mapstructure:"daily"`
	Log      LogConfig      `mapstructure:"log"`
}

// StorageConfig selects where daily records are kept.
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// SQLiteConfig holds the embedded database configuration.
type SQLiteConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// GameConfig holds game session configuration.
type GameConfig struct {
	// Timezone decides when the daily city rolls over. Empty means local time.
	Timezone     string `mapstructure:"timezone"`
	Lang         string `mapstructure:"lang"`
	ShareBaseURL string `mapstructure:"share_base_url"`
}

// SearchConfig holds city search configuration.
type SearchConfig struct {
	Limit     int           `mapstructure:"limit"`
	Threshold float64       `mapstructure:"threshold"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize uint64        `mapstructure:"cache_size"`
}

// DailyConfig holds daily challenge persistence configuration.
type DailyConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Location resolves the configured timezone.
func (g *GameConfig) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid game timezone %q: %w", g.Timezone, err)
	}
	return loc, nil
}

// DailyKey returns the daily record key of a player.
func (d *DailyConfig) DailyKey(player string) string {
	if player == "" {
		return d.KeyPrefix
	}
	return d.KeyPrefix + ":" + player
}

// Validate checks values that viper cannot type check.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Storage.Driver)
	}
	if _, err := c.Game.Location(); err != nil {
		return err
	}
	return nil
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., STORAGE_DRIVER, DATABASE_HOST, GAME_TIMEZONE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK - env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", DriverSQLite)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "citycoords")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "citycoords")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("sqlite.path", "city-coords.db")
	v.SetDefault("sqlite.busy_timeout", "5s")

	v.SetDefault("game.timezone", "")
	v.SetDefault("game.lang", "en")
	v.SetDefault("game.share_base_url", "https://city-coords.app/")

	v.SetDefault("search.limit", 5)
	v.SetDefault("search.threshold", 0.4)
	v.SetDefault("search.cache_ttl", "10m")
	v.SetDefault("search.cache_size", 1024)

	v.SetDefault("daily.key_prefix", "city-coords-daily")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}
