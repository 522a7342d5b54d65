package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Sentry   SentryConfig
	Stats    StatsConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
	Issuer    string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL          string
	Password     string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency         int
	DailySnapshotCron   string
	WarmCacheCron       string
	CurrencyRefreshCron string
}

// Load loads configuration from the .env file (optional) and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env file is optional for production (env vars are used)
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := fromViper(viper.GetViper())

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// fromViper maps the flat snake_case keys onto the nested config sections.
func fromViper(v *viper.Viper) *Config {
	db := DefaultDatabaseConfig()
	db.URL = v.GetString("database_url")
	if n := v.GetInt("database_max_connections"); n > 0 {
		db.MaxConnections = n
	}
	if n := v.GetInt("database_min_connections"); n > 0 {
		db.MinConnections = n
	}
	if d := v.GetDuration("database_statement_timeout"); d > 0 {
		db.StatementTimeout = d
	}

	return &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server_port"),
			ReadTimeout:     v.GetDuration("server_read_timeout"),
			WriteTimeout:    v.GetDuration("server_write_timeout"),
			ShutdownTimeout: v.GetDuration("server_shutdown_timeout"),
			RateLimitRPS:    v.GetInt("rate_limit_rps"),
			RateLimitBurst:  v.GetInt("rate_limit_burst"),
		},
		Database: db,
		Redis: RedisConfig{
			URL:          v.GetString("redis_url"),
			Password:     v.GetString("redis_password"),
			PoolSize:     v.GetInt("redis_pool_size"),
			MinIdleConns: v.GetInt("redis_min_idle_conns"),
			DialTimeout:  v.GetDuration("redis_dial_timeout"),
			ReadTimeout:  v.GetDuration("redis_read_timeout"),
			WriteTimeout: v.GetDuration("redis_write_timeout"),
			PoolTimeout:  v.GetDuration("redis_pool_timeout"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("jwt_secret"),
			AccessTTL: v.GetDuration("jwt_access_ttl"),
			Issuer:    v.GetString("jwt_issuer"),
		},
		Sentry: SentryConfig{
			DSN:         v.GetString("sentry_dsn"),
			Environment: v.GetString("sentry_environment"),
			Release:     v.GetString("sentry_release"),
		},
		Stats: statsFromViper(v),
		Worker: WorkerConfig{
			Concurrency:         v.GetInt("worker_concurrency"),
			DailySnapshotCron:   v.GetString("worker_daily_snapshot_cron"),
			WarmCacheCron:       v.GetString("worker_warm_cache_cron"),
			CurrencyRefreshCron: v.GetString("worker_currency_refresh_cron"),
		},
	}
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_read_timeout", 10*time.Second)
	viper.SetDefault("server_write_timeout", 30*time.Second)
	viper.SetDefault("server_shutdown_timeout", 30*time.Second)
	viper.SetDefault("rate_limit_rps", 20)
	viper.SetDefault("rate_limit_burst", 40)

	// JWT defaults
	viper.SetDefault("jwt_access_ttl", 15*time.Minute)
	viper.SetDefault("jwt_issuer", "subscription-metrics")

	// Redis defaults
	viper.SetDefault("redis_pool_size", 10)
	viper.SetDefault("redis_min_idle_conns", 3)
	viper.SetDefault("redis_dial_timeout", 5*time.Second)
	viper.SetDefault("redis_read_timeout", 3*time.Second)
	viper.SetDefault("redis_write_timeout", 3*time.Second)
	viper.SetDefault("redis_pool_timeout", 4*time.Second)

	// Sentry defaults
	viper.SetDefault("sentry_environment", "development")

	// Worker defaults
	viper.SetDefault("worker_concurrency", 5)
	viper.SetDefault("worker_daily_snapshot_cron", "10 0 * * *")
	viper.SetDefault("worker_warm_cache_cron", "*/15 * * * *")
	viper.SetDefault("worker_currency_refresh_cron", "*/30 * * * *")

	setStatsDefaults(viper.GetViper())
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return validateStats(cfg.Stats)
}
