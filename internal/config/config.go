package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// redis, used for sessions and rate limiting
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// auth, rate limits are per client ip and minute
	SessionTTL                       time.Duration `toml:"session_ttl"`
	AnonymousSessionTTL              time.Duration `toml:"anonymous_session_ttl"`
	SessionCleanupInterval           time.Duration `toml:"session_cleanup_interval"`
	PasswordHashScheme               string        `toml:"password_hash_scheme"`
	LoginRateLimitAllowedPerMin      int           `toml:"login_rate_limit_allowed_per_min"`
	NewSessionRateLimitAllowedPerMin int           `toml:"new_session_rate_limit_allowed_per_min"`

	// calorie estimator artifacts
	ModelPath         string `toml:"model_path"`
	ScalerPath        string `toml:"scaler_path"`
	PredictionCacheMB int    `toml:"prediction_cache_mb"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env, with defaults applied
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config for env %s: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 7 * 24 * time.Hour
	}
	if c.AnonymousSessionTTL == 0 {
		c.AnonymousSessionTTL = 30 * time.Minute
	}
	if c.SessionCleanupInterval == 0 {
		c.SessionCleanupInterval = 8 * time.Hour
	}
	if c.PasswordHashScheme == "" {
		c.PasswordHashScheme = "bcrypt"
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
	if c.NewSessionRateLimitAllowedPerMin == 0 {
		c.NewSessionRateLimitAllowedPerMin = 10
	}
}

func (c *Config) Validate() error {
	if c.ModelPath == "" || c.ScalerPath == "" {
		return fmt.Errorf("model_path and scaler_path must be set")
	}
	switch c.PasswordHashScheme {
	case "bcrypt", "sha256":
	default:
		return fmt.Errorf("unknown password_hash_scheme: %s", c.PasswordHashScheme)
	}
	if c.PredictionCacheMB < 0 {
		return fmt.Errorf("prediction_cache_mb must not be negative")
	}
	return nil
}
