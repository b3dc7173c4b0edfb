package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the testopsbot process.
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Database DatabaseConfig
	Redis    RedisConfig
	TestOps  TestOpsConfig
	Monitor  MonitorConfig
	Dialogue DialogueConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	AdminAPIKeyHash string
}

type TelegramConfig struct {
	Token         string
	OwnerUsername string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type TestOpsConfig struct {
	APIBase        string
	UIBase         string
	UserToken      string
	Timeout        time.Duration
	RetryDelay     time.Duration
	RateLimit      float64
	SchemaCacheTTL time.Duration
}

type MonitorConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type DialogueConfig struct {
	StateBackend  string
	StateTTL      time.Duration
	UserRateLimit int
}

type LogConfig struct {
	Level string
}

var validStateBackends = map[string]bool{
	"redis":  true,
	"memory": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("BOT_HTTP_PORT", 8080),
			Env:             envString("BOT_ENV", "development"),
			AdminAPIKeyHash: os.Getenv("ADMIN_API_KEY_HASH"),
		},
		Telegram: TelegramConfig{
			Token:         os.Getenv("TELEGRAM_BOT_TOKEN"),
			OwnerUsername: strings.TrimPrefix(os.Getenv("OWNER_USERNAME"), "@"),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		TestOps: TestOpsConfig{
			APIBase:        strings.TrimRight(os.Getenv("TESTOPS_API_BASE"), "/"),
			UIBase:         strings.TrimRight(os.Getenv("TESTOPS_URL"), "/"),
			UserToken:      os.Getenv("TESTOPS_USER_TOKEN"),
			Timeout:        envDuration("TESTOPS_TIMEOUT", 10*time.Second),
			RetryDelay:     envDuration("TESTOPS_RETRY_DELAY", 2*time.Second),
			RateLimit:      envFloat("TESTOPS_RATE_LIMIT", 10),
			SchemaCacheTTL: envDuration("TESTOPS_SCHEMA_CACHE_TTL", 5*time.Minute),
		},
		Monitor: MonitorConfig{
			Interval: envDuration("MONITOR_INTERVAL", 30*time.Second),
			Timeout:  envDuration("MONITOR_TIMEOUT", 12*time.Hour),
		},
		Dialogue: DialogueConfig{
			StateBackend:  envString("STATE_BACKEND", "redis"),
			StateTTL:      envDuration("STATE_TTL", 24*time.Hour),
			UserRateLimit: envInt("USER_RATE_LIMIT", 30),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings. It serves commands that
// never talk to chat or the test service, such as schema migrations.
func LoadDatabase() (DatabaseConfig, error) {
	cfg := databaseFromEnv()
	if cfg.URL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.TestOps.APIBase == "" {
		return fmt.Errorf("TESTOPS_API_BASE is required")
	}
	if !isHTTPURL(c.TestOps.APIBase) {
		return fmt.Errorf("TESTOPS_API_BASE must start with http:// or https://, got %q", c.TestOps.APIBase)
	}
	if c.TestOps.UIBase == "" {
		return fmt.Errorf("TESTOPS_URL is required")
	}
	if !isHTTPURL(c.TestOps.UIBase) {
		return fmt.Errorf("TESTOPS_URL must start with http:// or https://, got %q", c.TestOps.UIBase)
	}
	if c.TestOps.UserToken == "" {
		return fmt.Errorf("TESTOPS_USER_TOKEN is required")
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive, got %s", c.Monitor.Interval)
	}
	if c.Monitor.Timeout < c.Monitor.Interval {
		return fmt.Errorf("MONITOR_TIMEOUT (%s) must not be shorter than MONITOR_INTERVAL (%s)",
			c.Monitor.Timeout, c.Monitor.Interval)
	}

	if !validStateBackends[c.Dialogue.StateBackend] {
		return fmt.Errorf("STATE_BACKEND must be one of redis, memory; got %q", c.Dialogue.StateBackend)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
	}
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
