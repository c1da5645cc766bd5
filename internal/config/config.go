package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the optional YAML file applied before environment
// variables. Environment variables always win.
const ConfigPathEnv = "CONFIG_PATH"

type Config struct {
	// HTTP Server
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Backend selection
	DataBackend string `yaml:"data_backend"`

	// Database
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// Memory backend seed directory, optionally watched for changes
	DataDirectory string `yaml:"data_directory"`
	WatchSeed     bool   `yaml:"watch_seed"`

	// AMQP fan-out of update notifications, disabled when the URL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`
	InstanceID   string `yaml:"instance_id"`

	// Performance cache
	CacheSize            int           `yaml:"cache_size"`
	CacheTTL             time.Duration `yaml:"cache_ttl"`
	CacheCleanupInterval time.Duration `yaml:"cache_cleanup_interval"`

	// Tables
	PageSize int `yaml:"page_size"`

	// Rate limiting
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

func defaults() *Config {
	host, _ := os.Hostname()
	if host == "" {
		host = "royalties"
	}
	return &Config{
		Port:                 "8081",
		LogLevel:             "info",
		DataBackend:          "memory",
		SQLiteDBPath:         "./data/royalties.db",
		DataDirectory:        "data",
		AMQPExchange:         "royalties.updates",
		InstanceID:           host + "-" + strconv.Itoa(os.Getpid()),
		CacheSize:            64,
		CacheTTL:             5 * time.Minute,
		CacheCleanupInterval: time.Minute,
		PageSize:             10,
		RateLimitPerMinute:   120,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_PATH and the environment, in that order.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.DataDirectory = getEnv("DATA_DIRECTORY", cfg.DataDirectory)
	cfg.WatchSeed = getEnvBool("WATCH_SEED", cfg.WatchSeed)

	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)

	cfg.CacheSize = getEnvInt("CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.CacheCleanupInterval = getEnvDuration("CACHE_CLEANUP_INTERVAL", cfg.CacheCleanupInterval)
	cfg.PageSize = getEnvInt("PAGE_SIZE", cfg.PageSize)
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// UpdateQueue is the per-instance AMQP queue name.
func (c *Config) UpdateQueue() string {
	if c.AMQPQueue != "" {
		return c.AMQPQueue
	}
	return c.AMQPExchange + "." + c.InstanceID
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "memory" && c.WatchSeed && c.DataDirectory == "" {
		errors = append(errors, "data directory cannot be empty when watching seed files")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.InstanceID == "" && c.AMQPQueue == "" {
			errors = append(errors, "instance ID or AMQP queue is required when AMQP URL is provided")
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
