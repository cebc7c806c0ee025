// Package config loads wubba settings from an optional YAML file and
// environment variables. Environment variables win over the file, which wins
// over the defaults. A .env file in the working directory is loaded into the
// environment first without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/wubba/pkg/cache"
	"github.com/Sternrassler/wubba/pkg/client"
	"github.com/Sternrassler/wubba/pkg/logging"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// API
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`

	// Response cache. An empty RedisURL disables caching.
	RedisURL string        `yaml:"redis_url"`
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Logging
	LogLevel  logging.LogLevel `yaml:"log_level"`
	LogPretty bool             `yaml:"log_pretty"`

	// ImageDir receives downloaded character images.
	ImageDir string `yaml:"image_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	clientCfg := client.DefaultConfig()
	return Config{
		BaseURL:   clientCfg.BaseURL,
		UserAgent: clientCfg.UserAgent,
		Timeout:   clientCfg.Timeout,
		CacheTTL:  cache.DefaultTTL,
		LogLevel:  logging.LevelInfo,
		ImageDir:  ".",
	}
}

// envFile is the dotenv file loaded by Load when present.
var envFile = ".env"

// Load reads the file named by WUBBA_CONFIG, if any, then applies
// environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Default()

	if path := os.Getenv("WUBBA_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("WUBBA_BASE_URL", c.BaseURL)
	c.UserAgent = getEnv("WUBBA_USER_AGENT", c.UserAgent)
	c.RedisURL = getEnv("WUBBA_REDIS_URL", c.RedisURL)
	c.ImageDir = getEnv("WUBBA_IMAGE_DIR", c.ImageDir)
	c.LogLevel = logging.LogLevel(getEnv("WUBBA_LOG_LEVEL", string(c.LogLevel)))

	var err error
	if c.Timeout, err = getDuration("WUBBA_TIMEOUT", c.Timeout); err != nil {
		return err
	}
	if c.CacheTTL, err = getDuration("WUBBA_CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	if c.LogPretty, err = getBool("WUBBA_LOG_PRETTY", c.LogPretty); err != nil {
		return err
	}
	return nil
}

// ClientConfig converts the settings into a client configuration. When a
// Redis URL is set, the returned config carries a connected-on-demand Redis
// client the caller must close.
func (c Config) ClientConfig() (client.Config, error) {
	cfg := client.DefaultConfig()
	cfg.BaseURL = c.BaseURL
	cfg.UserAgent = c.UserAgent
	cfg.Timeout = c.Timeout
	cfg.CacheTTL = c.CacheTTL

	if c.RedisURL != "" {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return client.Config{}, fmt.Errorf("parse redis url: %w", err)
		}
		cfg.Redis = redis.NewClient(opts)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, val, err)
	}
	return d, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, val)
	}
	return b, nil
}
