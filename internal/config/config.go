package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/superhero-cards-go/internal/constants"
	"github.com/kapu/superhero-cards-go/internal/util"
)

type Config struct {
	Server    ServerConfig
	Superhero SuperheroConfig
	Bootstrap BootstrapConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Addr                string
	LiveUpdatesEnabled  bool
	SnapshotWaitTimeout time.Duration
}

type SuperheroConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// Endpoint returns the hero lookup prefix; a hero id is appended to it.
func (c SuperheroConfig) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + c.APIToken
}

type BootstrapConfig struct {
	HeroIDs []int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:                getEnv("SERVER_ADDR", ":8080"),
			LiveUpdatesEnabled:  getEnvBool("LIVE_UPDATES_ENABLED", true),
			SnapshotWaitTimeout: getEnvDuration("SNAPSHOT_TIMEOUT_SECONDS", constants.ServerConfig.SnapshotTimeout),
		},
		Superhero: SuperheroConfig{
			BaseURL:  getEnv("SUPERHERO_BASE_URL", constants.APIConfig.SuperheroBaseURL),
			APIToken: getEnv("SUPERHERO_API_TOKEN", ""),
			Timeout:  getEnvDuration("SUPERHERO_TIMEOUT_SECONDS", constants.APIConfig.SuperheroTimeout),
		},
		Bootstrap: BootstrapConfig{
			HeroIDs: parseHeroIDs(os.Getenv("HERO_BOOTSTRAP_IDS")),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("HERO_CACHE_TTL_MINUTES", int(constants.CacheTTL.HeroResponse/time.Minute))) * time.Minute,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	if c.Superhero.BaseURL == "" {
		return fmt.Errorf("SUPERHERO_BASE_URL is required")
	}
	if c.Superhero.APIToken == "" {
		return fmt.Errorf("SUPERHERO_API_TOKEN is required")
	}
	if len(c.Bootstrap.HeroIDs) == 0 {
		return fmt.Errorf("HERO_BOOTSTRAP_IDS must contain at least one id")
	}
	for _, id := range c.Bootstrap.HeroIDs {
		if id <= 0 {
			return fmt.Errorf("HERO_BOOTSTRAP_IDS must be positive, got %d", id)
		}
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED is set")
	}
	return nil
}

func parseHeroIDs(value string) []int {
	if strings.TrimSpace(value) == "" {
		ids := make([]int, len(constants.BootstrapHeroIDs))
		copy(ids, constants.BootstrapHeroIDs)
		return ids
	}
	return util.ParseIntList(value)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
