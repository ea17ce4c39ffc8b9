package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	ImageGen ImageGenConfig
	Crawler  CrawlerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LLMConfig configures the chat-completions endpoint used for borderline
// page classification and structured product extraction.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ImageGenConfig configures the image generation endpoint used for
// marketing imagery.
type ImageGenConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type CrawlerConfig struct {
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	MaxDepth     int
	MaxPages     int
	UserAgent    string
	FetchTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() (*Config, error) {
	// Missing .env is fine; deployment sets real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			APIKey:  os.Getenv("LLM_API_KEY"),
			BaseURL: getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			Timeout: getDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		},
		ImageGen: ImageGenConfig{
			APIKey:  os.Getenv("IMAGEGEN_API_KEY"),
			BaseURL: getEnvOrDefault("IMAGEGEN_BASE_URL", "https://api.cometapi.com/v1/images/generations"),
			Model:   getEnvOrDefault("IMAGEGEN_MODEL", "doubao-seedream-4-5-251128"),
			Timeout: getDurationOrDefault("IMAGEGEN_TIMEOUT", 180*time.Second),
		},
		Crawler: CrawlerConfig{
			RateLimitMin: getDurationOrDefault("CRAWLER_RATE_LIMIT_MIN", 1*time.Second),
			RateLimitMax: getDurationOrDefault("CRAWLER_RATE_LIMIT_MAX", 3*time.Second),
			MaxDepth:     getIntOrDefault("CRAWLER_MAX_DEPTH", 3),
			MaxPages:     getIntOrDefault("CRAWLER_MAX_PAGES", 100),
			UserAgent:    getEnvOrDefault("CRAWLER_USER_AGENT", "catalog-scraper/1.0"),
			FetchTimeout: getDurationOrDefault("CRAWLER_FETCH_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "catalog_scraper"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Crawler.RateLimitMin > c.Crawler.RateLimitMax {
		return fmt.Errorf("CRAWLER_RATE_LIMIT_MIN cannot be greater than CRAWLER_RATE_LIMIT_MAX")
	}

	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("CRAWLER_MAX_DEPTH cannot be negative")
	}

	if c.Crawler.MaxPages < 1 {
		return fmt.Errorf("CRAWLER_MAX_PAGES must be at least 1")
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
