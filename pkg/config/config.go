// Package config loads runtime settings from the environment, falling back
// to a .env file and then to defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string
	Host     string
	Port     string
	LogLevel string

	DB        DBConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Notify    NotifyConfig

	CORSOrigins []string
	CartFile    string
}

type DBConfig struct {
	Driver   string
	Path     string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RateLimitConfig struct {
	Enabled bool
	Max     int
	Window  time.Duration
}

type CacheConfig struct {
	Enabled       bool
	TTL           time.Duration
	Prefix        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type NotifyConfig struct {
	AMQPURL string
	Queue   string
}

// Load reads envFile (if present) into the process environment without
// overriding variables that are already set, then builds a Config.
func Load(envFile string) *Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	return &Config{
		Env:      getEnv("APP_ENV", EnvDevelopment),
		Host:     getEnv("HOST", "0.0.0.0"),
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:     getEnv("DB_PATH", filepath.Join(".", "data", "aida.db")),
			DSN:      os.Getenv("DB_DSN"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "aida"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "aida"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBool("RATE_LIMIT_ENABLED", true),
			Max:     getPositiveInt("RATE_LIMIT_MAX", 200),
			Window:  getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		Cache: CacheConfig{
			Enabled:       getBool("CACHE_ENABLED", false),
			TTL:           getDuration("CACHE_TTL", 30*time.Second),
			Prefix:        getEnv("CACHE_PREFIX", "aida"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getInt("REDIS_DB", 0),
		},
		Notify: NotifyConfig{
			AMQPURL: os.Getenv("AMQP_URL"),
			Queue:   getEnv("AMQP_QUEUE", "contact.received"),
		},
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		CartFile:    getEnv("CART_FILE", defaultCartFile()),
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// PostgresDSN returns DB.DSN, or one assembled from the discrete DB_* settings.
func (c *Config) PostgresDSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port)
}

func defaultCartFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "cart.json")
	}
	return filepath.Join(home, ".aida", "cart.json")
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getPositiveInt(key string, defaultValue int) int {
	if n := getInt(key, defaultValue); n > 0 {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
