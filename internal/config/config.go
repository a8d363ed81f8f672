package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DevJWTSecret is used only when AllowDevSecret is on outside production
const DevJWTSecret = "accounts-dev-secret-do-not-use-in-production"

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Trial     TrialConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// IsProduction reports whether the process runs in production
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
	Enabled  bool
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret         string
	Expiry         time.Duration
	AllowDevSecret bool
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// CORSConfig lists allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// RateLimitConfig limits login attempts per client IP
type RateLimitConfig struct {
	LoginMax    int
	LoginWindow time.Duration
}

// TrialConfig drives the trial expiry sweeper
type TrialConfig struct {
	SweepInterval time.Duration
	BatchSize     int
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  env,
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "accounts"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			Expiry:         getEnvAsDuration("JWT_EXPIRY", 7*24*time.Hour),
			AllowDevSecret: getEnvAsBool("JWT_ALLOW_DEV_SECRET", false),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", "access_token"),
			Domain: getEnv("COOKIE_DOMAIN", ""),
			Secure: getEnvAsBool("COOKIE_SECURE", env == "production"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		RateLimit: RateLimitConfig{
			LoginMax:    getEnvAsInt("LOGIN_RATE_LIMIT_MAX", 10),
			LoginWindow: getEnvAsDuration("LOGIN_RATE_LIMIT_WINDOW", time.Minute),
		},
		Trial: TrialConfig{
			SweepInterval: getEnvAsDuration("TRIAL_SWEEP_INTERVAL", time.Hour),
			BatchSize:     getEnvAsInt("TRIAL_SWEEP_BATCH_SIZE", 100),
		},
	}
}

// ResolveJWTSecret returns the signing secret. Without JWT_SECRET the dev
// fallback is returned only when JWT_ALLOW_DEV_SECRET is set outside production.
func (c *Config) ResolveJWTSecret() (secret string, usedFallback bool, err error) {
	if c.JWT.Secret != "" {
		return c.JWT.Secret, false, nil
	}
	if c.JWT.AllowDevSecret && !c.Server.IsProduction() {
		return DevJWTSecret, true, nil
	}
	return "", false, ErrMissingJWTSecret
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
