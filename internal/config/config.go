package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	Ack      AckConfig
	Auth     AuthConfig
	Push     PushConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

// AckConfig holds acknowledgment delivery configuration
type AckConfig struct {
	MaxRetries        int
	BackoffBase       float64
	BackoffScale      float64
	PerAttemptTimeout time.Duration
	TotalTimeout      time.Duration
}

// AuthConfig holds session handshake configuration
type AuthConfig struct {
	// PairingSecretHash is the bcrypt hash of the secret the host app
	// presents when opening a session.
	PairingSecretHash string
	SessionSecret     string
	SessionExpiration time.Duration
}

// PushConfig holds push provider configuration
type PushConfig struct {
	// ProviderSecret verifies payload signatures. Empty disables
	// verification.
	ProviderSecret string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "push_dispatch"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8087"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	maxRetries, err := strconv.Atoi(getEnv("ACK_MAX_RETRIES", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACK_MAX_RETRIES: %w", err)
	}
	attemptTimeout, err := time.ParseDuration(getEnv("ACK_ATTEMPT_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACK_ATTEMPT_TIMEOUT: %w", err)
	}
	totalTimeout, err := time.ParseDuration(getEnv("ACK_TOTAL_TIMEOUT", "35s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACK_TOTAL_TIMEOUT: %w", err)
	}

	config.Ack = AckConfig{
		MaxRetries:        maxRetries,
		BackoffBase:       2,
		BackoffScale:      0.5,
		PerAttemptTimeout: attemptTimeout,
		TotalTimeout:      totalTimeout,
	}

	sessionExp, err := time.ParseDuration(getEnv("SESSION_EXPIRATION", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_EXPIRATION: %w", err)
	}

	config.Auth = AuthConfig{
		PairingSecretHash: getEnv("PAIRING_SECRET_HASH", ""),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionExpiration: sessionExp,
	}

	config.Push = PushConfig{
		ProviderSecret: getEnv("PUSH_PROVIDER_SECRET", ""),
	}

	return config, nil
}

// DatabaseURL builds the Postgres DSN from the database section.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// IsProduction returns true when the app runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
